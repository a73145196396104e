package utils

import (
	"sync"
	"testing"
	"time"

	"golang-news-dashboard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5, 0, 100))
	assert.Equal(t, 100, Clamp(150, 0, 100))
	assert.Equal(t, 42, Clamp(42, 0, 100))
	assert.Equal(t, 100.0, Clamp(1e20, 0, 100))
	assert.Equal(t, 0.0, Clamp(-5.5, 0, 100))
}

func TestToPointer(t *testing.T) {
	p := ToPointer(7)
	assert.Equal(t, 7, *p)
}

func TestGoSafe_RecoversPanicThroughLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{Logger: zap.New(core)}

	var wg sync.WaitGroup
	wg.Add(1)
	GoSafe(log, func() {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()

	require.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, 5*time.Millisecond)
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "boom", entry.ContextMap()["panic"])
	assert.Contains(t, entry.ContextMap()["stack"], "utils_test.go")
}
