// Package channel wraps one push-notification connection and dispatches its
// named events to registered handlers.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang-news-dashboard/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrAlreadyConnected = errors.New("channel already connected")
	ErrClosed           = errors.New("channel closed")
)

// Event is a named event delivered by the push channel.
type Event struct {
	Name       string
	Data       json.RawMessage
	Timestamp  time.Time
	ReceivedAt time.Time
}

// Handler consumes one event. Handlers run on the adapter's dispatch
// goroutine, in delivery order.
type Handler func(ctx context.Context, ev Event)

// ConnectivityHandler observes connection state transitions.
type ConnectivityHandler func(connected bool)

// Handle identifies one Connect call.
type Handle struct {
	ID          string
	ConnectedAt time.Time
}

// Adapter owns at most one live connection at a time.
type Adapter struct {
	transport  Transport
	logger     *logger.Logger
	retryDelay time.Duration

	mu           sync.RWMutex
	handlers     map[string][]Handler
	connectivity []ConnectivityHandler
	connected    bool

	connMu sync.Mutex
	stream Stream
	cancel context.CancelFunc
	done   chan struct{}
	handle *Handle
}

// NewAdapter creates an Adapter over transport. retryDelay is the pause
// between failed receives while the transport reconnects.
func NewAdapter(transport Transport, log *logger.Logger, retryDelay time.Duration) *Adapter {
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &Adapter{
		transport:  transport,
		logger:     log,
		retryDelay: retryDelay,
		handlers:   make(map[string][]Handler),
	}
}

// On registers h for events named event. Handlers registered before Connect
// receive every event delivered after the connection is established.
func (a *Adapter) On(event string, h Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[event] = append(a.handlers[event], h)
}

// OnConnectivity registers h for connection state transitions.
func (a *Adapter) OnConnectivity(h ConnectivityHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connectivity = append(a.connectivity, h)
}

// Connected reports the last known connection state.
func (a *Adapter) Connected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

// Connect opens the underlying transport and starts dispatching. Handlers
// receive a context carrying the values of ctx; the connection lives until
// Disconnect regardless of ctx.
func (a *Adapter) Connect(ctx context.Context) (*Handle, error) {
	a.connMu.Lock()
	defer a.connMu.Unlock()

	if a.done != nil {
		return nil, ErrAlreadyConnected
	}

	stream, err := a.transport.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open push channel: %w", err)
	}

	// values such as the session id reach handlers; cancellation does not
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stream = stream
	a.cancel = cancel
	a.done = make(chan struct{})
	a.handle = &Handle{ID: uuid.NewString(), ConnectedAt: time.Now()}

	a.logger.Info("Push channel opened", logger.StringField("handle", a.handle.ID))
	go a.run(runCtx, stream, a.done)

	return a.handle, nil
}

// Disconnect closes the connection and waits for the dispatch goroutine.
// No handler runs after Disconnect returns. It must not be called from a
// handler.
func (a *Adapter) Disconnect() {
	a.connMu.Lock()
	defer a.connMu.Unlock()

	if a.done == nil {
		return
	}
	a.cancel()
	if err := a.stream.Close(); err != nil {
		a.logger.Debug("Push channel close returned error", logger.ErrorField(err))
	}
	<-a.done

	a.logger.Info("Push channel closed", logger.StringField("handle", a.handle.ID))
	a.stream, a.cancel, a.done, a.handle = nil, nil, nil, nil
}

func (a *Adapter) run(ctx context.Context, stream Stream, done chan struct{}) {
	defer close(done)
	defer a.setConnected(false)

	for {
		frame, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, ErrClosed) {
				a.logger.Error("Push channel stream ended", logger.ErrorField(err))
			}
			return
		}

		switch frame.Kind {
		case FrameConnected:
			a.setConnected(true)
		case FrameDisconnected:
			a.logger.Warn("Push channel disconnected", logger.ErrorField(frame.Err))
			a.setConnected(false)
			select {
			case <-ctx.Done():
				return
			case <-time.After(a.retryDelay):
			}
		case FrameMalformed:
			a.logger.Warn("Dropping malformed push frame", logger.ErrorField(frame.Err))
		case FrameEvent:
			a.dispatch(ctx, frame.Event)
		}
	}
}

func (a *Adapter) dispatch(ctx context.Context, ev Event) {
	a.mu.RLock()
	hs := a.handlers[ev.Name]
	a.mu.RUnlock()

	if len(hs) == 0 {
		a.logger.Debug("No handler for push event", logger.StringField("event", ev.Name))
		return
	}
	for _, h := range hs {
		a.invoke(ctx, h, ev)
	}
}

func (a *Adapter) invoke(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Push event handler panicked",
				logger.StringField("event", ev.Name), logger.Field("panic", r))
		}
	}()
	h(ctx, ev)
}

func (a *Adapter) setConnected(connected bool) {
	a.mu.Lock()
	if a.connected == connected {
		a.mu.Unlock()
		return
	}
	a.connected = connected
	hs := make([]ConnectivityHandler, len(a.connectivity))
	copy(hs, a.connectivity)
	a.mu.Unlock()

	a.logger.Info("Push channel connectivity changed", logger.Field("connected", connected))
	for _, h := range hs {
		h(connected)
	}
}
