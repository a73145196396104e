package telegram

import (
	"strings"
	"testing"
	"time"

	"golang-news-dashboard/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestFormatRecommendationAlert(t *testing.T) {
	pub := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	msg := FormatRecommendationAlert(entity.Article{
		ID:              "a1",
		Title:           "Rates_on hold",
		Summary:         "The central bank kept rates unchanged.",
		InstrumentType:  "stock",
		InstrumentName:  "ACME",
		SourceURL:       "https://example.com/a1",
		Recommendation:  entity.RecommendationBuy,
		ConfidenceScore: 91,
		PublishedAt:     &pub,
	})

	assert.Contains(t, msg, "🟢 *BUY* ACME (stock)")
	assert.Contains(t, msg, "91%")
	assert.Contains(t, msg, `Rates\_on hold`)
	assert.Contains(t, msg, "[Source](https://example.com/a1)")
	assert.Contains(t, msg, "17 Oct 2026")
}

func TestFormatRecommendationAlert_TruncatesSummary(t *testing.T) {
	msg := FormatRecommendationAlert(entity.Article{
		Recommendation: entity.RecommendationSell,
		Summary:        strings.Repeat("x", maxSummaryLen+50),
	})
	assert.Contains(t, msg, "🔴 *SELL*")
	assert.Contains(t, msg, "…")
	assert.NotContains(t, msg, strings.Repeat("x", maxSummaryLen+1))
}
