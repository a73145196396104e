package entity

import (
	"strings"
	"time"
)

// Recommendation is the AI verdict attached to an article.
type Recommendation string

const (
	RecommendationBuy  Recommendation = "BUY"
	RecommendationSell Recommendation = "SELL"
	RecommendationHold Recommendation = "HOLD"
)

// ParseRecommendation normalises a raw recommendation value. Anything that is
// not BUY or SELL is treated as HOLD.
func ParseRecommendation(raw string) Recommendation {
	switch Recommendation(strings.ToUpper(strings.TrimSpace(raw))) {
	case RecommendationBuy:
		return RecommendationBuy
	case RecommendationSell:
		return RecommendationSell
	default:
		return RecommendationHold
	}
}

// Article is an AI-analysed news item as shown on the dashboard.
type Article struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Summary         string         `json:"summary"`
	InstrumentType  string         `json:"instrument_type"`
	InstrumentName  string         `json:"instrument_name"`
	SourceURL       string         `json:"source_url"`
	Recommendation  Recommendation `json:"recommendation"`
	ConfidenceScore int            `json:"confidence_score"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
}

// DisplayTime is the timestamp used for display ordering.
func (a Article) DisplayTime() time.Time {
	if a.PublishedAt != nil && !a.PublishedAt.IsZero() {
		return *a.PublishedAt
	}
	return a.CreatedAt
}

// NewerThan reports whether a carries a strictly later UpdatedAt than other.
// Articles without UpdatedAt are never newer.
func (a Article) NewerThan(other Article) bool {
	if a.UpdatedAt == nil {
		return false
	}
	if other.UpdatedAt == nil {
		return true
	}
	return a.UpdatedAt.After(*other.UpdatedAt)
}
