package entity

import (
	"encoding/json"
	"time"
)

// CategoryDocument is the latest document received for one metric category.
type CategoryDocument struct {
	Data       json.RawMessage `json:"data"`
	ObservedAt time.Time       `json:"observed_at"`
}

// MetricsSnapshot is the composite of the most recent document per category.
type MetricsSnapshot struct {
	Categories    map[string]CategoryDocument `json:"categories"`
	LastUpdatedAt time.Time                   `json:"last_updated_at"`
}

// Clone returns a copy whose category map can be modified independently.
// The raw documents are shared; they are never mutated in place.
func (s MetricsSnapshot) Clone() MetricsSnapshot {
	out := MetricsSnapshot{
		Categories:    make(map[string]CategoryDocument, len(s.Categories)),
		LastUpdatedAt: s.LastUpdatedAt,
	}
	for k, v := range s.Categories {
		out.Categories[k] = v
	}
	return out
}
