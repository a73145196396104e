package dto

import (
	"encoding/json"
	"time"
)

// ArticlesResponse is returned by the backend article snapshot endpoint.
type ArticlesResponse struct {
	Articles []ArticlePayload `json:"articles"`
	Total    int              `json:"total"`
}

// MetricsResponse is the composite metrics document. Every top-level key
// except "timestamp" is a category document.
type MetricsResponse struct {
	Categories map[string]json.RawMessage
	Timestamp  *time.Time
}

// UnmarshalJSON splits the timestamp from the category documents.
func (m *MetricsResponse) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if ts, ok := raw["timestamp"]; ok {
		var t time.Time
		if err := json.Unmarshal(ts, &t); err == nil {
			m.Timestamp = &t
		}
		delete(raw, "timestamp")
	}
	m.Categories = raw
	return nil
}

// AIConfig describes the AI backend the chat talks to.
type AIConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Enabled     bool    `json:"enabled"`
}

// ChatRequest starts a streamed chat reply on the backend.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatAck is the acknowledgement of a ChatRequest. Content arrives on the
// push channel.
type ChatAck struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}
