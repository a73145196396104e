package entity

import "time"

// ChatRole identifies who authored a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one bubble in the operator chat panel.
// Content only changes while Streaming is true.
type ChatMessage struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	Role             ChatRole  `json:"role"`
	Content          string    `json:"content"`
	Streaming        bool      `json:"streaming"`
	Timestamp        time.Time `json:"timestamp"`
	ProcessingTimeMs *int64    `json:"processing_time_ms,omitempty"`
	TokenCount       *int      `json:"token_count,omitempty"`
	Model            string    `json:"model,omitempty"`
	IsError          bool      `json:"is_error,omitempty"`
}
