package dto

import (
	"time"

	"golang-news-dashboard/internal/entity"
)

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendChatRequest is the body of POST /chat/messages.
type SendChatRequest struct {
	Message string `json:"message"`
}

// SendChatResponse acknowledges a chat send.
type SendChatResponse struct {
	SessionID string `json:"session_id"`
}

// StatusResponse reports connectivity of the dashboard session.
type StatusResponse struct {
	Connected       bool      `json:"connected"`
	ArticlesTrusted bool      `json:"articles_trusted"`
	ActiveSessions  int       `json:"active_sessions"`
	LastEventAt     time.Time `json:"last_event_at"`
}

// View is a read-only snapshot of the dashboard session state.
type View struct {
	Articles        []entity.Article       `json:"articles"`
	RecentlyAdded   []string               `json:"recently_added"`
	Messages        []entity.ChatMessage   `json:"messages"`
	Metrics         entity.MetricsSnapshot `json:"metrics"`
	Connected       bool                   `json:"connected"`
	ArticlesTrusted bool                   `json:"articles_trusted"`
	Version         uint64                 `json:"version"`
}

// ArticleListResponse is the reconciled article list.
type ArticleListResponse struct {
	Articles        []entity.Article `json:"articles"`
	RecentlyAdded   []string         `json:"recently_added"`
	ArticlesTrusted bool             `json:"articles_trusted"`
}

// RecentArticlesResponse lists the articles still carrying the
// recently-added marker.
type RecentArticlesResponse struct {
	Articles []entity.Article `json:"articles"`
}

// ChatMessagesResponse is the chat history, oldest first.
type ChatMessagesResponse struct {
	Messages []entity.ChatMessage `json:"messages"`
}

// ResyncResponse acknowledges a resync request.
type ResyncResponse struct {
	Status string `json:"status"`
}
