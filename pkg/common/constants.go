package common

// Push channel event names.
const (
	EventInitialSnapshot = "initial-snapshot"
	EventItemAdded       = "item-added"
	EventItemUpdated     = "item-updated"
	EventChatChunk       = "chunk"
	EventChatComplete    = "complete"
)

// Metric categories, also used as push channel event names.
const (
	MetricSystem    = "system"
	MetricHTTP      = "http"
	MetricDatabase  = "database"
	MetricAI        = "ai"
	MetricWebsocket = "websocket"
	MetricScrapy    = "scrapy"
)

// MetricCategories lists every category the merger accepts.
var MetricCategories = []string{
	MetricSystem,
	MetricHTTP,
	MetricDatabase,
	MetricAI,
	MetricWebsocket,
	MetricScrapy,
}

const (
	RedisChannelDashboardEvents = "dashboard.events"

	// DefaultChatSlot is the conversation slot used by the dashboard chat panel.
	DefaultChatSlot = "operator"
)
