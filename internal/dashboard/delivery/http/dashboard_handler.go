package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang-news-dashboard/internal/dashboard/dto"
	"golang-news-dashboard/internal/dashboard/service"
	"golang-news-dashboard/internal/entity"
	"golang-news-dashboard/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardHandler exposes the dashboard session over HTTP.
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *logger.Logger

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService service.DashboardService, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
		shutdown:         make(chan struct{}),
	}
}

// Shutdown ends every open stream. Register it with
// http.Server.RegisterOnShutdown so that graceful shutdown does not wait on
// long-lived stream connections.
func (h *DashboardHandler) Shutdown() {
	h.shutdownOnce.Do(func() { close(h.shutdown) })
}

// RegisterRoutes registers the dashboard routes to the Echo group.
func (h *DashboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/articles", h.GetArticles)
	g.GET("/articles/recent", h.GetRecentArticles)
	g.GET("/chat/messages", h.GetChatMessages)
	g.POST("/chat/messages", h.SendChatMessage)
	g.GET("/metrics", h.GetMetrics)
	g.GET("/status", h.GetStatus)
	g.GET("/ai-config", h.GetAIConfig)
	g.POST("/resync", h.Resync)
	g.GET("/stream", h.Stream)
}

// GetArticles godoc
// @Summary Get the article list
// @Description Get the reconciled article list, newest first
// @Tags articles
// @Produce  json
// @Success 200 {object} dto.ArticleListResponse
// @Router /articles [get]
func (h *DashboardHandler) GetArticles(c echo.Context) error {
	view := h.dashboardService.View()
	return c.JSON(http.StatusOK, dto.ArticleListResponse{
		Articles:        view.Articles,
		RecentlyAdded:   view.RecentlyAdded,
		ArticlesTrusted: view.ArticlesTrusted,
	})
}

// GetRecentArticles godoc
// @Summary Get recently added articles
// @Description Get the articles that arrived within the highlight window
// @Tags articles
// @Produce  json
// @Success 200 {object} dto.RecentArticlesResponse
// @Router /articles/recent [get]
func (h *DashboardHandler) GetRecentArticles(c echo.Context) error {
	view := h.dashboardService.View()
	recent := make(map[string]struct{}, len(view.RecentlyAdded))
	for _, id := range view.RecentlyAdded {
		recent[id] = struct{}{}
	}
	articles := make([]entity.Article, 0, len(recent))
	for _, a := range view.Articles {
		if _, ok := recent[a.ID]; ok {
			articles = append(articles, a)
		}
	}
	return c.JSON(http.StatusOK, dto.RecentArticlesResponse{Articles: articles})
}

// GetChatMessages godoc
// @Summary Get chat history
// @Description Get the chat messages of the session, oldest first
// @Tags chat
// @Produce  json
// @Success 200 {object} dto.ChatMessagesResponse
// @Router /chat/messages [get]
func (h *DashboardHandler) GetChatMessages(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.ChatMessagesResponse{Messages: h.dashboardService.View().Messages})
}

// SendChatMessage godoc
// @Summary Send a chat message
// @Description Send a prompt to the AI backend. The reply streams into the chat history.
// @Tags chat
// @Accept  json
// @Produce  json
// @Param   message  body    dto.SendChatRequest   true    "Prompt to send"
// @Success 202 {object} dto.SendChatResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /chat/messages [post]
func (h *DashboardHandler) SendChatMessage(c echo.Context) error {
	var req dto.SendChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	sessionID, err := h.dashboardService.SendChat(c.Request().Context(), req.Message)
	switch {
	case err == nil:
		return c.JSON(http.StatusAccepted, dto.SendChatResponse{SessionID: sessionID})
	case errors.Is(err, service.ErrEmptyPrompt):
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrDisposed):
		return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("Failed to send chat message", logger.StringField("session_id", sessionID), logger.ErrorField(err))
		return c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "Failed to reach the AI backend"})
	}
}

// GetMetrics godoc
// @Summary Get the metrics snapshot
// @Description Get the latest document of every metric category
// @Tags metrics
// @Produce  json
// @Success 200 {object} entity.MetricsSnapshot
// @Router /metrics [get]
func (h *DashboardHandler) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.dashboardService.View().Metrics)
}

// GetStatus godoc
// @Summary Get session status
// @Description Get push channel connectivity and list trust
// @Tags status
// @Produce  json
// @Success 200 {object} dto.StatusResponse
// @Router /status [get]
func (h *DashboardHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.dashboardService.Status())
}

// GetAIConfig godoc
// @Summary Get AI configuration
// @Description Get the AI backend configuration
// @Tags status
// @Produce  json
// @Success 200 {object} dto.AIConfig
// @Failure 502 {object} dto.ErrorResponse
// @Router /ai-config [get]
func (h *DashboardHandler) GetAIConfig(c echo.Context) error {
	cfg, err := h.dashboardService.AIConfig(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get AI config", logger.ErrorField(err))
		return c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "Failed to get AI config"})
	}
	return c.JSON(http.StatusOK, cfg)
}

// Resync godoc
// @Summary Request a resync
// @Description Request a full article snapshot pull from the backend
// @Tags articles
// @Produce  json
// @Success 202 {object} dto.ResyncResponse
// @Router /resync [post]
func (h *DashboardHandler) Resync(c echo.Context) error {
	h.dashboardService.RequestResync()
	return c.JSON(http.StatusAccepted, dto.ResyncResponse{Status: "requested"})
}

// Stream godoc
// @Summary Stream view updates
// @Description Server-sent events carrying the full view after every change
// @Tags status
// @Produce  text/event-stream
// @Success 200 {object} dto.View
// @Router /stream [get]
func (h *DashboardHandler) Stream(c echo.Context) error {
	views, unsubscribe := h.dashboardService.Subscribe()
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := writeEvent(res, h.dashboardService.View()); err != nil {
		return nil
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.shutdown:
			return nil
		case view, ok := <-views:
			if !ok {
				return nil
			}
			if err := writeEvent(res, view); err != nil {
				h.logger.Debug("Stream client went away", logger.ErrorField(err))
				return nil
			}
		}
	}
}

func writeEvent(res *echo.Response, view dto.View) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "id: %d\nevent: view\ndata: %s\n\n", view.Version, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
