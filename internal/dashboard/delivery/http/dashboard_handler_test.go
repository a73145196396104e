package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang-news-dashboard/internal/dashboard/dto"
	"golang-news-dashboard/internal/dashboard/service"
	"golang-news-dashboard/internal/entity"
	"golang-news-dashboard/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDashboardService struct {
	view     dto.View
	status   dto.StatusResponse
	sendErr  error
	prompts  []string
	resyncs  int
	aiErr    error
	views    chan dto.View
	unsubbed bool
}

func (s *fakeDashboardService) Start(ctx context.Context) error { return nil }
func (s *fakeDashboardService) Close()                          {}

func (s *fakeDashboardService) SendChat(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.sendErr != nil {
		return "sid-1", s.sendErr
	}
	return "sid-1", nil
}

func (s *fakeDashboardService) RequestResync()             { s.resyncs++ }
func (s *fakeDashboardService) View() dto.View             { return s.view }
func (s *fakeDashboardService) Status() dto.StatusResponse { return s.status }

func (s *fakeDashboardService) AIConfig(ctx context.Context) (*dto.AIConfig, error) {
	if s.aiErr != nil {
		return nil, s.aiErr
	}
	return &dto.AIConfig{Provider: "openai", Model: "gpt", Enabled: true}, nil
}

func (s *fakeDashboardService) Subscribe() (<-chan dto.View, func()) {
	return s.views, func() { s.unsubbed = true }
}

func (s *fakeDashboardService) ApplyArticlePoll(ctx context.Context, articles []entity.Article) {}
func (s *fakeDashboardService) ApplyMetricsPoll(ctx context.Context, categories map[string]json.RawMessage, observedAt time.Time) {
}

func newTestServer(svc service.DashboardService) *echo.Echo {
	e := echo.New()
	NewDashboardHandler(svc, logger.NewNop()).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetArticles(t *testing.T) {
	svc := &fakeDashboardService{view: dto.View{
		Articles:        []entity.Article{{ID: "a2"}, {ID: "a1"}},
		RecentlyAdded:   []string{"a2"},
		ArticlesTrusted: true,
	}}
	e := newTestServer(svc)

	rec := do(e, http.MethodGet, "/api/v1/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ArticleListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Articles, 2)
	assert.Equal(t, []string{"a2"}, resp.RecentlyAdded)
	assert.True(t, resp.ArticlesTrusted)

	rec = do(e, http.MethodGet, "/api/v1/articles/recent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recent dto.RecentArticlesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recent))
	require.Len(t, recent.Articles, 1)
	assert.Equal(t, "a2", recent.Articles[0].ID)
}

func TestSendChatMessage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		sendErr  error
		wantCode int
	}{
		{name: "accepted", body: `{"message":"hi"}`, wantCode: http.StatusAccepted},
		{name: "invalid payload", body: `{`, wantCode: http.StatusBadRequest},
		{name: "empty prompt", body: `{"message":""}`, sendErr: service.ErrEmptyPrompt, wantCode: http.StatusBadRequest},
		{name: "disposed", body: `{"message":"hi"}`, sendErr: service.ErrDisposed, wantCode: http.StatusServiceUnavailable},
		{name: "backend failure", body: `{"message":"hi"}`, sendErr: errors.New("boom"), wantCode: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDashboardService{sendErr: tt.sendErr}
			rec := do(newTestServer(svc), http.MethodPost, "/api/v1/chat/messages", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusAccepted {
				assert.JSONEq(t, `{"session_id":"sid-1"}`, rec.Body.String())
				assert.Equal(t, []string{"hi"}, svc.prompts)
			}
		})
	}
}

func TestGetChatMessagesAndStatus(t *testing.T) {
	svc := &fakeDashboardService{
		view:   dto.View{Messages: []entity.ChatMessage{{ID: "s:user", Role: entity.ChatRoleUser, Content: "hi"}}},
		status: dto.StatusResponse{Connected: true, ActiveSessions: 1},
	}
	e := newTestServer(svc)

	rec := do(e, http.MethodGet, "/api/v1/chat/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs dto.ChatMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs.Messages, 1)
	assert.Equal(t, "hi", msgs.Messages[0].Content)

	rec = do(e, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status dto.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.ActiveSessions)
}

func TestGetAIConfig(t *testing.T) {
	e := newTestServer(&fakeDashboardService{})
	rec := do(e, http.MethodGet, "/api/v1/ai-config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"model":"gpt"`)

	e = newTestServer(&fakeDashboardService{aiErr: errors.New("down")})
	rec = do(e, http.MethodGet, "/api/v1/ai-config", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestResync(t *testing.T) {
	svc := &fakeDashboardService{}
	rec := do(newTestServer(svc), http.MethodPost, "/api/v1/resync", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, svc.resyncs)
}

func TestStream(t *testing.T) {
	views := make(chan dto.View, 2)
	views <- dto.View{Version: 2, Articles: []entity.Article{{ID: "a1"}}}
	close(views)
	svc := &fakeDashboardService{view: dto.View{Version: 1}, views: views}

	rec := do(newTestServer(svc), http.MethodGet, "/api/v1/stream", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, svc.unsubbed)

	body := rec.Body.String()
	assert.Contains(t, body, "id: 1\nevent: view\n")
	assert.Contains(t, body, "id: 2\nevent: view\n")
	assert.Contains(t, body, `"id":"a1"`)
}

func TestStream_EndsOnServerShutdown(t *testing.T) {
	svc := &fakeDashboardService{view: dto.View{Version: 1}}
	e := echo.New()
	h := NewDashboardHandler(svc, logger.NewNop())
	h.RegisterRoutes(e.Group("/api/v1"))
	e.Server.Handler = e
	e.Server.RegisterOnShutdown(h.Shutdown)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- e.Server.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "id: 1\n", line)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, e.Server.Shutdown(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, <-served, http.ErrServerClosed)
}

func TestStream_AfterShutdownReturnsImmediately(t *testing.T) {
	svc := &fakeDashboardService{view: dto.View{Version: 3}}
	e := echo.New()
	h := NewDashboardHandler(svc, logger.NewNop())
	h.RegisterRoutes(e.Group("/api/v1"))
	h.Shutdown()
	h.Shutdown()

	rec := do(e, http.MethodGet, "/api/v1/stream", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "id: 3\nevent: view\n")
	assert.True(t, svc.unsubbed)
}
