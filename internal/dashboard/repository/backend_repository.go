package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-news-dashboard/internal/dashboard/config"
	"golang-news-dashboard/internal/dashboard/dto"
	"golang-news-dashboard/pkg/logger"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const aiConfigCacheKey = "ai_config"

// ErrUnexpectedStatus is returned for any non-2xx backend response.
var ErrUnexpectedStatus = errors.New("unexpected status from backend")

// BackendRepository pulls dashboard state from the backend.
type BackendRepository interface {
	GetArticles(ctx context.Context) (*dto.ArticlesResponse, error)
	GetMetrics(ctx context.Context) (*dto.MetricsResponse, error)
	GetAIConfig(ctx context.Context) (*dto.AIConfig, error)
	SendChat(ctx context.Context, req dto.ChatRequest) (*dto.ChatAck, error)
}

type backendRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	inmemoryCache  *cache.Cache
}

// NewBackendRepository creates a rate-limited backend client.
func NewBackendRepository(cfg *config.Config, log *logger.Logger) BackendRepository {
	perMinute := cfg.Backend.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	requestLimiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute/10+1)
	ttl := cfg.Backend.AIConfigTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &backendRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Backend.Timeout,
		},
		requestLimiter: requestLimiter,
		inmemoryCache:  cache.New(ttl, 2*ttl),
	}
}

func (r *backendRepository) GetArticles(ctx context.Context) (*dto.ArticlesResponse, error) {
	body, err := r.sendRequest(ctx, http.MethodGet, "/api/articles", nil)
	if err != nil {
		return nil, err
	}

	var response dto.ArticlesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}
	return &response, nil
}

func (r *backendRepository) GetMetrics(ctx context.Context) (*dto.MetricsResponse, error) {
	body, err := r.sendRequest(ctx, http.MethodGet, "/api/metrics", nil)
	if err != nil {
		return nil, err
	}

	var response dto.MetricsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return &response, nil
}

// GetAIConfig returns the AI configuration, cached for backend.ai_config_ttl.
func (r *backendRepository) GetAIConfig(ctx context.Context) (*dto.AIConfig, error) {
	if cached, ok := r.inmemoryCache.Get(aiConfigCacheKey); ok {
		cfg := cached.(dto.AIConfig)
		return &cfg, nil
	}

	body, err := r.sendRequest(ctx, http.MethodGet, "/api/ai-config", nil)
	if err != nil {
		return nil, err
	}

	var response dto.AIConfig
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode ai config: %w", err)
	}
	r.inmemoryCache.SetDefault(aiConfigCacheKey, response)
	return &response, nil
}

// SendChat starts a chat reply. Only the acknowledgement comes back here;
// the content streams over the push channel.
func (r *backendRepository) SendChat(ctx context.Context, req dto.ChatRequest) (*dto.ChatAck, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	body, err := r.sendRequest(ctx, http.MethodPost, "/api/chat", payload)
	if err != nil {
		return nil, err
	}

	var ack dto.ChatAck
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &ack); err != nil {
			return nil, fmt.Errorf("failed to decode chat ack: %w", err)
		}
	}
	if ack.SessionID == "" {
		ack.SessionID = req.SessionID
	}
	return &ack, nil
}

func (r *backendRepository) sendRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := strings.TrimRight(r.cfg.Backend.BaseURL, "/") + path
	fields := []zap.Field{
		zap.String("url", url),
		zap.String("method", method),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to wait for request limit", fields...)
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to create new http request", fields...)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to send request to backend", fields...)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to read response body from backend", fields...)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fields = append(fields, zap.Int("status_code", resp.StatusCode))
		r.log.ErrorContext(ctx, "Received non-OK response from backend", fields...)
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}

	r.log.DebugContext(ctx, "Backend request completed", append(fields, zap.Int("status_code", resp.StatusCode))...)
	return body, nil
}
