package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang-news-dashboard/internal/dashboard/assembler"
	"golang-news-dashboard/internal/dashboard/channel"
	"golang-news-dashboard/internal/dashboard/config"
	"golang-news-dashboard/internal/dashboard/dto"
	"golang-news-dashboard/internal/dashboard/metrics"
	"golang-news-dashboard/internal/dashboard/poller"
	"golang-news-dashboard/internal/dashboard/reconciler"
	"golang-news-dashboard/internal/dashboard/repository"
	"golang-news-dashboard/internal/entity"
	"golang-news-dashboard/pkg/common"
	"golang-news-dashboard/pkg/logger"
	"golang-news-dashboard/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrDisposed       = errors.New("dashboard session disposed")
	ErrEmptyPrompt    = errors.New("chat message is empty")
	ErrAlreadyStarted = errors.New("dashboard session already started")
)

// EventChannel is the push channel the service listens on.
type EventChannel interface {
	On(event string, h channel.Handler)
	OnConnectivity(h channel.ConnectivityHandler)
	Connect(ctx context.Context) (*channel.Handle, error)
	Disconnect()
}

// ArticleObserver is told about articles that were newly inserted.
type ArticleObserver interface {
	ArticlesAdded(ctx context.Context, articles []entity.Article)
}

// DashboardService owns the reconciled state of one dashboard session.
type DashboardService interface {
	Start(ctx context.Context) error
	Close()
	SendChat(ctx context.Context, prompt string) (string, error)
	RequestResync()
	View() dto.View
	Status() dto.StatusResponse
	AIConfig(ctx context.Context) (*dto.AIConfig, error)
	Subscribe() (<-chan dto.View, func())
	poller.Sink
}

// Option customises a dashboard service.
type Option func(*dashboardService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *dashboardService) { s.now = now }
}

// WithArticleObserver registers an observer for newly inserted articles.
func WithArticleObserver(o ArticleObserver) Option {
	return func(s *dashboardService) { s.observers = append(s.observers, o) }
}

type dashboardService struct {
	id      string
	cfg     *config.Config
	channel EventChannel
	repo    repository.BackendRepository
	logger  *logger.Logger
	poller  *poller.Poller
	now     func() time.Time

	observers []ArticleObserver

	// mu guards all session state below; every mutation goes through it.
	mu          sync.Mutex
	reconciler  *reconciler.Reconciler
	assembler   *assembler.Assembler
	merger      *metrics.Merger
	connected   bool
	trusted     bool
	version     uint64
	lastEventAt time.Time
	started     bool
	disposed    bool

	subsMu    sync.Mutex
	subs      map[int]chan dto.View
	nextSub   int
	published uint64

	sweepCancel context.CancelFunc
	wg          sync.WaitGroup
}

// NewDashboardService creates the state holder for one dashboard session.
func NewDashboardService(cfg *config.Config, ch EventChannel, repo repository.BackendRepository, log *logger.Logger, opts ...Option) DashboardService {
	s := &dashboardService{
		id:      uuid.NewString(),
		cfg:     cfg,
		channel: ch,
		repo:    repo,
		logger:  log,
		now:     time.Now,
		reconciler: reconciler.New(reconciler.Policy{
			Bound:     cfg.Reconciler.Bound,
			MarkerTTL: cfg.Reconciler.MarkerTTL,
		}),
		assembler: assembler.New(cfg.Chat.MaxMessages),
		merger:    metrics.NewMerger(),
		subs:      make(map[int]chan dto.View),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.poller = poller.New(cfg.Poller, repo, s, log)
	s.registerHandlers()
	return s
}

func (s *dashboardService) registerHandlers() {
	s.channel.On(common.EventInitialSnapshot, s.handleSnapshot)
	s.channel.On(common.EventItemAdded, s.handleItemAdded)
	s.channel.On(common.EventItemUpdated, s.handleItemUpdated)
	s.channel.On(common.EventChatChunk, s.handleChunk)
	s.channel.On(common.EventChatComplete, s.handleComplete)
	for _, category := range common.MetricCategories {
		s.channel.On(category, s.handleMetric)
	}
	s.channel.OnConnectivity(s.handleConnectivity)
}

// Start connects the push channel and starts the poller and the sweeper.
func (s *dashboardService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	// held while starting so concurrent calls fail fast; released on failure
	s.started = true
	s.mu.Unlock()

	ctx = logger.WithSessionID(ctx, s.id)
	if _, err := s.channel.Connect(ctx); err != nil {
		s.resetStarted()
		return fmt.Errorf("failed to connect push channel: %w", err)
	}
	if err := s.poller.Start(ctx); err != nil {
		s.channel.Disconnect()
		s.resetStarted()
		return err
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	s.sweepCancel = cancel
	s.wg.Add(1)
	utils.GoSafe(s.logger, func() {
		defer s.wg.Done()
		s.sweepLoop(sweepCtx)
	})

	s.logger.InfoContext(ctx, "Dashboard session started")
	return nil
}

func (s *dashboardService) resetStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
}

// Close tears the session down. No callback mutates state afterwards.
func (s *dashboardService) Close() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.mu.Unlock()

	if s.sweepCancel != nil {
		s.sweepCancel()
	}
	s.wg.Wait()
	s.poller.Stop()
	s.channel.Disconnect()

	s.subsMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subsMu.Unlock()

	s.logger.Info("Dashboard session closed")
}

func (s *dashboardService) sweepLoop(ctx context.Context) {
	interval := s.cfg.Reconciler.SweepInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep drops expired recently-added markers and fails chat sessions that
// never received a first chunk.
func (s *dashboardService) Sweep(ctx context.Context) {
	s.mutate(ctx, func(now time.Time) bool {
		swept := s.reconciler.Sweep(now)
		reason := fmt.Sprintf("No response from the AI backend within %s.", s.cfg.Chat.FirstChunkTimeout)
		expired := s.assembler.ExpireAwaiting(now, s.cfg.Chat.FirstChunkTimeout, reason)
		for _, id := range expired.Failed {
			s.logger.WarnContext(ctx, "Chat session timed out waiting for first chunk", logger.StringField("session_id", id))
		}
		return swept.Changed || expired.Changed
	})
}

// mutate runs fn under the state lock and publishes a new view when fn
// reports a change. It is a no-op once the session is disposed.
func (s *dashboardService) mutate(ctx context.Context, fn func(now time.Time) bool) bool {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false
	}
	now := s.now()
	if !fn(now) {
		s.mu.Unlock()
		return false
	}
	s.version++
	s.lastEventAt = now
	view := s.viewLocked(now)
	s.mu.Unlock()

	s.publish(view)
	return true
}

func decode(ctx context.Context, log *logger.Logger, ev channel.Event, v interface{}) bool {
	if err := json.Unmarshal(ev.Data, v); err != nil {
		log.WarnContext(ctx, "Dropping malformed push event",
			logger.StringField("event", ev.Name), logger.ErrorField(err))
		return false
	}
	return true
}

func (s *dashboardService) handleSnapshot(ctx context.Context, ev channel.Event) {
	var payload dto.SnapshotPayload
	if !decode(ctx, s.logger, ev, &payload) {
		return
	}
	articles, dropped := dto.ArticleList(payload.Articles)
	if dropped > 0 {
		s.logger.WarnContext(ctx, "Dropped malformed articles from snapshot", logger.IntField("dropped", dropped))
	}
	s.mutate(ctx, func(now time.Time) bool {
		s.reconciler.ApplySnapshot(articles)
		s.trusted = true
		return true
	})
}

func (s *dashboardService) handleItemAdded(ctx context.Context, ev channel.Event) {
	var payload dto.ArticlePayload
	if !decode(ctx, s.logger, ev, &payload) {
		return
	}
	article, err := payload.ToEntity()
	if err != nil {
		s.logger.WarnContext(ctx, "Dropping malformed push event", logger.StringField("event", ev.Name), logger.ErrorField(err))
		return
	}

	var added []entity.Article
	s.mutate(ctx, func(now time.Time) bool {
		out := s.reconciler.ApplyAdded(article, now)
		added = out.Added
		return out.Changed
	})
	s.notifyAdded(ctx, added)
}

func (s *dashboardService) handleItemUpdated(ctx context.Context, ev channel.Event) {
	var payload dto.ArticlePayload
	if !decode(ctx, s.logger, ev, &payload) {
		return
	}
	article, err := payload.ToEntity()
	if err != nil {
		s.logger.WarnContext(ctx, "Dropping malformed push event", logger.StringField("event", ev.Name), logger.ErrorField(err))
		return
	}
	s.mutate(ctx, func(now time.Time) bool {
		out := s.reconciler.ApplyUpdated(article)
		if !out.Changed {
			s.logger.DebugContext(ctx, "Ignoring update for article not in list", logger.StringField("article_id", article.ID))
		}
		return out.Changed
	})
}

func (s *dashboardService) handleMetric(ctx context.Context, ev channel.Event) {
	s.mutate(ctx, func(now time.Time) bool {
		out := s.merger.ApplyCategory(ev.Name, ev.Data, ev.Timestamp, now)
		if out.Err != nil {
			s.logger.WarnContext(ctx, "Ignoring metric document", logger.StringField("category", ev.Name), logger.ErrorField(out.Err))
		}
		return out.Changed
	})
}

func (s *dashboardService) handleChunk(ctx context.Context, ev channel.Event) {
	var payload dto.ChunkPayload
	if !decode(ctx, s.logger, ev, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Dropping malformed push event", logger.StringField("event", ev.Name), logger.ErrorField(err))
		return
	}
	s.mutate(ctx, func(now time.Time) bool {
		out := s.assembler.ApplyChunk(payload.SessionID, payload.Chunk, now)
		if out.Ignored {
			s.logger.DebugContext(ctx, "Ignoring chunk for inactive session", logger.StringField("session_id", payload.SessionID))
		}
		return out.Changed
	})
}

func (s *dashboardService) handleComplete(ctx context.Context, ev channel.Event) {
	var payload dto.CompletePayload
	if !decode(ctx, s.logger, ev, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Dropping malformed push event", logger.StringField("event", ev.Name), logger.ErrorField(err))
		return
	}
	s.mutate(ctx, func(now time.Time) bool {
		out := s.assembler.ApplyCompletion(payload.SessionID, assembler.Completion{
			ProcessingTimeMs: payload.ProcessingTimeMs,
			TokenCount:       payload.TokenCount,
			Model:            payload.Model,
		}, now)
		if out.Ignored {
			s.logger.DebugContext(ctx, "Ignoring completion for inactive session", logger.StringField("session_id", payload.SessionID))
		}
		return out.Changed
	})
}

// handleConnectivity marks the article list untrusted on every transition.
// A (re)connection requests a full resync because events missed while
// disconnected are not replayed.
func (s *dashboardService) handleConnectivity(connected bool) {
	changed := s.mutate(context.Background(), func(now time.Time) bool {
		s.connected = connected
		s.trusted = false
		return true
	})
	if changed && connected {
		s.poller.RequestResync()
	}
}

// ApplyArticlePoll feeds a polled article snapshot through the full-sync
// reducer. The poll is authoritative for which articles exist.
func (s *dashboardService) ApplyArticlePoll(ctx context.Context, articles []entity.Article) {
	s.mutate(ctx, func(now time.Time) bool {
		s.reconciler.ApplyFullSync(articles, now)
		s.trusted = true
		return true
	})
}

// ApplyMetricsPoll merges a polled composite metrics document.
func (s *dashboardService) ApplyMetricsPoll(ctx context.Context, categories map[string]json.RawMessage, observedAt time.Time) {
	s.mutate(ctx, func(now time.Time) bool {
		changed, rejected := s.merger.ApplyComposite(categories, observedAt, now)
		for name, err := range rejected {
			s.logger.DebugContext(ctx, "Ignoring polled metric category", logger.StringField("category", name), logger.ErrorField(err))
		}
		return changed
	})
}

// SendChat opens a chat session and asks the backend to stream a reply.
// The returned id correlates the chunk and complete events.
func (s *dashboardService) SendChat(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	sessionID := uuid.NewString()
	var outcome assembler.Outcome
	began := s.mutate(ctx, func(now time.Time) bool {
		outcome = s.assembler.BeginSession(s.cfg.Chat.Slot, sessionID, prompt, now)
		return outcome.Changed
	})
	if !began {
		return "", ErrDisposed
	}
	if outcome.Superseded != "" {
		s.logger.InfoContext(ctx, "Chat session superseded", logger.StringField("session_id", outcome.Superseded))
	}

	if _, err := s.repo.SendChat(ctx, dto.ChatRequest{Message: prompt, SessionID: sessionID}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send chat message", logger.StringField("session_id", sessionID), logger.ErrorField(err))
		s.mutate(ctx, func(now time.Time) bool {
			return s.assembler.Fail(sessionID, "Failed to reach the AI backend. Please try again.", now).Changed
		})
		return sessionID, fmt.Errorf("failed to send chat message: %w", err)
	}
	return sessionID, nil
}

func (s *dashboardService) RequestResync() {
	s.poller.RequestResync()
}

func (s *dashboardService) AIConfig(ctx context.Context) (*dto.AIConfig, error) {
	return s.repo.GetAIConfig(ctx)
}

func (s *dashboardService) View() dto.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(s.now())
}

func (s *dashboardService) viewLocked(now time.Time) dto.View {
	return dto.View{
		Articles:        s.reconciler.Articles(),
		RecentlyAdded:   s.reconciler.RecentIDs(now),
		Messages:        s.assembler.Messages(),
		Metrics:         s.merger.Snapshot(),
		Connected:       s.connected,
		ArticlesTrusted: s.trusted,
		Version:         s.version,
	}
}

func (s *dashboardService) Status() dto.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dto.StatusResponse{
		Connected:       s.connected,
		ArticlesTrusted: s.trusted,
		ActiveSessions:  s.assembler.ActiveSessions(),
		LastEventAt:     s.lastEventAt,
	}
}

// Subscribe returns a channel receiving the latest view after each change.
// Slow readers only ever see the most recent view.
func (s *dashboardService) Subscribe() (<-chan dto.View, func()) {
	ch := make(chan dto.View, 1)

	s.subsMu.Lock()
	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed {
		s.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
		})
	}
}

// publish fans view out to subscribers. Views computed concurrently can
// arrive out of order; anything older than the last published view is dropped.
func (s *dashboardService) publish(view dto.View) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if view.Version <= s.published {
		return
	}
	s.published = view.Version
	for _, ch := range s.subs {
		select {
		case ch <- view:
			continue
		default:
		}
		// replace the unread view with the newer one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- view:
		default:
		}
	}
}

func (s *dashboardService) notifyAdded(ctx context.Context, added []entity.Article) {
	if len(added) == 0 {
		return
	}
	for _, o := range s.observers {
		o.ArticlesAdded(ctx, added)
	}
}
