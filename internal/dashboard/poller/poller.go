// Package poller pulls full dashboard state on a schedule. It is the
// bootstrap and resynchronisation path next to the push channel.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang-news-dashboard/internal/dashboard/config"
	"golang-news-dashboard/internal/dashboard/dto"
	"golang-news-dashboard/internal/dashboard/repository"
	"golang-news-dashboard/internal/entity"
	"golang-news-dashboard/pkg/logger"
	"golang-news-dashboard/pkg/utils"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// Sink receives poll results. Both methods must merge forward and never
// block for long.
type Sink interface {
	ApplyArticlePoll(ctx context.Context, articles []entity.Article)
	ApplyMetricsPoll(ctx context.Context, categories map[string]json.RawMessage, observedAt time.Time)
}

// Poller runs the periodic metrics pull and on-demand article resyncs.
type Poller struct {
	repo   repository.BackendRepository
	sink   Sink
	logger *logger.Logger
	cfg    config.Poller

	cron          *cron.Cron
	resyncLimiter *rate.Limiter
	resyncCh      chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// New creates a Poller. Nothing runs until Start.
func New(cfg config.Poller, repo repository.BackendRepository, sink Sink, log *logger.Logger) *Poller {
	if cfg.MetricsInterval <= 0 {
		cfg.MetricsInterval = 5 * time.Second
	}
	if cfg.ResyncInterval <= 0 {
		cfg.ResyncInterval = 2 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Second
	}
	cl := cronLogger{log: log}
	return &Poller{
		repo:          repo,
		sink:          sink,
		logger:        log,
		cfg:           cfg,
		cron:          cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		resyncLimiter: rate.NewLimiter(rate.Every(cfg.ResyncInterval), 1),
		resyncCh:      make(chan struct{}, 1),
	}
}

// Start schedules the metrics pull, starts the resync worker and performs
// the bootstrap pulls. A Poller can be started once.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("poller already started")
	}

	spec := fmt.Sprintf("@every %s", p.cfg.MetricsInterval)
	runCtx, cancel := context.WithCancel(ctx)
	if _, err := p.cron.AddFunc(spec, func() { p.PollMetrics(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule metrics poll %q: %w", spec, err)
	}
	p.cancel, p.started = cancel, true

	p.wg.Add(2)
	utils.GoSafe(p.logger, func() {
		defer p.wg.Done()
		p.resyncWorker(runCtx)
	})
	utils.GoSafe(p.logger, func() {
		defer p.wg.Done()
		p.PollMetrics(runCtx)
	})
	p.RequestResync()
	p.cron.Start()

	p.logger.Info("Poller started",
		logger.StringField("metrics_schedule", spec),
		logger.StringField("resync_interval", p.cfg.ResyncInterval.String()))
	return nil
}

// Stop halts the schedule and waits for running pulls to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	<-p.cron.Stop().Done()
	p.wg.Wait()
	p.logger.Info("Poller stopped")
}

// RequestResync asks for a full article snapshot pull. Requests made while
// one is pending are coalesced.
func (p *Poller) RequestResync() {
	select {
	case p.resyncCh <- struct{}{}:
	default:
	}
}

func (p *Poller) resyncWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.resyncCh:
			if err := p.resyncLimiter.Wait(ctx); err != nil {
				return
			}
			p.PollArticles(ctx)
		}
	}
}

// PollArticles pulls the article snapshot and feeds it to the sink. Failures
// leave state unchanged.
func (p *Poller) PollArticles(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PollTimeout)
	defer cancel()

	resp, err := p.repo.GetArticles(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "Article poll failed", logger.ErrorField(err))
		return
	}

	articles, dropped := dto.ArticleList(resp.Articles)
	if dropped > 0 {
		p.logger.WarnContext(ctx, "Dropped malformed articles from poll", logger.IntField("dropped", dropped))
	}
	p.sink.ApplyArticlePoll(ctx, articles)
}

// PollMetrics pulls the composite metrics document and feeds it to the sink.
func (p *Poller) PollMetrics(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PollTimeout)
	defer cancel()

	resp, err := p.repo.GetMetrics(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "Metrics poll failed", logger.ErrorField(err))
		return
	}

	var observedAt time.Time
	if resp.Timestamp != nil {
		observedAt = *resp.Timestamp
	}
	p.sink.ApplyMetricsPoll(ctx, resp.Categories, observedAt)
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
