package service

import (
	"context"
	"sync"
	"time"

	"golang-news-dashboard/internal/dashboard/config"
	"golang-news-dashboard/internal/entity"
	"golang-news-dashboard/pkg/logger"
	"golang-news-dashboard/pkg/telegram"
	"golang-news-dashboard/pkg/utils"

	"github.com/patrickmn/go-cache"
)

const alertQueueSize = 64

// AlertService forwards strong new recommendations to Telegram, at most
// once per article id within the dedup window.
type AlertService interface {
	ArticleObserver
	Start(ctx context.Context)
	Stop()
}

type alertService struct {
	cfg      config.Alert
	notifier telegram.Notifier
	logger   *logger.Logger
	sent     *cache.Cache
	queue    chan entity.Article

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAlertService creates an AlertService. Alerts are queued and sent from
// a single worker so that the push channel is never blocked on Telegram.
func NewAlertService(cfg config.Alert, notifier telegram.Notifier, log *logger.Logger) AlertService {
	window := cfg.DedupWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &alertService{
		cfg:      cfg,
		notifier: notifier,
		logger:   log,
		sent:     cache.New(window, window/2),
		queue:    make(chan entity.Article, alertQueueSize),
	}
}

func (s *alertService) qualifies(a entity.Article) bool {
	if a.Recommendation != entity.RecommendationBuy && a.Recommendation != entity.RecommendationSell {
		return false
	}
	return a.ConfidenceScore >= s.cfg.MinConfidence
}

// ArticlesAdded queues an alert for every qualifying article not alerted yet.
func (s *alertService) ArticlesAdded(ctx context.Context, articles []entity.Article) {
	for _, a := range articles {
		if !s.qualifies(a) {
			continue
		}
		if err := s.sent.Add(a.ID, struct{}{}, cache.DefaultExpiration); err != nil {
			continue
		}
		select {
		case s.queue <- a:
		default:
			s.sent.Delete(a.ID)
			s.logger.WarnContext(ctx, "Alert queue full, dropping alert", logger.StringField("article_id", a.ID))
		}
	}
}

func (s *alertService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	utils.GoSafe(s.logger, func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case a := <-s.queue:
				s.send(ctx, a)
			}
		}
	})
}

func (s *alertService) send(ctx context.Context, a entity.Article) {
	if err := s.notifier.SendMessage(telegram.FormatRecommendationAlert(a)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send recommendation alert", logger.StringField("article_id", a.ID), logger.ErrorField(err))
		s.sent.Delete(a.ID)
		return
	}
	s.logger.InfoContext(ctx, "Recommendation alert sent",
		logger.StringField("article_id", a.ID),
		logger.StringField("recommendation", string(a.Recommendation)),
		logger.IntField("confidence", a.ConfidenceScore))
}

func (s *alertService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
