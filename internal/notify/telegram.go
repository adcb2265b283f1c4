// Package notify pushes critical alerts to Telegram. Dispatch runs on a
// worker pool behind a bounded queue so a slow Telegram API never blocks
// ingestion.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/utils"
)

// Service drains a bounded queue of critical alerts into Telegram
// messages. A nil Service is a no-op, for deployments without a bot token.
type Service struct {
	bot     *bot.Bot
	chatID  int64
	queue   chan models.Alert
	limiter *rate.Limiter
	logger  *logging.Logger
	workers int

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs the notifier. Returns nil when token is empty.
func New(token string, chatID int64, queueSize, workers int, logger *logging.Logger) (*Service, error) {
	if token == "" {
		return nil, nil
	}
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init failed: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		bot:     b,
		chatID:  chatID,
		queue:   make(chan models.Alert, queueSize),
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		logger:  logger,
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start launches the worker pool.
func (s *Service) Start(wg *sync.WaitGroup) {
	if s == nil {
		return
	}
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(id)
		}(i)
	}
}

// Stop cancels the workers.
func (s *Service) Stop() {
	if s == nil {
		return
	}
	s.cancel()
}

// QueueCritical enqueues an alert; queue-full drops are logged, never
// blocking the caller.
func (s *Service) QueueCritical(alert models.Alert) {
	if s == nil {
		return
	}
	select {
	case s.queue <- alert:
		s.logger.Infof("Queued critical alert for notification: %s", alert.ID)
	default:
		s.logger.Errorf("Notification queue full, dropping alert: %s", alert.ID)
	}
}

func (s *Service) worker(id int) {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Infof("Notify worker %d stopped", id)
			return
		case alert := <-s.queue:
			s.send(alert)
		}
	}
}

func (s *Service) send(alert models.Alert) {
	if err := s.limiter.Wait(s.ctx); err != nil {
		return
	}
	text := fmt.Sprintf("CRITICAL: %s\n%s\nResource: %s\nRegion: %s",
		alert.Title, alert.Message, alert.VM, alert.Region)

	err := utils.Retry(s.logger, 3, 2*time.Second, func() error {
		_, err := s.bot.SendMessage(s.ctx, &bot.SendMessageParams{
			ChatID: s.chatID,
			Text:   text,
		})
		return err
	})
	if err != nil {
		s.logger.Errorf("Telegram send failed for alert %s: %v", alert.ID, err)
		return
	}
	s.logger.Infof("Telegram notification sent for alert %s", alert.ID)
}
