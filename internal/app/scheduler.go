package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReminderRunner рассылает напоминания о занятиях, начинающихся в ближайшем окне
type ReminderRunner interface {
	SendUpcomingReminders(ctx context.Context, now time.Time) (int, error)
}

// LinkCodeCleaner удаляет истёкшие коды привязки Telegram
type LinkCodeCleaner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	reminders ReminderRunner
	cleaner   LinkCodeCleaner
	interval  time.Duration
	clock     func() time.Time
	logger    *zap.Logger
	stopChan  chan struct{}
}

// NewScheduler создаёт планировщик. cleaner может быть nil.
func NewScheduler(reminders ReminderRunner, cleaner LinkCodeCleaner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		cleaner:   cleaner,
		interval:  interval,
		clock:     time.Now,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Run выполняет задачи до отмены ctx или вызова Stop
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	// Первый запуск сразу при старте
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopChan:
			s.logger.Info("Background scheduler stopped")
			return nil
		case <-ctx.Done():
			s.logger.Info("Background scheduler cancelled")
			return nil
		}
	}
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock()

	sent, err := s.reminders.SendUpcomingReminders(ctx, now)
	if err != nil {
		s.logger.Error("Failed to send class reminders", zap.Error(err))
	} else if sent > 0 {
		s.logger.Info("Class reminders sent", zap.Int("count", sent))
	}

	if s.cleaner == nil {
		return
	}
	deleted, err := s.cleaner.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Warn("Failed to delete expired link codes", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Debug("Expired link codes deleted", zap.Int64("count", deleted))
	}
}
