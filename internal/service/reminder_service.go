package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"go.uber.org/zap"
)

// ScheduleSource источник регулярных занятий
type ScheduleSource interface {
	ListByDay(ctx context.Context, dayOfWeek int) ([]*model.Schedule, error)
}

// ReminderGuard защищает от повторной отправки напоминания об одном и том же занятии.
// Acquire возвращает true, если ключ занят впервые.
type ReminderGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type ReminderConfig struct {
	Location     *time.Location
	Lookahead    time.Duration
	StoreTimeout time.Duration
}

// ReminderService рассылает напоминания о занятиях, которые скоро начнутся
type ReminderService struct {
	schedules ScheduleSource
	notifier  Notifier
	guard     ReminderGuard // nil - без защиты от повторов
	cfg       ReminderConfig
	logger    *zap.Logger
}

func NewReminderService(
	schedules ScheduleSource,
	notifier Notifier,
	guard ReminderGuard,
	cfg ReminderConfig,
	logger *zap.Logger,
) *ReminderService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = 10 * time.Minute
	}

	return &ReminderService{
		schedules: schedules,
		notifier:  notifier,
		guard:     guard,
		cfg:       cfg,
		logger:    logger,
	}
}

// SendUpcomingReminders находит занятия текущего дня недели, начинающиеся в окне
// (now, now+lookahead], и рассылает напоминания их потокам.
// Ошибки доставки только логируются. Возвращает число занятий, по которым была рассылка.
func (s *ReminderService) SendUpcomingReminders(ctx context.Context, now time.Time) (int, error) {
	localNow := now.In(s.cfg.Location)
	windowEnd := localNow.Add(s.cfg.Lookahead)
	dayOfWeek := int(localNow.Weekday())

	storeCtx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	schedules, err := s.schedules.ListByDay(storeCtx, dayOfWeek)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("list schedules for day %d: %w", dayOfWeek, err)
	}

	if len(schedules) == 0 {
		s.logger.Debug("No classes scheduled for today", zap.Int("day_of_week", dayOfWeek))
		return 0, nil
	}

	sent := 0
	for _, schedule := range schedules {
		startAt, err := schedule.StartOn(localNow)
		if err != nil {
			s.logger.Warn("Skipping schedule with invalid start time",
				zap.String("schedule_id", schedule.ID.String()),
				zap.String("start_time", schedule.StartTime),
				zap.Error(err),
			)
			continue
		}

		if !startAt.After(localNow) || startAt.After(windowEnd) {
			continue
		}

		if !s.acquire(ctx, schedule, startAt) {
			continue
		}

		s.logger.Info("Found upcoming class",
			zap.String("schedule_id", schedule.ID.String()),
			zap.String("subject", schedule.ClassInfo.Subject),
			zap.String("start_time", schedule.StartTime),
		)

		_, err = s.notifier.Notify(ctx, schedule.ClassInfo, s.reminderMessage(schedule))
		if err != nil {
			s.logger.Error("Failed to send class reminder",
				zap.String("schedule_id", schedule.ID.String()),
				zap.Error(err),
			)
		}
		sent++
	}

	return sent, nil
}

func (s *ReminderService) reminderMessage(schedule *model.Schedule) model.PushMessage {
	return model.PushMessage{
		Title: fmt.Sprintf("Class Reminder: %s", schedule.ClassInfo.Subject),
		Body: fmt.Sprintf("Your class at %s is starting in %d minutes in %s.",
			schedule.StartTime, int(s.cfg.Lookahead.Minutes()), schedule.Venue),
	}
}

// acquire проверяет защиту от повторов. Без guard всегда разрешает отправку.
// Если хранилище guard недоступно, напоминание всё равно отправляется.
func (s *ReminderService) acquire(ctx context.Context, schedule *model.Schedule, startAt time.Time) bool {
	if s.guard == nil {
		return true
	}

	key := fmt.Sprintf("reminder:%s:%s", schedule.ID, startAt.Format("2006-01-02T15:04"))
	ok, err := s.guard.Acquire(ctx, key, 2*s.cfg.Lookahead)
	if err != nil {
		s.logger.Warn("Reminder guard unavailable, sending anyway", zap.String("key", key), zap.Error(err))
		return true
	}
	if !ok {
		s.logger.Debug("Reminder already sent", zap.String("key", key))
	}
	return ok
}
