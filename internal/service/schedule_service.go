package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleStore хранилище регулярных занятий
type ScheduleStore interface {
	ScheduleSource
	Create(ctx context.Context, schedule *model.Schedule) error
	ListAll(ctx context.Context) ([]*model.Schedule, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type ScheduleService struct {
	schedules ScheduleStore
	logger    *zap.Logger
}

func NewScheduleService(schedules ScheduleStore, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		schedules: schedules,
		logger:    logger,
	}
}

// CreateSchedule добавляет регулярное занятие (преподаватель или администратор)
func (s *ScheduleService) CreateSchedule(ctx context.Context, actor *model.User, schedule *model.Schedule) error {
	if !actor.HasRole(model.RoleTeacher, model.RoleAdmin) {
		return ErrForbidden
	}

	schedule.Venue = strings.TrimSpace(schedule.Venue)
	if schedule.DayOfWeek < 0 || schedule.DayOfWeek > 6 || schedule.Venue == "" {
		return ErrInvalidInput
	}
	if _, _, err := model.ParseClock(schedule.StartTime); err != nil {
		return ErrInvalidInput
	}
	class := schedule.ClassInfo
	if class.AcademicYear == "" || class.Branch == "" || class.Division == "" || class.Subject == "" {
		return ErrInvalidInput
	}

	schedule.ID = uuid.New()
	schedule.CreatedBy = actor.UID

	if err := s.schedules.Create(ctx, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	s.logger.Info("Schedule created",
		zap.String("schedule_id", schedule.ID.String()),
		zap.Int("day_of_week", schedule.DayOfWeek),
		zap.String("start_time", schedule.StartTime),
		zap.String("cohort", class.Cohort()),
	)
	return nil
}

// ListSchedules занятия за день недели или все, если day == nil
func (s *ScheduleService) ListSchedules(ctx context.Context, day *int) ([]*model.Schedule, error) {
	if day == nil {
		return s.schedules.ListAll(ctx)
	}
	if *day < 0 || *day > 6 {
		return nil, ErrInvalidInput
	}
	return s.schedules.ListByDay(ctx, *day)
}

// DeleteSchedule удаляет занятие
func (s *ScheduleService) DeleteSchedule(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if !actor.HasRole(model.RoleTeacher, model.RoleAdmin) {
		return ErrForbidden
	}

	deleted, err := s.schedules.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	s.logger.Info("Schedule deleted", zap.String("schedule_id", id.String()))
	return nil
}
