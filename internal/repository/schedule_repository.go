package repository

import (
	"context"
	"fmt"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const scheduleColumns = `id, day_of_week, start_time, venue, academic_year, branch, division, subject, created_by, created_at`

type ScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// Create создаёт регулярное занятие
func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	query := `
		INSERT INTO schedules (id, day_of_week, start_time, venue, academic_year, branch, division, subject, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		schedule.ID,
		schedule.DayOfWeek,
		schedule.StartTime,
		schedule.Venue,
		schedule.ClassInfo.AcademicYear,
		schedule.ClassInfo.Branch,
		schedule.ClassInfo.Division,
		schedule.ClassInfo.Subject,
		schedule.CreatedBy,
	).Scan(&schedule.CreatedAt)

	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	return nil
}

// ListByDay получает занятия дня недели (0 = воскресенье)
func (r *ScheduleRepository) ListByDay(ctx context.Context, dayOfWeek int) ([]*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE day_of_week = $1 ORDER BY start_time`
	return r.list(ctx, "list schedules by day", query, dayOfWeek)
}

// ListAll получает все занятия
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules ORDER BY day_of_week, start_time`
	return r.list(ctx, "list schedules", query)
}

// Delete удаляет занятие, false если его не было
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := base.ExecAffected(ctx, r.pool, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	return deleted > 0, nil
}

func (r *ScheduleRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Schedule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}

	return schedules, nil
}

func scanSchedule(row pgx.Row) (*model.Schedule, error) {
	var schedule model.Schedule
	err := row.Scan(
		&schedule.ID,
		&schedule.DayOfWeek,
		&schedule.StartTime,
		&schedule.Venue,
		&schedule.ClassInfo.AcademicYear,
		&schedule.ClassInfo.Branch,
		&schedule.ClassInfo.Division,
		&schedule.ClassInfo.Subject,
		&schedule.CreatedBy,
		&schedule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}
