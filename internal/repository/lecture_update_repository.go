package repository

import (
	"context"
	"fmt"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LectureUpdateRepository struct {
	pool *pgxpool.Pool
}

func NewLectureUpdateRepository(pool *pgxpool.Pool) *LectureUpdateRepository {
	return &LectureUpdateRepository{pool: pool}
}

// Create сохраняет объявление. Триггер в БД публикует его id в канал lecture_update_created.
func (r *LectureUpdateRepository) Create(ctx context.Context, update *model.LectureUpdate) error {
	query := `
		INSERT INTO lecture_updates (id, academic_year, branch, division, subject, update_type, message, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		update.ID,
		update.ClassInfo.AcademicYear,
		update.ClassInfo.Branch,
		update.ClassInfo.Division,
		update.ClassInfo.Subject,
		update.UpdateType,
		update.Message,
		update.CreatedBy,
	).Scan(&update.CreatedAt)

	if err != nil {
		return fmt.Errorf("create lecture update: %w", err)
	}

	return nil
}

// GetByID получает объявление по id
func (r *LectureUpdateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LectureUpdate, error) {
	query := `
		SELECT id, academic_year, branch, division, subject, update_type, message, created_by, created_at
		FROM lecture_updates
		WHERE id = $1
	`

	var update model.LectureUpdate
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&update.ID,
		&update.ClassInfo.AcademicYear,
		&update.ClassInfo.Branch,
		&update.ClassInfo.Division,
		&update.ClassInfo.Subject,
		&update.UpdateType,
		&update.Message,
		&update.CreatedBy,
		&update.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lecture update: %w", err)
	}

	return &update, nil
}
