package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LinkCodeRepository struct {
	pool *pgxpool.Pool
}

func NewLinkCodeRepository(pool *pgxpool.Pool) *LinkCodeRepository {
	return &LinkCodeRepository{pool: pool}
}

// Create сохраняет новый код привязки
func (r *LinkCodeRepository) Create(ctx context.Context, code *model.TelegramLinkCode) error {
	query := `
		INSERT INTO telegram_link_codes (code, uid, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query, code.Code, code.UID, code.ExpiresAt).Scan(&code.CreatedAt)
	if err != nil {
		return fmt.Errorf("create link code: %w", err)
	}

	return nil
}

// Consume помечает код использованным, если он действителен на момент now
func (r *LinkCodeRepository) Consume(ctx context.Context, code string, now time.Time) (*model.TelegramLinkCode, error) {
	query := `
		UPDATE telegram_link_codes
		SET used_at = $2
		WHERE code = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING code, uid, expires_at, used_at, created_at
	`

	var linkCode model.TelegramLinkCode
	err := r.pool.QueryRow(ctx, query, code, now).Scan(
		&linkCode.Code,
		&linkCode.UID,
		&linkCode.ExpiresAt,
		&linkCode.UsedAt,
		&linkCode.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume link code: %w", err)
	}

	return &linkCode, nil
}

// DeleteExpired удаляет истёкшие и использованные коды
func (r *LinkCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM telegram_link_codes
		WHERE used_at IS NOT NULL OR expires_at <= $1
	`

	deleted, err := base.ExecAffected(ctx, r.pool, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired link codes: %w", err)
	}

	return deleted, nil
}
