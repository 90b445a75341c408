package repository

import (
	"context"
	"fmt"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `uid, email, role, roll_number, phone, fcm_tokens, created_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.UID,
		&user.Email,
		&user.Role,
		&user.RollNumber,
		&user.Phone,
		&user.FCMTokens,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUID получает пользователя по UID
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, uid))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by uid: %w", err)
	}

	return user, nil
}

// ListStudents получает всех студентов
func (r *UserRepository) ListStudents(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY uid`

	rows, err := r.pool.Query(ctx, query, model.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return users, nil
}

// SaveProfile создаёт или обновляет профиль пользователя, токены не трогает
func (r *UserRepository) SaveProfile(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (uid, email, role, roll_number, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uid) DO UPDATE
		SET email = EXCLUDED.email,
		    role = EXCLUDED.role,
		    roll_number = EXCLUDED.roll_number,
		    phone = EXCLUDED.phone
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		user.UID,
		user.Email,
		user.Role,
		user.RollNumber,
		user.Phone,
	).Scan(&user.CreatedAt)

	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	return nil
}

// AddToken добавляет токен, если его ещё нет в списке
func (r *UserRepository) AddToken(ctx context.Context, uid, token string) error {
	query := `
		UPDATE users
		SET fcm_tokens = array_append(fcm_tokens, $2)
		WHERE uid = $1 AND NOT ($2 = ANY(fcm_tokens))
	`

	if _, err := r.pool.Exec(ctx, query, uid, token); err != nil {
		return fmt.Errorf("add token: %w", err)
	}

	return nil
}

// RemoveToken удаляет токен пользователя
func (r *UserRepository) RemoveToken(ctx context.Context, uid, token string) error {
	query := `
		UPDATE users
		SET fcm_tokens = array_remove(fcm_tokens, $2)
		WHERE uid = $1
	`

	if _, err := r.pool.Exec(ctx, query, uid, token); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}

	return nil
}

// PruneTokens удаляет перечисленные токены у всех пользователей
func (r *UserRepository) PruneTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	query := `
		UPDATE users
		SET fcm_tokens = ARRAY(
			SELECT t FROM unnest(fcm_tokens) WITH ORDINALITY AS u(t, pos)
			WHERE NOT (t = ANY($1::text[]))
			ORDER BY pos
		)
		WHERE fcm_tokens && $1::text[]
	`

	if _, err := r.pool.Exec(ctx, query, tokens); err != nil {
		return fmt.Errorf("prune tokens: %w", err)
	}

	return nil
}
