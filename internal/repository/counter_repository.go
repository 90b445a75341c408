package repository

import (
	"context"
	"fmt"

	"github.com/dtapp/campus_core/internal/repository/base"
	"github.com/dtapp/campus_core/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterRepository счётчик ячеек выдачи (config/print_slots) в таблице print_slot_counter
type CounterRepository struct {
	pool *pgxpool.Pool
}

func NewCounterRepository(pool *pgxpool.Pool) *CounterRepository {
	return &CounterRepository{pool: pool}
}

// UpdateSlotCounter читает и обновляет счётчик в одной SERIALIZABLE транзакции.
// Отсутствующая запись считается нулём и создаётся при первой выдаче.
// Ошибки сериализации возвращаются обёрнутыми в service.ErrCounterConflict.
func (r *CounterRepository) UpdateSlotCounter(ctx context.Context, fn func(current int) (int, error)) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx, `
		SELECT current_slot_index
		FROM print_slot_counter
		WHERE id = 1
		FOR UPDATE
	`).Scan(&current)
	if err != nil && !base.IsNotFound(err) {
		return classifyCounterError("read slot counter", err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO print_slot_counter (id, current_slot_index)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET current_slot_index = EXCLUDED.current_slot_index
	`, next)
	if err != nil {
		return classifyCounterError("write slot counter", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyCounterError("commit slot counter", err)
	}

	return nil
}

func classifyCounterError(op string, err error) error {
	// Две первые выдачи могут одновременно вставить отсутствующую запись
	if base.IsSerializationFailure(err) || base.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %w", op, service.ErrCounterConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
