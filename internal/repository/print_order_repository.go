package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PrintOrderRepository заказы платёжного шлюза, выданные под печать
type PrintOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPrintOrderRepository(pool *pgxpool.Pool) *PrintOrderRepository {
	return &PrintOrderRepository{pool: pool}
}

// Create сохраняет выданный заказ
func (r *PrintOrderRepository) Create(ctx context.Context, order *model.PrintOrder) error {
	query := `
		INSERT INTO print_orders (order_id, uid, amount)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query, order.OrderID, order.UID, order.Amount).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("create print order: %w", err)
	}

	return nil
}

// GetByID получает заказ, nil если заказа нет
func (r *PrintOrderRepository) GetByID(ctx context.Context, orderID string) (*model.PrintOrder, error) {
	query := `
		SELECT order_id, uid, amount, payment_id, used_at, created_at
		FROM print_orders
		WHERE order_id = $1
	`

	var order model.PrintOrder
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&order.OrderID,
		&order.UID,
		&order.Amount,
		&order.PaymentID,
		&order.UsedAt,
		&order.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get print order: %w", err)
	}

	return &order, nil
}

// Claim закрепляет оплату за заказом. false - заказ уже использован,
// принадлежит другому студенту или платёж уже закреплён за другим заказом.
func (r *PrintOrderRepository) Claim(ctx context.Context, orderID, uid, paymentID string, now time.Time) (bool, error) {
	query := `
		UPDATE print_orders
		SET payment_id = $3, used_at = $4
		WHERE order_id = $1 AND uid = $2 AND used_at IS NULL
	`

	claimed, err := base.ExecAffected(ctx, r.pool, query, orderID, uid, paymentID, now)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim print order: %w", err)
	}

	return claimed > 0, nil
}

// Release снимает закрепление, если заказ на печать так и не был записан
func (r *PrintOrderRepository) Release(ctx context.Context, orderID string) error {
	query := `
		UPDATE print_orders
		SET payment_id = NULL, used_at = NULL
		WHERE order_id = $1
	`

	if _, err := r.pool.Exec(ctx, query, orderID); err != nil {
		return fmt.Errorf("release print order: %w", err)
	}

	return nil
}
