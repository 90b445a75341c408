package repository

import (
	"context"
	"fmt"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RatesRepository struct {
	pool *pgxpool.Pool
}

func NewRatesRepository(pool *pgxpool.Pool) *RatesRepository {
	return &RatesRepository{pool: pool}
}

// Get получает тарифы печати, nil если они ещё не заданы
func (r *RatesRepository) Get(ctx context.Context) (*model.PrintRates, error) {
	query := `
		SELECT per_page_bw, per_page_color, double_sided_multiplier, stapling_fee
		FROM print_rates
		WHERE id = 1
	`

	var rates model.PrintRates
	err := r.pool.QueryRow(ctx, query).Scan(
		&rates.PerPageBW,
		&rates.PerPageColor,
		&rates.DoubleSidedMultiplier,
		&rates.StaplingFee,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get print rates: %w", err)
	}

	return &rates, nil
}

// Upsert сохраняет тарифы
func (r *RatesRepository) Upsert(ctx context.Context, rates model.PrintRates) error {
	query := `
		INSERT INTO print_rates (id, per_page_bw, per_page_color, double_sided_multiplier, stapling_fee)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET per_page_bw = EXCLUDED.per_page_bw,
		    per_page_color = EXCLUDED.per_page_color,
		    double_sided_multiplier = EXCLUDED.double_sided_multiplier,
		    stapling_fee = EXCLUDED.stapling_fee,
		    updated_at = now()
	`

	_, err := r.pool.Exec(
		ctx, query,
		rates.PerPageBW,
		rates.PerPageColor,
		rates.DoubleSidedMultiplier,
		rates.StaplingFee,
	)
	if err != nil {
		return fmt.Errorf("upsert print rates: %w", err)
	}

	return nil
}
