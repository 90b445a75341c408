package repository

import (
	"context"
	"fmt"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/repository/base"
	"github.com/dtapp/campus_core/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const printJobColumns = `
	id, submitted_by_id, submitted_by_email, slot_id, files,
	copies, color, sided, is_stapled, instructions, total_page_count,
	status, payment_id, COALESCE(order_id, ''), payment_amount, payment_status, submitted_at`

type PrintJobRepository struct {
	pool *pgxpool.Pool
}

func NewPrintJobRepository(pool *pgxpool.Pool) *PrintJobRepository {
	return &PrintJobRepository{pool: pool}
}

// Create сохраняет заказ на печать
func (r *PrintJobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (
			id, submitted_by_id, submitted_by_email, slot_id, files,
			copies, color, sided, is_stapled, instructions, total_page_count,
			status, payment_id, order_id, payment_amount, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''), $15, $16)
		RETURNING submitted_at
	`

	prefs := job.Preferences
	err := r.pool.QueryRow(
		ctx, query,
		job.ID,
		job.SubmittedByID,
		job.SubmittedByEmail,
		job.SlotID,
		job.Files,
		prefs.Copies,
		prefs.Color,
		prefs.Sided,
		prefs.IsStapled,
		prefs.Instructions,
		prefs.TotalPageCount,
		job.Status,
		job.PaymentID,
		job.OrderID,
		job.PaymentAmount,
		job.PaymentStatus,
	).Scan(&job.SubmittedAt)

	if err != nil {
		// Одна оплата - один заказ на печать
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create print job: %w", service.ErrPaymentAlreadyUsed)
		}
		return fmt.Errorf("create print job: %w", err)
	}

	return nil
}

// ListBySubmitter получает заказы студента, новые первыми
func (r *PrintJobRepository) ListBySubmitter(ctx context.Context, uid string) ([]*model.PrintJob, error) {
	query := `SELECT ` + printJobColumns + ` FROM print_jobs WHERE submitted_by_id = $1 ORDER BY submitted_at DESC`
	return r.list(ctx, "list print jobs by submitter", query, uid)
}

// List получает все заказы, опционально с фильтром по статусу
func (r *PrintJobRepository) List(ctx context.Context, status *model.JobStatus) ([]*model.PrintJob, error) {
	if status == nil {
		query := `SELECT ` + printJobColumns + ` FROM print_jobs ORDER BY submitted_at DESC`
		return r.list(ctx, "list print jobs", query)
	}

	query := `SELECT ` + printJobColumns + ` FROM print_jobs WHERE status = $1 ORDER BY submitted_at DESC`
	return r.list(ctx, "list print jobs by status", query, *status)
}

// UpdateStatus меняет статус заказа, false если заказа нет
func (r *PrintJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.JobStatus) (bool, error) {
	updated, err := base.ExecAffected(ctx, r.pool, `UPDATE print_jobs SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return false, fmt.Errorf("update print job status: %w", err)
	}
	return updated > 0, nil
}

func (r *PrintJobRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.PrintJob, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var jobs []*model.PrintJob
	for rows.Next() {
		job, err := scanPrintJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan print job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate print jobs: %w", err)
	}

	return jobs, nil
}

func scanPrintJob(row pgx.Row) (*model.PrintJob, error) {
	var job model.PrintJob
	err := row.Scan(
		&job.ID,
		&job.SubmittedByID,
		&job.SubmittedByEmail,
		&job.SlotID,
		&job.Files,
		&job.Preferences.Copies,
		&job.Preferences.Color,
		&job.Preferences.Sided,
		&job.Preferences.IsStapled,
		&job.Preferences.Instructions,
		&job.Preferences.TotalPageCount,
		&job.Status,
		&job.PaymentID,
		&job.OrderID,
		&job.PaymentAmount,
		&job.PaymentStatus,
		&job.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
