package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// RatesStore хранилище тарифов печати
type RatesStore interface {
	Get(ctx context.Context) (*model.PrintRates, error) // nil, nil - тарифы не заданы
	Upsert(ctx context.Context, rates model.PrintRates) error
}

// PrintJobStore хранилище заказов на печать
type PrintJobStore interface {
	Create(ctx context.Context, job *model.PrintJob) error
	ListBySubmitter(ctx context.Context, uid string) ([]*model.PrintJob, error)
	List(ctx context.Context, status *model.JobStatus) ([]*model.PrintJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.JobStatus) (bool, error)
}

// PrintOrderStore заказы платёжного шлюза, выданные под печать
type PrintOrderStore interface {
	Create(ctx context.Context, order *model.PrintOrder) error
	GetByID(ctx context.Context, orderID string) (*model.PrintOrder, error) // nil, nil - заказа нет
	// Claim атомарно закрепляет платёж за неиспользованным заказом студента
	Claim(ctx context.Context, orderID, uid, paymentID string, now time.Time) (bool, error)
	Release(ctx context.Context, orderID string) error
}

// SlotIssuer выдаёт номер ячейки для заказа
type SlotIssuer interface {
	Allocate(ctx context.Context) (model.SlotID, error)
}

// SubmitJobRequest заказ на печать после оплаты
type SubmitJobRequest struct {
	Files       []model.PrintFile
	Preferences model.PrintPreferences
	OrderID     string
	PaymentID   string
	Signature   string
}

type PrintService struct {
	rates    RatesStore
	jobs     PrintJobStore
	orders   PrintOrderStore
	slots    SlotIssuer
	payments PaymentGateway
	clock    func() time.Time
	logger   *zap.Logger
}

func NewPrintService(
	rates RatesStore,
	jobs PrintJobStore,
	orders PrintOrderStore,
	slots SlotIssuer,
	payments PaymentGateway,
	logger *zap.Logger,
) *PrintService {
	return &PrintService{
		rates:    rates,
		jobs:     jobs,
		orders:   orders,
		slots:    slots,
		payments: payments,
		clock:    time.Now,
		logger:   logger,
	}
}

// GetRates возвращает тарифы или ErrRatesNotConfigured
func (s *PrintService) GetRates(ctx context.Context) (*model.PrintRates, error) {
	rates, err := s.rates.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get print rates: %w", err)
	}
	if rates == nil {
		return nil, ErrRatesNotConfigured
	}
	return rates, nil
}

// SetRates создаёт или обновляет тарифы (только staff и admin)
func (s *PrintService) SetRates(ctx context.Context, actor *model.User, rates model.PrintRates) error {
	if !actor.HasRole(model.RoleStaff, model.RoleAdmin) {
		return ErrForbidden
	}
	if rates.PerPageBW < 0 || rates.PerPageColor < 0 || rates.StaplingFee < 0 || rates.DoubleSidedMultiplier <= 0 {
		return ErrInvalidInput
	}

	if err := s.rates.Upsert(ctx, rates); err != nil {
		return fmt.Errorf("upsert print rates: %w", err)
	}

	s.logger.Info("Print rates updated",
		zap.String("uid", actor.UID),
		zap.Float64("per_page_bw", rates.PerPageBW),
		zap.Float64("per_page_color", rates.PerPageColor),
	)
	return nil
}

// Quote считает стоимость заказа по текущим тарифам
func (s *PrintService) Quote(ctx context.Context, prefs model.PrintPreferences) (float64, error) {
	if err := validatePreferences(prefs); err != nil {
		return 0, err
	}
	rates, err := s.GetRates(ctx)
	if err != nil {
		return 0, err
	}
	return rates.Quote(prefs), nil
}

// CreateOrder создаёт заказ в платёжном шлюзе на сумму, посчитанную на сервере
func (s *PrintService) CreateOrder(ctx context.Context, actor *model.User, prefs model.PrintPreferences) (*PaymentOrder, error) {
	if !actor.HasRole(model.RoleStudent) {
		return nil, ErrForbidden
	}

	total, err := s.Quote(ctx, prefs)
	if err != nil {
		return nil, err
	}
	amount := toPaise(total)
	if amount <= 0 {
		return nil, ErrInvalidInput
	}

	order, err := s.payments.CreateOrder(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	// Сумма фиксируется на сервере: при отправке заказа сверяется с пересчитанной стоимостью
	if err := s.orders.Create(ctx, &model.PrintOrder{
		OrderID: order.ID,
		UID:     actor.UID,
		Amount:  amount,
	}); err != nil {
		return nil, fmt.Errorf("save payment order: %w", err)
	}

	s.logger.Info("Payment order created",
		zap.String("uid", actor.UID),
		zap.String("order_id", order.ID),
		zap.Int64("amount", amount),
	)
	return order, nil
}

// SubmitJob записывает заказ на печать. Порядок: проверка оплаты, закрепление платежа
// за заказом, выдача ячейки, запись. Повторная отправка той же оплаты ячейку не расходует.
func (s *PrintService) SubmitJob(ctx context.Context, actor *model.User, req SubmitJobRequest) (*model.PrintJob, error) {
	if !actor.HasRole(model.RoleStudent) {
		return nil, ErrForbidden
	}
	if len(req.Files) == 0 {
		return nil, ErrInvalidInput
	}
	if err := validatePreferences(req.Preferences); err != nil {
		return nil, err
	}

	log := s.logger.With(
		zap.String("uid", actor.UID),
		zap.String("order_id", req.OrderID),
		zap.String("payment_id", req.PaymentID),
	)

	if !s.payments.VerifyPayment(req.OrderID, req.PaymentID, req.Signature) {
		log.Warn("Payment verification failed")
		return nil, ErrPaymentNotVerified
	}

	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get payment order: %w", err)
	}
	if order == nil || order.UID != actor.UID {
		log.Warn("Payment order not issued to this student")
		return nil, ErrPaymentNotVerified
	}

	rates, err := s.GetRates(ctx)
	if err != nil {
		return nil, err
	}
	if amount := toPaise(rates.Quote(req.Preferences)); amount != order.Amount {
		log.Warn("Paid amount does not match print preferences",
			zap.Int64("paid", order.Amount),
			zap.Int64("quoted", amount),
		)
		return nil, ErrPaymentNotVerified
	}

	claimed, err := s.orders.Claim(ctx, order.OrderID, actor.UID, req.PaymentID, s.clock())
	if err != nil {
		return nil, fmt.Errorf("claim payment order: %w", err)
	}
	if !claimed {
		log.Warn("Payment already used for a print job")
		return nil, ErrPaymentAlreadyUsed
	}

	slotID, err := s.slots.Allocate(ctx)
	if err != nil {
		s.releaseOrder(ctx, order.OrderID)
		return nil, err
	}

	job := &model.PrintJob{
		ID:               uuid.New(),
		SubmittedByID:    actor.UID,
		SubmittedByEmail: actor.Email,
		SlotID:           slotID,
		Files:            req.Files,
		Preferences:      req.Preferences,
		Status:           model.JobStatusInProgress,
		PaymentID:        req.PaymentID,
		OrderID:          order.OrderID,
		PaymentAmount:    order.AmountRupees(),
		PaymentStatus:    model.PaymentStatusPaid,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		// Ячейка уже выдана и не возвращается: повторное использование номеров допускается
		log.Error("Failed to record print job after payment",
			zap.String("slot_id", slotID.String()),
			zap.Error(err),
		)
		if !errors.Is(err, ErrPaymentAlreadyUsed) {
			s.releaseOrder(ctx, order.OrderID)
		}
		return nil, fmt.Errorf("create print job: %w", err)
	}

	log.Info("Print job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("slot_id", slotID.String()),
		zap.Float64("amount", job.PaymentAmount),
	)

	return job, nil
}

// releaseOrder возвращает оплату студенту для повторной отправки
func (s *PrintService) releaseOrder(ctx context.Context, orderID string) {
	if err := s.orders.Release(ctx, orderID); err != nil {
		s.logger.Error("Failed to release payment order",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

// ListMyJobs заказы пользователя, новые первыми
func (s *PrintService) ListMyJobs(ctx context.Context, actor *model.User) ([]*model.PrintJob, error) {
	jobs, err := s.jobs.ListBySubmitter(ctx, actor.UID)
	if err != nil {
		return nil, fmt.Errorf("list jobs by submitter: %w", err)
	}
	return jobs, nil
}

// ListJobs все заказы для сотрудников, с необязательным фильтром по статусу
func (s *PrintService) ListJobs(ctx context.Context, actor *model.User, status *model.JobStatus) ([]*model.PrintJob, error) {
	if !actor.HasRole(model.RoleStaff, model.RoleAdmin) {
		return nil, ErrForbidden
	}
	if status != nil && !status.Valid() {
		return nil, ErrInvalidInput
	}

	jobs, err := s.jobs.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJobStatus меняет статус заказа (In Progress -> Ready -> Collected)
func (s *PrintService) UpdateJobStatus(ctx context.Context, actor *model.User, id uuid.UUID, status model.JobStatus) error {
	if !actor.HasRole(model.RoleStaff, model.RoleAdmin) {
		return ErrForbidden
	}
	if !status.Valid() {
		return ErrInvalidInput
	}

	updated, err := s.jobs.UpdateStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if !updated {
		return ErrNotFound
	}

	s.logger.Info("Print job status updated",
		zap.String("job_id", id.String()),
		zap.String("status", string(status)),
		zap.String("uid", actor.UID),
	)
	return nil
}

var exportHeader = []interface{}{
	"Job ID", "Slot", "Student", "Email", "Status", "Pages", "Copies", "Color", "Sided",
	"Stapled", "Instructions", "Files", "Payment ID", "Amount", "Submitted At",
}

// ExportJobs выгружает заказы в xlsx
func (s *PrintService) ExportJobs(ctx context.Context, actor *model.User, status *model.JobStatus, w io.Writer) error {
	jobs, err := s.ListJobs(ctx, actor, status)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Print Jobs"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, job := range jobs {
		fileNames := make([]string, 0, len(job.Files))
		for _, file := range job.Files {
			fileNames = append(fileNames, file.FileName)
		}

		row := []interface{}{
			job.ID.String(),
			job.SlotID.String(),
			job.SubmittedByID,
			job.SubmittedByEmail,
			string(job.Status),
			job.Preferences.TotalPageCount,
			job.Preferences.Copies,
			job.Preferences.Color,
			job.Preferences.Sided,
			job.Preferences.IsStapled,
			job.Preferences.Instructions,
			strings.Join(fileNames, ", "),
			job.PaymentID,
			job.PaymentAmount,
			job.SubmittedAt.Format("2006-01-02 15:04"),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func validatePreferences(prefs model.PrintPreferences) error {
	if prefs.Copies < 1 || prefs.TotalPageCount < 1 {
		return ErrInvalidInput
	}
	if prefs.Color != model.ColorBW && prefs.Color != model.ColorColor {
		return ErrInvalidInput
	}
	if prefs.Sided != model.SidedSingle && prefs.Sided != model.SidedDouble {
		return ErrInvalidInput
	}
	return nil
}

func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// IsAllocationError проверяет что err - ошибка выдачи ячейки
func IsAllocationError(err error) bool {
	var allocErr *AllocationError
	return errors.As(err, &allocErr)
}
