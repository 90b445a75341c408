package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrPaymentNotVerified = errors.New("payment not verified")
	ErrRatesNotConfigured = errors.New("print rates are not configured")
	ErrDeliveryFailed     = errors.New("push delivery failed")
	ErrLinkCodeInvalid    = errors.New("link code is invalid or expired")
	ErrPaymentsDisabled   = errors.New("payments are not configured")

	// ErrPaymentAlreadyUsed оплата уже превращена в заказ на печать
	ErrPaymentAlreadyUsed = fmt.Errorf("%w: payment already used", ErrPaymentNotVerified)

	// ErrCounterConflict возвращает CounterStore, когда транзакция не смогла зафиксироваться
	// из-за конкурентного изменения. Такие ошибки SlotAllocator повторяет.
	ErrCounterConflict = errors.New("slot counter update conflict")
)

// AllocationError номер ячейки выдать не удалось: повторы исчерпаны или хранилище недоступно
type AllocationError struct {
	Attempts int
	Err      error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate print slot after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}
