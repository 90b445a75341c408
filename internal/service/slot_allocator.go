package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Количество букв для групп ячеек: A..Z
const maxSlotGroups = 26

// CounterStore хранилище счётчика ячеек выдачи
type CounterStore interface {
	// UpdateSlotCounter в одной сериализуемой транзакции читает текущий индекс
	// (отсутствие записи считается нулём), вызывает fn и записывает возвращённый индекс.
	// Если транзакция не зафиксировалась из-за конкурентного изменения, ошибка оборачивает ErrCounterConflict.
	UpdateSlotCounter(ctx context.Context, fn func(current int) (next int, err error)) error
}

type SlotAllocatorConfig struct {
	MaxSlots      int
	SlotsPerGroup int
	MaxRetries    int
	RetryBase     time.Duration
	Timeout       time.Duration // ограничение на одну попытку, 0 - без ограничения
}

// SlotAllocator выдаёт номера ячеек для заказов на печать по кругу
type SlotAllocator struct {
	store  CounterStore
	cfg    SlotAllocatorConfig
	logger *zap.Logger
}

func NewSlotAllocator(store CounterStore, cfg SlotAllocatorConfig, logger *zap.Logger) (*SlotAllocator, error) {
	if cfg.SlotsPerGroup <= 0 || cfg.MaxSlots <= 0 {
		return nil, fmt.Errorf("slot allocator: max slots and slots per group must be positive")
	}
	if cfg.MaxSlots > cfg.SlotsPerGroup*maxSlotGroups {
		return nil, fmt.Errorf("slot allocator: max slots %d exceeds %d groups of %d",
			cfg.MaxSlots, maxSlotGroups, cfg.SlotsPerGroup)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 20 * time.Millisecond
	}

	return &SlotAllocator{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Render возвращает номер ячейки для индекса счётчика
func (a *SlotAllocator) Render(index int) model.SlotID {
	return model.RenderSlotID(index, a.cfg.SlotsPerGroup)
}

// Allocate выдаёт следующий номер ячейки.
// Номер всегда строится из значения счётчика до инкремента. При исчерпании повторов
// или недоступности хранилища возвращает *AllocationError.
func (a *SlotAllocator) Allocate(ctx context.Context) (model.SlotID, error) {
	var (
		slot     model.SlotID
		attempts int
	)

	backoff := retry.WithMaxRetries(uint64(a.cfg.MaxRetries), retry.NewExponential(a.cfg.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		attemptCtx, cancel := withTimeout(ctx, a.cfg.Timeout)
		defer cancel()

		err := a.store.UpdateSlotCounter(attemptCtx, func(current int) (int, error) {
			current = a.normalize(current)
			slot = a.Render(current)
			return (current + 1) % a.cfg.MaxSlots, nil
		})
		if errors.Is(err, ErrCounterConflict) {
			a.logger.Debug("Slot counter conflict, retrying", zap.Int("attempt", attempts))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		a.logger.Error("Failed to allocate print slot",
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return "", &AllocationError{Attempts: attempts, Err: err}
	}

	a.logger.Info("Print slot allocated",
		zap.String("slot_id", slot.String()),
		zap.Int("attempts", attempts),
	)

	return slot, nil
}

// normalize возвращает сохранённый индекс в диапазон [0, MaxSlots),
// например после уменьшения SLOT_MAX в конфигурации
func (a *SlotAllocator) normalize(index int) int {
	index %= a.cfg.MaxSlots
	if index < 0 {
		index += a.cfg.MaxSlots
	}
	return index
}
