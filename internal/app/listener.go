package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// UpdateChannel канал NOTIFY, в который триггер lecture_updates пишет id новой записи
const UpdateChannel = "lecture_update_created"

// UpdateHandler обрабатывает созданное объявление
type UpdateHandler interface {
	HandleUpdateCreated(ctx context.Context, id uuid.UUID) error
}

// UpdateListener держит выделенное соединение с LISTEN и передаёт id новых объявлений обработчику
type UpdateListener struct {
	pool       *pgxpool.Pool
	handler    UpdateHandler
	logger     *zap.Logger
	retryBase  time.Duration
	retryLimit time.Duration
}

func NewUpdateListener(pool *pgxpool.Pool, handler UpdateHandler, logger *zap.Logger) *UpdateListener {
	return &UpdateListener{
		pool:       pool,
		handler:    handler,
		logger:     logger,
		retryBase:  time.Second,
		retryLimit: 30 * time.Second,
	}
}

// Run слушает канал до отмены ctx, переподключаясь после обрыва соединения
func (l *UpdateListener) Run(ctx context.Context) error {
	backoff := retry.WithCappedDuration(l.retryLimit, retry.NewExponential(l.retryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := l.listen(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("Update listener disconnected, reconnecting", zap.Error(err))
		return retry.RetryableError(err)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("update listener: %w", err)
	}

	l.logger.Info("Update listener stopped")
	return nil
}

func (l *UpdateListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+UpdateChannel); err != nil {
		return fmt.Errorf("listen %s: %w", UpdateChannel, err)
	}
	l.logger.Info("Listening for lecture updates", zap.String("channel", UpdateChannel))

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Соединение в неизвестном состоянии, в пул его не возвращаем
			_ = conn.Conn().Close(context.Background())
			return fmt.Errorf("wait for notification: %w", err)
		}

		l.dispatch(ctx, notification.Payload)
	}
}

func (l *UpdateListener) dispatch(ctx context.Context, payload string) {
	id, err := uuid.Parse(payload)
	if err != nil {
		l.logger.Warn("Malformed update notification", zap.String("payload", payload))
		return
	}

	if err := l.handler.HandleUpdateCreated(ctx, id); err != nil {
		l.logger.Error("Failed to handle lecture update",
			zap.String("update_id", id.String()),
			zap.Error(err),
		)
	}
}
