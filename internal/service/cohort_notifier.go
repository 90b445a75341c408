package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"go.uber.org/zap"
)

// StudentDirectory источник записей студентов
type StudentDirectory interface {
	// ListStudents возвращает всех пользователей с ролью student без фильтра по потоку:
	// поток не хранится, он вычисляется из номера зачётки
	ListStudents(ctx context.Context) ([]*model.User, error)
}

// TokenPruner удаляет токены, которые провайдер доставки больше не принимает
type TokenPruner interface {
	PruneTokens(ctx context.Context, tokens []string) error
}

// PushSender внешний сервис доставки push-уведомлений.
// Ошибки по отдельным токенам не прерывают пакет и попадают в DeliveryReport.
type PushSender interface {
	SendMulticast(ctx context.Context, tokens []string, msg model.PushMessage) (model.DeliveryReport, error)
}

// Notifier рассылка уведомления потоку
type Notifier interface {
	Notify(ctx context.Context, class model.ClassDescriptor, msg model.PushMessage) (NotifyResult, error)
}

type NotifierConfig struct {
	Location     *time.Location
	StoreTimeout time.Duration
	PushTimeout  time.Duration
	Icon         string
}

// NotifyResult итог одной рассылки
type NotifyResult struct {
	Students int
	Matched  int
	Tokens   int
	Report   model.DeliveryReport
}

// CohortNotifier находит студентов потока по номерам зачёток и рассылает им уведомление
type CohortNotifier struct {
	students StudentDirectory
	sender   PushSender
	pruner   TokenPruner // может быть nil
	cfg      NotifierConfig
	clock    func() time.Time
	logger   *zap.Logger
}

func NewCohortNotifier(
	students StudentDirectory,
	sender PushSender,
	pruner TokenPruner,
	cfg NotifierConfig,
	logger *zap.Logger,
) *CohortNotifier {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &CohortNotifier{
		students: students,
		sender:   sender,
		pruner:   pruner,
		cfg:      cfg,
		clock:    time.Now,
		logger:   logger,
	}
}

// Notify отправляет msg всем студентам, чей номер зачётки декодируется в поток class.
// Предмет при сопоставлении не учитывается. Если получателей нет, отправки не происходит.
// Ошибки по отдельным токенам не считаются ошибкой; ErrDeliveryFailed возвращается,
// только если провайдер отклонил отправку целиком или не доставил ни одного сообщения.
func (n *CohortNotifier) Notify(ctx context.Context, class model.ClassDescriptor, msg model.PushMessage) (NotifyResult, error) {
	var result NotifyResult

	storeCtx, cancel := withTimeout(ctx, n.cfg.StoreTimeout)
	students, err := n.students.ListStudents(storeCtx)
	cancel()
	if err != nil {
		return result, fmt.Errorf("list students: %w", err)
	}
	result.Students = len(students)

	ref := n.clock().In(n.cfg.Location)
	tokens := make([]string, 0)
	seen := make(map[string]struct{})

	for _, student := range students {
		if student.RollNumber == nil || *student.RollNumber == "" {
			continue
		}

		info, ok := DecodeRollNumber(*student.RollNumber, ref)
		if !ok || !info.Class.SameCohort(class) {
			continue
		}
		result.Matched++

		for _, token := range student.FCMTokens {
			if token == "" {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	result.Tokens = len(tokens)

	if len(tokens) == 0 {
		n.logger.Info("No matching recipients",
			zap.String("cohort", class.Cohort()),
			zap.String("subject", class.Subject),
			zap.Int("students", result.Students),
			zap.Int("matched", result.Matched),
		)
		return result, nil
	}

	if msg.Icon == "" {
		msg.Icon = n.cfg.Icon
	}

	n.logger.Info("Sending notification",
		zap.String("cohort", class.Cohort()),
		zap.String("subject", class.Subject),
		zap.Int("tokens", len(tokens)),
	)

	pushCtx, cancel := withTimeout(ctx, n.cfg.PushTimeout)
	report, err := n.sender.SendMulticast(pushCtx, tokens, msg)
	cancel()
	result.Report = report
	if err != nil {
		n.logger.Error("Push delivery failed",
			zap.String("cohort", class.Cohort()),
			zap.Int("tokens", len(tokens)),
			zap.Error(err),
		)
		return result, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	n.pruneInvalid(ctx, report.InvalidTokens)

	if report.FailureCount > 0 {
		n.logger.Warn("Push delivered partially",
			zap.String("cohort", class.Cohort()),
			zap.Int("success", report.SuccessCount),
			zap.Int("failure", report.FailureCount),
		)
		if report.SuccessCount == 0 {
			return result, fmt.Errorf("%w: all %d token(s) rejected", ErrDeliveryFailed, report.FailureCount)
		}
	}

	return result, nil
}

func (n *CohortNotifier) pruneInvalid(ctx context.Context, tokens []string) {
	if n.pruner == nil || len(tokens) == 0 {
		return
	}

	storeCtx, cancel := withTimeout(ctx, n.cfg.StoreTimeout)
	defer cancel()

	if err := n.pruner.PruneTokens(storeCtx, tokens); err != nil {
		n.logger.Warn("Failed to prune invalid tokens", zap.Int("tokens", len(tokens)), zap.Error(err))
		return
	}
	n.logger.Info("Pruned invalid tokens", zap.Int("tokens", len(tokens)))
}

// withTimeout ограничивает ctx таймаутом, если он задан
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
