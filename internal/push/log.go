package push

import (
	"context"

	"github.com/dtapp/campus_core/internal/model"
	"go.uber.org/zap"
)

// LogSender пишет уведомления в лог вместо отправки, для окружений без FCM
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendMulticast(_ context.Context, tokens []string, msg model.PushMessage) (model.DeliveryReport, error) {
	s.logger.Info("Push (dry run)",
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.Int("tokens", len(tokens)),
	)
	return model.DeliveryReport{SuccessCount: len(tokens)}, nil
}
