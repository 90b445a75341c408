package push

import (
	"context"
	"errors"
	"strings"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/service"
	"go.uber.org/zap"
)

// Router делит токены между каналами доставки: tg:<chat_id> уходят в Telegram,
// остальные в основной канал (FCM).
type Router struct {
	primary  service.PushSender
	telegram service.PushSender
	logger   *zap.Logger
}

// NewRouter создаёт маршрутизатор. telegram может быть nil, тогда такие токены пропускаются.
func NewRouter(primary, telegram service.PushSender, logger *zap.Logger) *Router {
	return &Router{
		primary:  primary,
		telegram: telegram,
		logger:   logger,
	}
}

func (r *Router) SendMulticast(ctx context.Context, tokens []string, msg model.PushMessage) (model.DeliveryReport, error) {
	var webTokens, chatTokens []string
	for _, token := range tokens {
		if strings.HasPrefix(token, model.TelegramTokenPrefix) {
			chatTokens = append(chatTokens, token)
		} else {
			webTokens = append(webTokens, token)
		}
	}

	if r.telegram == nil && len(chatTokens) > 0 {
		r.logger.Debug("Telegram channel disabled, skipping chat tokens", zap.Int("tokens", len(chatTokens)))
		chatTokens = nil
	}

	var (
		report model.DeliveryReport
		errs   []error
		calls  int
	)

	if len(webTokens) > 0 {
		calls++
		part, err := r.primary.SendMulticast(ctx, webTokens, msg)
		if err != nil {
			errs = append(errs, err)
		}
		report = report.Merge(part)
	}

	if len(chatTokens) > 0 {
		calls++
		part, err := r.telegram.SendMulticast(ctx, chatTokens, msg)
		if err != nil {
			errs = append(errs, err)
		}
		report = report.Merge(part)
	}

	// Ошибка канала не скрывает успешную доставку в другой канал
	if calls > 0 && len(errs) == calls {
		return report, errors.Join(errs...)
	}
	if len(errs) > 0 {
		r.logger.Warn("Push channel failed", zap.Error(errors.Join(errs...)))
	}

	return report, nil
}
