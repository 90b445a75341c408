package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender часть *bot.Bot для отправки сообщений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramSender доставляет уведомления в привязанные чаты Telegram.
// Токен получателя имеет вид tg:<chat_id>.
type TelegramSender struct {
	bot    MessageSender
	logger *zap.Logger
}

func NewTelegramSender(b MessageSender, logger *zap.Logger) *TelegramSender {
	return &TelegramSender{
		bot:    b,
		logger: logger,
	}
}

func (s *TelegramSender) SendMulticast(ctx context.Context, tokens []string, msg model.PushMessage) (model.DeliveryReport, error) {
	var report model.DeliveryReport
	text := fmt.Sprintf("🔔 %s\n\n%s", msg.Title, msg.Body)

	for _, token := range tokens {
		chatID, ok := model.ParseTelegramChatToken(token)
		if !ok {
			report.FailureCount++
			report.InvalidTokens = append(report.InvalidTokens, token)
			continue
		}

		_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		})
		if err != nil {
			report.FailureCount++
			// Пользователь заблокировал бота или чат удалён
			if errors.Is(err, bot.ErrorForbidden) {
				report.InvalidTokens = append(report.InvalidTokens, token)
			}
			s.logger.Warn("Failed to send telegram notification",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			continue
		}
		report.SuccessCount++
	}

	return report, nil
}
