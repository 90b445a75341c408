package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/dtapp/campus_core/internal/model"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// maxMulticastTokens ограничение FCM на один вызов SendEachForMulticast
const maxMulticastTokens = 500

// MulticastClient часть *messaging.Client, которая нужна для рассылки
type MulticastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// tokenFault причина отказа FCM по одному токену
type tokenFault int

const (
	faultTransient tokenFault = iota
	faultUnregistered
	// faultInvalidArgument FCM отвечает так и на битый токен, и на слишком большое или неверное сообщение
	faultInvalidArgument
)

// FCMSender отправляет web push через Firebase Cloud Messaging
type FCMSender struct {
	client   MulticastClient
	classify func(err error) tokenFault
	logger   *zap.Logger
}

func NewFCMSender(client MulticastClient, logger *zap.Logger) *FCMSender {
	return &FCMSender{
		client:   client,
		classify: classifyFCMError,
		logger:   logger,
	}
}

// NewMessagingClient создаёт клиента FCM по сервисному аккаунту.
// Без файла используются Application Default Credentials.
func NewMessagingClient(ctx context.Context, projectID, credentialsFile string) (*messaging.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}

	return client, nil
}

// SendMulticast отправляет msg на все токены пачками по 500.
// Ошибка возвращается, только если не удалось отправить ни одной пачки.
func (s *FCMSender) SendMulticast(ctx context.Context, tokens []string, msg model.PushMessage) (model.DeliveryReport, error) {
	var (
		report   model.DeliveryReport
		failures []error
		batches  int
	)

	for start := 0; start < len(tokens); start += maxMulticastTokens {
		end := min(start+maxMulticastTokens, len(tokens))
		chunk := tokens[start:end]
		batches++

		resp, err := s.client.SendEachForMulticast(ctx, buildMulticast(chunk, msg))
		if err != nil {
			s.logger.Warn("FCM batch failed",
				zap.Int("tokens", len(chunk)),
				zap.Error(err),
			)
			report.FailureCount += len(chunk)
			failures = append(failures, err)
			continue
		}

		report = report.Merge(s.batchReport(chunk, resp))
	}

	if batches > 0 && len(failures) == batches {
		return report, fmt.Errorf("fcm send: %w", errors.Join(failures...))
	}

	return report, nil
}

func buildMulticast(tokens []string, msg model.PushMessage) *messaging.MulticastMessage {
	multicast := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
	}
	if msg.Icon != "" {
		multicast.Webpush = &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: msg.Title,
				Body:  msg.Body,
				Icon:  msg.Icon,
			},
		}
	}
	return multicast
}

// batchReport сопоставляет ответы с токенами по порядку.
// INVALID_ARGUMENT считается отказом токена, только если часть пачки доставлена:
// если отказали все, виновато сообщение, и токены не удаляются.
func (s *FCMSender) batchReport(tokens []string, resp *messaging.BatchResponse) model.DeliveryReport {
	report := model.DeliveryReport{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
	}

	var rejected []string
	for i, r := range resp.Responses {
		if r == nil || r.Success || i >= len(tokens) {
			continue
		}
		switch s.classify(r.Error) {
		case faultUnregistered:
			report.InvalidTokens = append(report.InvalidTokens, tokens[i])
		case faultInvalidArgument:
			rejected = append(rejected, tokens[i])
		}
	}

	if len(rejected) > 0 {
		if resp.SuccessCount > 0 {
			report.InvalidTokens = append(report.InvalidTokens, rejected...)
		} else {
			s.logger.Warn("FCM rejected the message for the whole batch, keeping tokens",
				zap.Int("tokens", len(rejected)),
			)
		}
	}

	return report
}

func classifyFCMError(err error) tokenFault {
	switch {
	case err == nil:
		return faultTransient
	case messaging.IsRegistrationTokenNotRegistered(err), messaging.IsUnregistered(err):
		return faultUnregistered
	case messaging.IsInvalidArgument(err):
		return faultInvalidArgument
	default:
		return faultTransient
	}
}
