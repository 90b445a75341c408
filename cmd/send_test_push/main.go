package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dtapp/campus_core/internal/app"
	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/push"
	"github.com/dtapp/campus_core/internal/service"
	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Отправляет тестовое уведомление на один токен: FCM токен браузера или tg:<chat_id>
func main() {
	token := flag.String("token", "", "FCM registration token or tg:<chat_id>")
	timeout := flag.Duration("timeout", 15*time.Second, "send timeout")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "usage: send_test_push -token <token>")
		os.Exit(2)
	}

	// .env необязателен, как и для основного сервиса
	_ = godotenv.Load(".env")

	env := os.Getenv("ENV")
	logger, err := app.NewLogger(env, "send-test-push", os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var sender service.PushSender
	if chatID, ok := model.ParseTelegramChatToken(*token); ok {
		telegramToken := os.Getenv("TELEGRAM_TOKEN")
		if telegramToken == "" {
			log.Fatal("TELEGRAM_TOKEN is required for tg: tokens")
		}
		b, err := bot.New(telegramToken)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		logger.Info("Sending test notification to telegram chat", zap.Int64("chat_id", chatID))
		sender = push.NewTelegramSender(b, logger)
	} else {
		client, err := push.NewMessagingClient(ctx, os.Getenv("FIREBASE_PROJECT_ID"), os.Getenv("FIREBASE_CREDENTIALS_FILE"))
		if err != nil {
			log.Fatalf("Failed to init firebase: %v", err)
		}
		sender = push.NewFCMSender(client, logger)
	}

	msg := service.TestNotificationMessage
	msg.Icon = envOr("PUSH_ICON", "/vite.svg")

	report, err := sender.SendMulticast(ctx, []string{*token}, msg)
	if err != nil {
		logger.Fatal("Test notification failed", zap.Error(err))
	}

	logger.Info("Test notification sent",
		zap.Int("success", report.SuccessCount),
		zap.Int("failure", report.FailureCount),
		zap.Strings("invalid_tokens", report.InvalidTokens),
	)
	if report.SuccessCount == 0 {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
