package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ChatLinker привязка чатов Telegram к пользователям портала
type ChatLinker interface {
	LinkTelegramChat(ctx context.Context, code string, chatID int64) (*model.User, error)
	UnlinkTelegramChat(ctx context.Context, chatID int64) error
}

// MessageSender отправка ответов в чат
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// BotController бот для получения уведомлений портала в Telegram
type BotController struct {
	bot    *bot.Bot
	sender MessageSender
	linker ChatLinker
	logger *zap.Logger
}

func NewBotController(botInstance *bot.Bot, linker ChatLinker, logger *zap.Logger) *BotController {
	return &BotController{
		bot:    botInstance,
		sender: botInstance,
		linker: linker,
		logger: logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/link", bot.MatchTypePrefix, c.HandleLink)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/unlink", bot.MatchTypeExact, c.HandleUnlink)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Start"},
		{Command: "link", Description: "🔗 Link this chat with a portal code"},
		{Command: "unlink", Description: "🔕 Stop notifications in this chat"},
		{Command: "help", Description: "❓ Help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает long polling, блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot")
	c.bot.Start(ctx)
	return nil
}

const helpText = "This bot delivers your class reminders and lecture updates.\n\n" +
	"1. Open the portal and press \"Link Telegram\" to get a code.\n" +
	"2. Send /link CODE here.\n\n" +
	"/unlink - stop notifications in this chat\n" +
	"/help - this message"

// HandleStart принимает /start и /start CODE (deep link)
func (c *BotController) HandleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if code := commandArgument(update.Message.Text); code != "" {
		c.link(ctx, update.Message.Chat.ID, code)
		return
	}

	c.reply(ctx, update.Message.Chat.ID, "👋 Welcome to the campus portal bot!\n\n"+helpText)
}

func (c *BotController) HandleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.reply(ctx, update.Message.Chat.ID, helpText)
}

// HandleLink /link CODE
func (c *BotController) HandleLink(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	code := commandArgument(update.Message.Text)
	if code == "" {
		c.reply(ctx, update.Message.Chat.ID, "Usage: /link CODE\n\nGet the code on the portal profile page.")
		return
	}

	c.link(ctx, update.Message.Chat.ID, code)
}

func (c *BotController) HandleUnlink(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	if err := c.linker.UnlinkTelegramChat(ctx, chatID); err != nil {
		c.logger.Error("Failed to unlink chat", zap.Int64("chat_id", chatID), zap.Error(err))
		c.reply(ctx, chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	c.reply(ctx, chatID, "🔕 This chat will no longer receive notifications.")
}

func (c *BotController) link(ctx context.Context, chatID int64, code string) {
	user, err := c.linker.LinkTelegramChat(ctx, code, chatID)
	switch {
	case errors.Is(err, service.ErrLinkCodeInvalid):
		c.reply(ctx, chatID, "❌ The code is invalid or expired. Generate a new one on the portal.")
		return
	case errors.Is(err, service.ErrNotFound):
		c.reply(ctx, chatID, "❌ Portal account not found. Complete your profile first.")
		return
	case err != nil:
		c.logger.Error("Failed to link chat", zap.Int64("chat_id", chatID), zap.Error(err))
		c.reply(ctx, chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	text := "✅ Chat linked. You will receive class reminders and lecture updates here."
	if user.Email != "" {
		text = fmt.Sprintf("✅ Chat linked to %s. You will receive class reminders and lecture updates here.", user.Email)
	}
	c.reply(ctx, chatID, text)
}

// reply отправляет сообщение и логирует если не удалось
func (c *BotController) reply(ctx context.Context, chatID int64, text string) {
	_, err := c.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// commandArgument возвращает первый аргумент команды: "/link abc" -> "abc"
func commandArgument(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
