package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"go.uber.org/zap"
)

const linkCodeTTL = 15 * time.Minute

// UserStore хранилище пользователей
type UserStore interface {
	GetByUID(ctx context.Context, uid string) (*model.User, error)
	SaveProfile(ctx context.Context, user *model.User) error
	AddToken(ctx context.Context, uid, token string) error
	RemoveToken(ctx context.Context, uid, token string) error
	PruneTokens(ctx context.Context, tokens []string) error
}

// LinkCodeStore хранилище кодов привязки Telegram
type LinkCodeStore interface {
	Create(ctx context.Context, code *model.TelegramLinkCode) error
	// Consume атомарно помечает код использованным; nil, nil если код неизвестен, истёк или уже использован
	Consume(ctx context.Context, code string, now time.Time) (*model.TelegramLinkCode, error)
}

type UserService struct {
	users     UserStore
	linkCodes LinkCodeStore
	sender    PushSender
	clock     func() time.Time
	logger    *zap.Logger
}

func NewUserService(users UserStore, linkCodes LinkCodeStore, sender PushSender, logger *zap.Logger) *UserService {
	return &UserService{
		users:     users,
		linkCodes: linkCodes,
		sender:    sender,
		clock:     time.Now,
		logger:    logger,
	}
}

// GetByUID получает пользователя по UID провайдера идентификации
func (s *UserService) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	return s.users.GetByUID(ctx, uid)
}

// CompleteProfile заполняет профиль студента: номер зачётки и телефон
func (s *UserService) CompleteProfile(ctx context.Context, uid, email, rollNumber, phone string) (*model.User, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	if uid == "" || len(rollNumber) != rollNumberLength {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil && existing.Role != model.RoleStudent {
		return nil, ErrForbidden
	}

	user := &model.User{
		UID:        uid,
		Email:      email,
		Role:       model.RoleStudent,
		RollNumber: &rollNumber,
		Phone:      strings.TrimSpace(phone),
	}
	if existing != nil {
		user.FCMTokens = existing.FCMTokens
		if user.Email == "" {
			user.Email = existing.Email
		}
	}

	if err := s.users.SaveProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.logger.Info("Student profile completed",
		zap.String("uid", uid),
		zap.String("roll_number", rollNumber),
	)

	return user, nil
}

// RegisterToken добавляет токен устройства без дублей
func (s *UserService) RegisterToken(ctx context.Context, uid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidInput
	}

	if err := s.users.AddToken(ctx, uid, token); err != nil {
		return fmt.Errorf("add token: %w", err)
	}

	s.logger.Debug("Device token registered", zap.String("uid", uid))
	return nil
}

// RemoveToken удаляет токен устройства
func (s *UserService) RemoveToken(ctx context.Context, uid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidInput
	}

	if err := s.users.RemoveToken(ctx, uid, token); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// CreateTelegramLinkCode выдаёт одноразовый код для команды /link в боте
func (s *UserService) CreateTelegramLinkCode(ctx context.Context, actor *model.User) (*model.TelegramLinkCode, error) {
	if !actor.HasRole(model.RoleStudent) {
		return nil, ErrForbidden
	}

	code, err := generateLinkCode()
	if err != nil {
		return nil, fmt.Errorf("generate link code: %w", err)
	}

	now := s.clock()
	linkCode := &model.TelegramLinkCode{
		Code:      code,
		UID:       actor.UID,
		ExpiresAt: now.Add(linkCodeTTL),
	}

	if err := s.linkCodes.Create(ctx, linkCode); err != nil {
		return nil, fmt.Errorf("create link code: %w", err)
	}

	return linkCode, nil
}

// LinkTelegramChat привязывает чат к пользователю по коду: чат становится получателем уведомлений
func (s *UserService) LinkTelegramChat(ctx context.Context, code string, chatID int64) (*model.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrLinkCodeInvalid
	}

	linkCode, err := s.linkCodes.Consume(ctx, code, s.clock())
	if err != nil {
		return nil, fmt.Errorf("consume link code: %w", err)
	}
	if linkCode == nil {
		return nil, ErrLinkCodeInvalid
	}

	user, err := s.users.GetByUID(ctx, linkCode.UID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if err := s.users.AddToken(ctx, user.UID, model.TelegramChatToken(chatID)); err != nil {
		return nil, fmt.Errorf("add telegram token: %w", err)
	}

	s.logger.Info("Telegram chat linked",
		zap.String("uid", user.UID),
		zap.Int64("chat_id", chatID),
	)

	return user, nil
}

// UnlinkTelegramChat отвязывает чат от всех пользователей
func (s *UserService) UnlinkTelegramChat(ctx context.Context, chatID int64) error {
	if err := s.users.PruneTokens(ctx, []string{model.TelegramChatToken(chatID)}); err != nil {
		return fmt.Errorf("prune telegram token: %w", err)
	}

	s.logger.Info("Telegram chat unlinked", zap.Int64("chat_id", chatID))
	return nil
}

// SendTestNotification отправляет тестовое уведомление на один токен.
// Чат Telegram допускается, только если он привязан к самому пользователю.
func (s *UserService) SendTestNotification(ctx context.Context, actor *model.User, token string) (model.DeliveryReport, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.DeliveryReport{}, ErrInvalidInput
	}
	if strings.HasPrefix(token, model.TelegramTokenPrefix) && !slices.Contains(actor.FCMTokens, token) {
		s.logger.Warn("Test notification to a chat not linked to the user",
			zap.String("uid", actor.UID),
			zap.String("token", token),
		)
		return model.DeliveryReport{}, ErrForbidden
	}

	report, err := s.sender.SendMulticast(ctx, []string{token}, TestNotificationMessage)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if report.SuccessCount == 0 {
		return report, ErrDeliveryFailed
	}
	return report, nil
}

var TestNotificationMessage = model.PushMessage{
	Title: "🧪 Test Notification!",
	Body:  "If you received this, your setup is working correctly.",
}

// generateLinkCode 8 символов base32 без паддинга
func generateLinkCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}
