package model

import (
	"strconv"
	"strings"
	"time"
)

// TelegramLinkCode одноразовый код привязки чата Telegram к пользователю
type TelegramLinkCode struct {
	Code      string     `json:"code"`
	UID       string     `json:"uid"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt"` // nil - код ещё не использован
	CreatedAt time.Time  `json:"createdAt"`
}

// IsValid проверяет что код не использован и не истёк
func (c *TelegramLinkCode) IsValid(now time.Time) bool {
	if c.UsedAt != nil {
		return false
	}
	return now.Before(c.ExpiresAt)
}

// TelegramTokenPrefix отличает чаты Telegram от FCM токенов в списке токенов пользователя
const TelegramTokenPrefix = "tg:"

// TelegramChatToken токен доставки для чата Telegram
func TelegramChatToken(chatID int64) string {
	return TelegramTokenPrefix + strconv.FormatInt(chatID, 10)
}

// ParseTelegramChatToken возвращает chat id, если токен указывает на чат Telegram
func ParseTelegramChatToken(token string) (int64, bool) {
	if !strings.HasPrefix(token, TelegramTokenPrefix) {
		return 0, false
	}
	chatID, err := strconv.ParseInt(strings.TrimPrefix(token, TelegramTokenPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return chatID, true
}
