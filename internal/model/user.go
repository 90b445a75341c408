package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// User запись users/{uid}. UID выдаёт внешний провайдер идентификации.
type User struct {
	UID        string    `json:"uid"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	RollNumber *string   `json:"rollNumber,omitempty"` // nil - профиль не заполнен
	Phone      string    `json:"phone,omitempty"`
	FCMTokens  []string  `json:"fcmTokens"` // FCM токены и привязанные чаты Telegram (tg:<chat_id>)
	CreatedAt  time.Time `json:"createdAt"`
}

// HasRole проверяет что у пользователя одна из перечисленных ролей
func (u *User) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}
