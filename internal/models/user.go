// Package models содержит доменные структуры сервиса: пользователя,
// платёж, подписку и профиль студии. Структуры используются в бизнес-логике
// и при работе с хранилищем.
package models

import "time"

// Статусы жизненного цикла пользователя. Статус движется только вперёд:
// pending -> active, с единственным запасным выходом pending -> expired,
// после которого строка удаляется при повторной регистрации.
const (
	UserStatusPending = "pending"
	UserStatusActive  = "active"
	UserStatusExpired = "expired"
)

// User представляет учётную запись в маркетплейсе студий.
type User struct {
	UID                     string     // Уникальный идентификатор пользователя
	Email                   string     // Электронная почта, хранится в нижнем регистре
	Username                string     // Имя пользователя (уникальное), до выбора — временное temp_*
	DisplayName             string     // Отображаемое имя
	PasswordHash            string     // Хэш пароля пользователя
	Status                  string     // pending / active / expired
	EmailVerified           bool       // Подтверждена ли почта
	VerificationToken       *string    // Одноразовый токен подтверждения почты
	VerificationTokenExpiry *time.Time // Срок действия токена подтверждения
	ResetToken              *string    // Одноразовый токен сброса пароля
	ResetTokenExpiry        *time.Time // Срок действия токена сброса
	ReservationExpiresAt    time.Time  // Дедлайн завершения регистрации
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
