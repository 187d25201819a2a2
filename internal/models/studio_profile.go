package models

import "time"

// Статусы профиля студии.
const (
	ProfileStatusPending = "pending"
	ProfileStatusActive  = "active"
)

// StudioProfile — необязательный профиль студии пользователя (1:1).
// Профиль становится видимым только после подтверждения почты и
// активируется не позже самого пользователя.
type StudioProfile struct {
	ID          string
	UserUID     string
	Name        string
	Description string
	Status      string
	Visible     bool
	CreatedAt   time.Time
}
