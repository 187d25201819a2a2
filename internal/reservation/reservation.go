// Package reservation — единая точка принятия решений о состоянии брони
// регистрации: истекла ли бронь, на каком шаге возобновлять незавершённую
// регистрацию и сколько времени осталось. Пакет не имеет побочных эффектов,
// записи по его решениям выполняют вызывающие стороны.
package reservation

import (
	"time"

	"github.com/magabrotheeeer/studio-directory/internal/lib/token"
	"github.com/magabrotheeeer/studio-directory/internal/models"
)

// Step — шаг, с которого возобновляется незавершённая регистрация.
type Step string

const (
	// StepUsername — имя пользователя ещё временное, нужно выбрать настоящее.
	StepUsername Step = "username"
	// StepPayment — имя выбрано, но успешного платежа нет.
	StepPayment Step = "payment"
	// StepProfile — оплачено, остался профиль студии.
	StepProfile Step = "profile"
)

// Remaining — оставшееся до истечения брони время в удобном для
// клиента разложении. При истёкшей брони все поля нулевые.
type Remaining struct {
	Days    int   `json:"days"`
	Hours   int   `json:"hours"`
	TotalMS int64 `json:"total_ms"`
}

// IsExpired сообщает, истекла ли бронь незавершённой регистрации.
// Бронь имеет смысл только в статусе pending.
func IsExpired(u *models.User, now time.Time) bool {
	return u.Status == models.UserStatusPending && now.After(u.ReservationExpiresAt)
}

// ResumeStep возвращает шаг возобновления регистрации.
// Наличие успешного платежа определяет вызывающая сторона по хранилищу.
func ResumeStep(u *models.User, hasSucceededPayment bool) Step {
	if token.IsPlaceholderUsername(u.Username) {
		return StepUsername
	}
	if !hasSucceededPayment {
		return StepPayment
	}
	return StepProfile
}

// TimeRemaining возвращает оставшееся время брони, не опускаясь ниже нуля.
func TimeRemaining(u *models.User, now time.Time) Remaining {
	left := u.ReservationExpiresAt.Sub(now)
	if left < 0 {
		left = 0
	}
	return Remaining{
		Days:    int(left / (24 * time.Hour)),
		Hours:   int(left % (24 * time.Hour) / time.Hour),
		TotalMS: left.Milliseconds(),
	}
}
