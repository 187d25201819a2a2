package models

import "time"

// Статусы платежа у провайдера.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

// MetadataKeyAnomaly — ключ метаданных платежа, отмечающий платёж,
// прошедший при неожиданном состоянии пользователя (например, почта
// не подтверждена). Платёж при этом сохраняется для аудита.
const MetadataKeyAnomaly = "anomaly"

// Payment представляет платёж за активацию учётной записи.
// ProviderSessionID уникален и служит ключом дедупликации webhook-доставок.
type Payment struct {
	ID                string
	UserUID           string
	ProviderSessionID string
	Status            string
	Amount            int64
	Currency          string
	Metadata          map[string]string
	CreatedAt         time.Time
}
