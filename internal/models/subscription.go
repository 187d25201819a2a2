package models

import "time"

// Статусы подписки на сервис.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription представляет оплаченный членский период пользователя.
// На одного активированного пользователя существует ровно одна активная
// подписка, создание идемпотентно.
type Subscription struct {
	ID          string
	UserUID     string
	Status      string
	PeriodStart time.Time
	PeriodEnd   time.Time
}
