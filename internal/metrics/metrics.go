// Package metrics регистрирует счетчики Prometheus по ключевым исходам
// регистрации и сверки платежей.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignupOutcomes — исходы вызова Register: created / resumed / conflict / expired.
	SignupOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_directory_signup_outcomes_total",
		Help: "Register call outcomes.",
	}, []string{"outcome"})

	// UsernameClaims — исходы захвата имени пользователя: won / conflict.
	UsernameClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_directory_username_claims_total",
		Help: "Username claim outcomes.",
	}, []string{"outcome"})

	// Reconciliations — исходы сверки платежа: activated / noop / anomaly.
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_directory_reconciliations_total",
		Help: "Payment reconciliation outcomes by entry path.",
	}, []string{"path", "outcome"})

	// EmailsQueued — поставленные в очередь письма по типу.
	EmailsQueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_directory_emails_queued_total",
		Help: "Emails queued for dispatch.",
	}, []string{"kind"})
)
