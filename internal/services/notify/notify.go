// Package notify публикует исходящие уведомления в RabbitMQ: задания на
// письма для воркера-отправителя и оповещения об аномальных платежах.
//
// Публикация — побочный эффект вне транзакции хранилища: отказ брокера не
// откатывает состояние, а возвращается вызывающей стороне отдельным флагом.
package notify

import (
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/studio-directory/internal/metrics"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/rabbitmq"
)

// Service публикует уведомления в брокер.
type Service struct {
	ch  *amqp.Channel
	log *slog.Logger
}

// New создает новый экземпляр Service.
func New(ch *amqp.Channel, log *slog.Logger) *Service {
	return &Service{ch: ch, log: log}
}

// QueueVerificationEmail ставит в очередь письмо с токеном подтверждения почты.
func (s *Service) QueueVerificationEmail(email, displayName, verificationToken string) error {
	job := models.EmailJob{
		Kind:        models.EmailKindVerification,
		To:          email,
		DisplayName: displayName,
		Token:       verificationToken,
	}
	if err := rabbitmq.PublishMessage(s.ch, rabbitmq.Exchange, rabbitmq.EmailRoutingKey, job); err != nil {
		return err
	}
	metrics.EmailsQueued.WithLabelValues(models.EmailKindVerification).Inc()
	return nil
}

// QueuePasswordResetEmail ставит в очередь письмо с токеном сброса пароля.
func (s *Service) QueuePasswordResetEmail(email, displayName, resetToken string) error {
	job := models.EmailJob{
		Kind:        models.EmailKindPasswordReset,
		To:          email,
		DisplayName: displayName,
		Token:       resetToken,
	}
	if err := rabbitmq.PublishMessage(s.ch, rabbitmq.Exchange, rabbitmq.EmailRoutingKey, job); err != nil {
		return err
	}
	metrics.EmailsQueued.WithLabelValues(models.EmailKindPasswordReset).Inc()
	return nil
}

// PublishAnomaly отправляет оповещение об аномальном платеже.
func (s *Service) PublishAnomaly(alert models.AnomalyAlert) error {
	return rabbitmq.PublishMessage(s.ch, rabbitmq.Exchange, rabbitmq.AnomalyRoutingKey, alert)
}
