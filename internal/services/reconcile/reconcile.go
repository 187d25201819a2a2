// Package reconcile сводит два независимых сигнала о платеже — webhook
// провайдера и возврат пользователя на страницу успеха — в ровно одну
// активацию. Оба пути проходят через одну и ту же идемпотентную
// последовательность шагов, поэтому порядок прихода и дубликаты не
// влияют на итоговое состояние.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/studio-directory/internal/config"
	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
	"github.com/magabrotheeeer/studio-directory/internal/metrics"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/storage"
)

// Repository описывает операции хранилища, нужные сверке.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreatePayment(ctx context.Context, payment models.Payment) (string, bool, error)
	GetPaymentBySessionID(ctx context.Context, providerSessionID string) (*models.Payment, error)
	GetSucceededPaymentByUser(ctx context.Context, userUID string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, providerSessionID, status string) (bool, error)
	MarkPaymentAnomaly(ctx context.Context, paymentID, reason string) error
	ActivateUser(ctx context.Context, userUID string) (bool, error)
	GetActiveSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	EnsureActiveSubscription(ctx context.Context, userUID string, periodStart, periodEnd time.Time) (bool, error)
	ActivateProfile(ctx context.Context, userUID string) (bool, error)
}

// AlertPublisher отправляет внеполосные оповещения об аномалиях.
type AlertPublisher interface {
	PublishAnomaly(alert models.AnomalyAlert) error
}

// Service — сверка платежей и активация учётных записей.
type Service struct {
	repo   Repository
	alerts AlertPublisher
	policy config.Signup
	log    *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, alerts AlertPublisher, policy config.Signup, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		alerts: alerts,
		policy: policy,
		log:    log,
	}
}

// Event — нормализованное уведомление провайдера о платеже.
type Event struct {
	SessionID string
	Status    string
	Amount    int64
	Currency  string
	UserUID   string // из metadata сессии
}

// Outcome — итог прохода сверки. Повторные проходы возвращают
// эквивалентный Outcome без новых записей в хранилище.
type Outcome struct {
	PaymentID           string `json:"payment_id"`
	UserUID             string `json:"user_uid"`
	UserStatus          string `json:"user_status"`
	Duplicate           bool   `json:"duplicate"`
	Activated           bool   `json:"activated"`
	Anomaly             bool   `json:"anomaly"`
	SubscriptionCreated bool   `json:"subscription_created"`
}

// ProcessWebhookEvent записывает платёж из webhook-уведомления и запускает
// сверку. Дубликат доставки по тому же session id обнаруживает уже
// существующую запись и не обрабатывает её повторно.
func (s *Service) ProcessWebhookEvent(ctx context.Context, event *Event) (*Outcome, error) {
	const op = "reconcile.ProcessWebhookEvent"

	payment, duplicate, err := s.recordPayment(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	outcome := &Outcome{
		PaymentID: payment.ID,
		UserUID:   payment.UserUID,
		Duplicate: duplicate,
	}

	if payment.Status != models.PaymentStatusSucceeded {
		metrics.Reconciliations.WithLabelValues("webhook", "noop").Inc()
		return outcome, nil
	}

	if err := s.reconcileActivation(ctx, payment, outcome, "webhook"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return outcome, nil
}

// recordPayment приводит хранилище к состоянию "платёж записан" ровно один раз.
func (s *Service) recordPayment(ctx context.Context, event *Event) (*models.Payment, bool, error) {
	existing, err := s.repo.GetPaymentBySessionID(ctx, event.SessionID)
	switch {
	case err == nil:
		// сессия уже записана: дубликат доставки или checkout-платёж,
		// ожидающий финального статуса
		if event.Status == models.PaymentStatusSucceeded &&
			existing.Status == models.PaymentStatusPending {
			if _, err := s.repo.UpdatePaymentStatus(ctx, event.SessionID, models.PaymentStatusSucceeded); err != nil {
				return nil, false, err
			}
			existing.Status = models.PaymentStatusSucceeded
			return existing, false, nil
		}
		return existing, true, nil

	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, false, err
	}

	userUID := event.UserUID
	if userUID == "" {
		return nil, false, domain.ErrPaymentNotFound
	}
	payment := models.Payment{
		UserUID:           userUID,
		ProviderSessionID: event.SessionID,
		Status:            event.Status,
		Amount:            event.Amount,
		Currency:          event.Currency,
	}
	newID, created, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// конкурентная доставка вставила строку первой
		existing, err := s.repo.GetPaymentBySessionID(ctx, event.SessionID)
		if err != nil {
			return nil, false, err
		}
		return existing, true, nil
	}
	payment.ID = newID
	return &payment, false, nil
}

// ConfirmSuccess — путь страницы успеха: пользователь вернулся от провайдера
// и спрашивает, активирован ли он. Принимает pending и active; expired —
// ошибка, требующая ручного вмешательства, а не тихой активации.
func (s *Service) ConfirmSuccess(ctx context.Context, sessionID, email string) (*Outcome, error) {
	const op = "reconcile.ConfirmSuccess"

	payment, err := s.lookupPayment(ctx, sessionID, email)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusSucceeded {
		return nil, domain.ErrPaymentNotSucceeded
	}

	outcome := &Outcome{
		PaymentID: payment.ID,
		UserUID:   payment.UserUID,
	}
	if err := s.reconcileActivation(ctx, payment, outcome, "success_page"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return outcome, nil
}

func (s *Service) lookupPayment(ctx context.Context, sessionID, email string) (*models.Payment, error) {
	const op = "reconcile.lookupPayment"

	if sessionID != "" {
		payment, err := s.repo.GetPaymentBySessionID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, domain.ErrPaymentNotFound
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return payment, nil
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payment, err := s.repo.GetSucceededPaymentByUser(ctx, user.UID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payment, nil
}

// reconcileActivation — общая идемпотентная последовательность активации.
// Каждый шаг безопасен при повторении: второй проход наблюдает уже
// активированное состояние и не пишет ничего.
func (s *Service) reconcileActivation(ctx context.Context, payment *models.Payment, outcome *Outcome, path string) error {
	user, err := s.repo.GetUser(ctx, payment.UserUID)
	if err != nil {
		return err
	}
	outcome.UserStatus = user.Status

	if user.Status == models.UserStatusExpired {
		return domain.ErrUserStateInvalid
	}

	// платёж никогда не активирует неподтверждённую учётную запись:
	// запись сохраняется с маркером аномалии, пользователь остаётся pending
	if !user.EmailVerified {
		outcome.Anomaly = true
		if err := s.repo.MarkPaymentAnomaly(ctx, payment.ID, "unverified_email"); err != nil {
			return err
		}
		if err := s.alerts.PublishAnomaly(models.AnomalyAlert{
			PaymentID:         payment.ID,
			UserUID:           payment.UserUID,
			ProviderSessionID: payment.ProviderSessionID,
			Reason:            "unverified_email",
		}); err != nil {
			s.log.Error("failed to publish anomaly alert", sl.Err(err))
		}
		metrics.Reconciliations.WithLabelValues(path, "anomaly").Inc()
		return nil
	}

	// шаг 1: активация пользователя, no-op если уже active
	transitioned, err := s.repo.ActivateUser(ctx, user.UID)
	if err != nil {
		return err
	}

	// шаг 2: подписка создается только если активной ещё нет
	subscriptionCreated := false
	_, err = s.repo.GetActiveSubscription(ctx, user.UID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		now := time.Now().UTC()
		subscriptionCreated, err = s.repo.EnsureActiveSubscription(ctx, user.UID, now, now.Add(s.policy.SubscriptionPeriod))
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	// шаг 3: профиль, если он есть, активируется не позже пользователя
	if _, err := s.repo.ActivateProfile(ctx, user.UID); err != nil {
		return err
	}

	outcome.Activated = true
	outcome.UserStatus = models.UserStatusActive
	outcome.SubscriptionCreated = subscriptionCreated

	if transitioned || subscriptionCreated {
		metrics.Reconciliations.WithLabelValues(path, "activated").Inc()
	} else {
		metrics.Reconciliations.WithLabelValues(path, "noop").Inc()
	}
	return nil
}
