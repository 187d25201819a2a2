// Package checkout создает платёжную сессию у провайдера и записывает
// pending-платёж, который позже сверяется по webhook или странице успеха.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/studio-directory/internal/config"
	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/lib/token"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/paymentprovider"
	"github.com/magabrotheeeer/studio-directory/internal/reservation"
	"github.com/magabrotheeeer/studio-directory/internal/storage"
)

// Repository описывает операции хранилища, нужные оформлению оплаты.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreatePayment(ctx context.Context, payment models.Payment) (string, bool, error)
}

// ProviderClient создает checkout-сессии у платёжного провайдера.
type ProviderClient interface {
	CreateCheckout(ctx context.Context, req paymentprovider.CreateCheckoutRequest) (*paymentprovider.CheckoutSession, error)
}

// Service — оформление оплаты регистрации.
type Service struct {
	repo     Repository
	provider ProviderClient
	cfg      config.PaymentProvider
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, provider ProviderClient, cfg config.PaymentProvider, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		cfg:      cfg,
		log:      log,
	}
}

// Result — созданная платёжная сессия.
type Result struct {
	SessionID       string `json:"session_id"`
	ConfirmationURL string `json:"confirmation_url"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

// CreateCheckout проверяет готовность учётной записи к оплате и создает
// checkout-сессию. Оплата доступна только после подтверждения почты и
// выбора имени, пока бронь не истекла.
func (s *Service) CreateCheckout(ctx context.Context, userUID string) (*Result, error) {
	const op = "checkout.CreateCheckout"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch user.Status {
	case models.UserStatusActive:
		return nil, domain.ErrAlreadyActive
	case models.UserStatusExpired:
		return nil, domain.ErrReservationExpired
	}
	if !user.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}
	if token.IsPlaceholderUsername(user.Username) {
		return nil, domain.Validation("username_not_chosen", "choose a username before payment")
	}
	if reservation.IsExpired(user, time.Now().UTC()) {
		return nil, domain.ErrReservationExpired
	}

	amountValue := formatKopecks(s.cfg.AmountKopecks)
	req := paymentprovider.CreateCheckoutRequest{
		Amount: paymentprovider.Amount{
			Value:    amountValue,
			Currency: s.cfg.Currency,
		},
		Description: "Размещение профиля студии в каталоге",
		Metadata:    map[string]string{"user_uid": user.UID},
		Capture:     true,
	}
	req.Confirmation.Type = "redirect"
	req.Confirmation.ReturnURL = s.cfg.SuccessURL

	session, err := s.provider.CreateCheckout(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	payment := models.Payment{
		UserUID:           user.UID,
		ProviderSessionID: session.ID,
		Status:            models.PaymentStatusPending,
		Amount:            s.cfg.AmountKopecks,
		Currency:          s.cfg.Currency,
	}
	if _, _, err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Result{
		SessionID:       session.ID,
		ConfirmationURL: session.Confirmation.ConfirmationURL,
		Amount:          amountValue,
		Currency:        s.cfg.Currency,
	}, nil
}

// formatKopecks переводит сумму в копейках в строковый формат провайдера.
func formatKopecks(kopecks int64) string {
	return strconv.FormatInt(kopecks/100, 10) + "." + fmt.Sprintf("%02d", kopecks%100)
}
