package reconcile

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/studio-directory/internal/config"
	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/storage"
)

// fakeRepo — хранилище в памяти с теми же контрактами условных записей,
// что и настоящее: сверку удобно проверять на целых сценариях, где важен
// порядок и повторение вызовов.
type fakeRepo struct {
	users     map[string]*models.User
	payments  map[string]*models.Payment // по session id
	subs      map[string]*models.Subscription
	profiles  map[string]*models.StudioProfile
	anomalies map[string]string // payment id -> reason
	nextID    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:     make(map[string]*models.User),
		payments:  make(map[string]*models.Payment),
		subs:      make(map[string]*models.Subscription),
		profiles:  make(map[string]*models.StudioProfile),
		anomalies: make(map[string]string),
	}
}

func (f *fakeRepo) GetUser(_ context.Context, userUID string) (*models.User, error) {
	u, ok := f.users[userUID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeRepo) CreatePayment(_ context.Context, payment models.Payment) (string, bool, error) {
	if _, ok := f.payments[payment.ProviderSessionID]; ok {
		return "", false, nil
	}
	f.nextID++
	payment.ID = strconv.Itoa(f.nextID)
	f.payments[payment.ProviderSessionID] = &payment
	return payment.ID, true, nil
}

func (f *fakeRepo) GetPaymentBySessionID(_ context.Context, providerSessionID string) (*models.Payment, error) {
	p, ok := f.payments[providerSessionID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeRepo) GetSucceededPaymentByUser(_ context.Context, userUID string) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.UserUID == userUID && p.Status == models.PaymentStatusSucceeded {
			copied := *p
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeRepo) UpdatePaymentStatus(_ context.Context, providerSessionID, status string) (bool, error) {
	p, ok := f.payments[providerSessionID]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (f *fakeRepo) MarkPaymentAnomaly(_ context.Context, paymentID, reason string) error {
	f.anomalies[paymentID] = reason
	return nil
}

func (f *fakeRepo) ActivateUser(_ context.Context, userUID string) (bool, error) {
	u, ok := f.users[userUID]
	if !ok || u.Status != models.UserStatusPending || !u.EmailVerified {
		return false, nil
	}
	u.Status = models.UserStatusActive
	return true, nil
}

func (f *fakeRepo) GetActiveSubscription(_ context.Context, userUID string) (*models.Subscription, error) {
	s, ok := f.subs[userUID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) EnsureActiveSubscription(_ context.Context, userUID string, periodStart, periodEnd time.Time) (bool, error) {
	if _, ok := f.subs[userUID]; ok {
		return false, nil
	}
	f.nextID++
	f.subs[userUID] = &models.Subscription{
		ID:          strconv.Itoa(f.nextID),
		UserUID:     userUID,
		Status:      models.SubscriptionStatusActive,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	return true, nil
}

func (f *fakeRepo) ActivateProfile(_ context.Context, userUID string) (bool, error) {
	p, ok := f.profiles[userUID]
	if !ok || p.Status == models.ProfileStatusActive {
		return false, nil
	}
	p.Status = models.ProfileStatusActive
	return true, nil
}

type fakeAlerts struct {
	alerts []models.AnomalyAlert
}

func (f *fakeAlerts) PublishAnomaly(alert models.AnomalyAlert) error {
	f.alerts = append(f.alerts, alert)
	return nil
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService() (*Service, *fakeRepo, *fakeAlerts) {
	repo := newFakeRepo()
	alerts := &fakeAlerts{}
	svc := New(repo, alerts, config.Signup{SubscriptionPeriod: 8760 * time.Hour}, newNoopLogger())
	return svc, repo, alerts
}

func addVerifiedUser(repo *fakeRepo, uid string) {
	repo.users[uid] = &models.User{
		UID:           uid,
		Email:         uid + "@example.com",
		Username:      "studio_" + uid,
		Status:        models.UserStatusPending,
		EmailVerified: true,
	}
}

func succeededEvent(sessionID, userUID string) *Event {
	return &Event{
		SessionID: sessionID,
		Status:    models.PaymentStatusSucceeded,
		Amount:    250000,
		Currency:  "RUB",
		UserUID:   userUID,
	}
}

func TestWebhookActivatesUser(t *testing.T) {
	svc, repo, _ := newTestService()
	addVerifiedUser(repo, "u1")
	repo.profiles["u1"] = &models.StudioProfile{UserUID: "u1", Status: models.ProfileStatusPending}

	outcome, err := svc.ProcessWebhookEvent(context.Background(), succeededEvent("sess-1", "u1"))
	require.NoError(t, err)
	assert.True(t, outcome.Activated)
	assert.True(t, outcome.SubscriptionCreated)
	assert.False(t, outcome.Duplicate)

	assert.Equal(t, models.UserStatusActive, repo.users["u1"].Status)
	assert.Equal(t, models.ProfileStatusActive, repo.profiles["u1"].Status)
	require.Contains(t, repo.subs, "u1")
	assert.Equal(t, models.SubscriptionStatusActive, repo.subs["u1"].Status)
}

func TestWebhookThenSuccessPageConverges(t *testing.T) {
	svc, repo, _ := newTestService()
	addVerifiedUser(repo, "u1")

	first, err := svc.ProcessWebhookEvent(context.Background(), succeededEvent("sess-1", "u1"))
	require.NoError(t, err)
	require.True(t, first.SubscriptionCreated)

	second, err := svc.ConfirmSuccess(context.Background(), "sess-1", "")
	require.NoError(t, err)
	assert.True(t, second.Activated)
	assert.False(t, second.SubscriptionCreated)
	assert.Len(t, repo.subs, 1)
}

func TestSuccessPageBeforeWebhook(t *testing.T) {
	svc, repo, _ := newTestService()
	addVerifiedUser(repo, "u1")
	// checkout записал pending-платёж, webhook ещё не пришёл
	repo.payments["sess-1"] = &models.Payment{
		ID: "1", UserUID: "u1", ProviderSessionID: "sess-1",
		Status: models.PaymentStatusPending,
	}

	_, err := svc.ConfirmSuccess(context.Background(), "sess-1", "")
	assert.ErrorIs(t, err, domain.ErrPaymentNotSucceeded)

	// webhook довёл платёж до succeeded, повторный заход активирует
	_, err = svc.ProcessWebhookEvent(context.Background(), succeededEvent("sess-1", "u1"))
	require.NoError(t, err)

	outcome, err := svc.ConfirmSuccess(context.Background(), "sess-1", "")
	require.NoError(t, err)
	assert.True(t, outcome.Activated)
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	svc, repo, _ := newTestService()
	addVerifiedUser(repo, "u1")

	_, err := svc.ProcessWebhookEvent(context.Background(), succeededEvent("sess-1", "u1"))
	require.NoError(t, err)

	outcome, err := svc.ProcessWebhookEvent(context.Background(), succeededEvent("sess-1", "u1"))
	require.NoError(t, err)
	assert.True(t, outcome.Duplicate)
	assert.Len(t, repo.payments, 1)
	assert.Len(t, repo.subs, 1)
}

func TestWebhookUnverifiedEmailIsAnomaly(t *testing.T) {
	svc, repo, alerts := newTestService()
	addVerifiedUser(repo, "u1")
	repo.users["u1"].EmailVerified = false

	outcome, err := svc.ProcessWebhookEvent(context.Background(), succeededEvent("sess-1", "u1"))
	require.NoError(t, err)
	assert.True(t, outcome.Anomaly)
	assert.False(t, outcome.Activated)

	// пользователь остался pending, платёж сохранен с маркером
	assert.Equal(t, models.UserStatusPending, repo.users["u1"].Status)
	assert.Equal(t, "unverified_email", repo.anomalies[outcome.PaymentID])
	require.Len(t, alerts.alerts, 1)
	assert.Equal(t, "sess-1", alerts.alerts[0].ProviderSessionID)
	assert.Empty(t, repo.subs)
}

func TestConfirmSuccessExpiredUser(t *testing.T) {
	svc, repo, _ := newTestService()
	addVerifiedUser(repo, "u1")
	repo.users["u1"].Status = models.UserStatusExpired
	repo.payments["sess-1"] = &models.Payment{
		ID: "1", UserUID: "u1", ProviderSessionID: "sess-1",
		Status: models.PaymentStatusSucceeded,
	}

	_, err := svc.ConfirmSuccess(context.Background(), "sess-1", "")
	assert.ErrorIs(t, err, domain.ErrUserStateInvalid)
	assert.Equal(t, models.UserStatusExpired, repo.users["u1"].Status)
}

func TestConfirmSuccessByEmailFallback(t *testing.T) {
	svc, repo, _ := newTestService()
	addVerifiedUser(repo, "u1")
	repo.payments["sess-1"] = &models.Payment{
		ID: "1", UserUID: "u1", ProviderSessionID: "sess-1",
		Status: models.PaymentStatusSucceeded,
	}

	outcome, err := svc.ConfirmSuccess(context.Background(), "", "u1@example.com")
	require.NoError(t, err)
	assert.True(t, outcome.Activated)
}

func TestConfirmSuccessUnknownSession(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ConfirmSuccess(context.Background(), "missing", "")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestFailedPaymentDoesNotActivate(t *testing.T) {
	svc, repo, _ := newTestService()
	addVerifiedUser(repo, "u1")

	event := succeededEvent("sess-1", "u1")
	event.Status = models.PaymentStatusFailed

	outcome, err := svc.ProcessWebhookEvent(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, outcome.Activated)
	assert.Equal(t, models.UserStatusPending, repo.users["u1"].Status)
}
