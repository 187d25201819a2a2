package paymentwebhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/services/reconcile"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ProcessWebhookEvent(ctx context.Context, event *reconcile.Event) (*reconcile.Outcome, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.Outcome), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const testSecret = "webhook-secret"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

const succeededPayload = `{
	"event": "payment.succeeded",
	"object": {
		"id": "sess-1",
		"status": "succeeded",
		"amount": {"value": "2500.00", "currency": "RUB"},
		"metadata": {"user_uid": "uid-1"}
	}
}`

func TestWebhookHandler_Succeeded(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("ProcessWebhookEvent", mock.Anything, mock.MatchedBy(func(e *reconcile.Event) bool {
		return e.SessionID == "sess-1" &&
			e.Status == models.PaymentStatusSucceeded &&
			e.Amount == 250000 &&
			e.UserUID == "uid-1"
	})).Return(&reconcile.Outcome{PaymentID: "1", Activated: true}, nil).Once()

	body := []byte(succeededPayload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Api-Signature", sign(body))
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, testSecret).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	serviceMock.AssertExpectations(t)
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	serviceMock := new(ServiceMock)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook",
		bytes.NewReader([]byte(succeededPayload)))
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, testSecret).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	serviceMock.AssertNotCalled(t, "ProcessWebhookEvent", mock.Anything, mock.Anything)
}

func TestWebhookHandler_BadSignature(t *testing.T) {
	serviceMock := new(ServiceMock)
	body := []byte(succeededPayload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Api-Signature", sign([]byte("another body")))
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, testSecret).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookHandler_IgnoredEvent(t *testing.T) {
	serviceMock := new(ServiceMock)
	body := []byte(`{"event": "payment.waiting_for_capture", "object": {"id": "sess-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Api-Signature", sign(body))
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, testSecret).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	serviceMock.AssertNotCalled(t, "ProcessWebhookEvent", mock.Anything, mock.Anything)
}

func TestWebhookHandler_UnknownSessionAcknowledged(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("ProcessWebhookEvent", mock.Anything, mock.Anything).
		Return(nil, domain.ErrPaymentNotFound).Once()

	// событие без user_uid в metadata и с неизвестной сессией
	body := []byte(`{
		"event": "payment.succeeded",
		"object": {
			"id": "sess-unknown",
			"status": "succeeded",
			"amount": {"value": "2500.00", "currency": "RUB"},
			"metadata": {}
		}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Api-Signature", sign(body))
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, testSecret).ServeHTTP(rec, req)

	// 200: повторная доставка такого события ничего не изменит
	assert.Equal(t, http.StatusOK, rec.Code)
	serviceMock.AssertExpectations(t)
}

func TestWebhookHandler_ServiceError(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("ProcessWebhookEvent", mock.Anything, mock.Anything).
		Return(nil, errors.New("db down")).Once()

	body := []byte(succeededPayload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Api-Signature", sign(body))
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, testSecret).ServeHTTP(rec, req)

	// провайдер повторит доставку после 5xx
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseAmountKopecks(t *testing.T) {
	tests := []struct {
		value string
		want  int64
	}{
		{"2500.00", 250000},
		{"100.50", 10050},
		{"0.05", 5},
		{"100", 10000},
		{"100.5", 10050},
		{"garbage", 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			require.Equal(t, tt.want, parseAmountKopecks(tt.value))
		})
	}
}
