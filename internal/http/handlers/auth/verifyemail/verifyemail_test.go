package verifyemail

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/services/signup"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) VerifyEmail(ctx context.Context, verificationToken string) (*signup.VerifyResult, error) {
	args := m.Called(ctx, verificationToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signup.VerifyResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestVerifyEmailHandler_Success(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("VerifyEmail", mock.Anything, "tok").
		Return(&signup.VerifyResult{UserUID: "uid-1", Email: "studio@example.com"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verify-email?token=tok", nil)
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, "").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	serviceMock.AssertExpectations(t)
}

func TestVerifyEmailHandler_RedirectTarget(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("VerifyEmail", mock.Anything, "tok").
		Return(&signup.VerifyResult{UserUID: "uid-1"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verify-email?token=tok", nil)
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, "https://studios.example.com/continue").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://studios.example.com/continue", rec.Header().Get("Location"))
}

func TestVerifyEmailHandler_MissingToken(t *testing.T) {
	serviceMock := new(ServiceMock)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/verify-email", nil)
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, "").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	serviceMock.AssertNotCalled(t, "VerifyEmail", mock.Anything, mock.Anything)
}

func TestVerifyEmailHandler_ExpiredTokenExposesEmail(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("VerifyEmail", mock.Anything, "old").
		Return(&signup.VerifyResult{Email: "studio@example.com"}, domain.ErrTokenExpired).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verify-email?token=old", nil)
	rec := httptest.NewRecorder()

	New(newNoopLogger(), serviceMock, "").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)

	var resp struct {
		Reason string         `json:"reason"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "token_expired", resp.Reason)
	assert.Equal(t, "studio@example.com", resp.Data["email"])
}
