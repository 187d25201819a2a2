package register

import (
	"bytes"
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

func (m *ServiceMock) Register(ctx context.Context, email, password, displayName string) (*signup.RegisterResult, error) {
	args := m.Called(ctx, email, password, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signup.RegisterResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	validBody := Request{
		Email:       "studio@example.com",
		Password:    "Sup3r$ecret",
		DisplayName: "Darkroom",
	}

	tests := []struct {
		name           string
		requestBody    any
		mockResult     *signup.RegisterResult
		mockErr        error
		wantStatusCode int
		wantStatus     string
		wantReason     string
	}{
		{
			name:        "new user created",
			requestBody: validBody,
			mockResult: &signup.RegisterResult{
				Created:          true,
				UserUID:          "uid-1",
				Status:           "pending",
				VerificationSent: true,
			},
			wantStatusCode: http.StatusCreated,
			wantStatus:     "OK",
		},
		{
			name:        "resumed signup",
			requestBody: validBody,
			mockResult: &signup.RegisterResult{
				Created: false,
				UserUID: "uid-1",
				Status:  "pending",
				Resume:  &signup.ResumeDescriptor{Step: "username"},
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name: "validation error - missing email",
			requestBody: Request{
				Password:    "Sup3r$ecret",
				DisplayName: "Darkroom",
			},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:           "email already taken",
			requestBody:    validBody,
			mockErr:        domain.ErrUserExists,
			wantStatusCode: http.StatusConflict,
			wantStatus:     "Error",
			wantReason:     "user_exists",
		},
		{
			name:           "reservation expired",
			requestBody:    validBody,
			mockErr:        domain.ErrReservationExpired,
			wantStatusCode: http.StatusGone,
			wantStatus:     "Error",
			wantReason:     "reservation_expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			if tt.mockResult != nil || tt.mockErr != nil {
				serviceMock.On("Register", mock.Anything,
					"studio@example.com", "Sup3r$ecret", "Darkroom").
					Return(tt.mockResult, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(v)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/signup", bytes.NewReader(bodyBytes))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), serviceMock).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var resp struct {
				Status string `json:"status"`
				Reason string `json:"reason"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, resp.Reason)
			}
			serviceMock.AssertExpectations(t)
		})
	}
}
