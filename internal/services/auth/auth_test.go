package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/studio-directory/internal/domain"
	"github.com/magabrotheeeer/studio-directory/internal/lib/jwt"
	"github.com/magabrotheeeer/studio-directory/internal/lib/password"
	"github.com/magabrotheeeer/studio-directory/internal/models"
	"github.com/magabrotheeeer/studio-directory/internal/storage"
)

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLogin(t *testing.T) {
	hash, err := password.GetHash("Sup3r$ecret")
	require.NoError(t, err)

	user := &models.User{
		UID:          "uid-1",
		Email:        "studio@example.com",
		Username:     "darkroom_spb",
		PasswordHash: hash,
		Status:       models.UserStatusActive,
	}

	tests := []struct {
		name     string
		email    string
		pass     string
		repoUser *models.User
		repoErr  error
		wantErr  error
	}{
		{
			name:     "valid credentials",
			email:    "studio@example.com",
			pass:     "Sup3r$ecret",
			repoUser: user,
		},
		{
			name:    "unknown email",
			email:   "nobody@example.com",
			pass:    "Sup3r$ecret",
			repoErr: storage.ErrNotFound,
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "studio@example.com",
			pass:     "WrongPass$1",
			repoUser: user,
			wantErr:  domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserReader)
			users.On("GetUserByEmail", mock.Anything, tt.email).
				Return(tt.repoUser, tt.repoErr).Once()

			svc := New(users, jwt.NewJWTMaker("test-secret", time.Hour), newNoopLogger())
			result, err := svc.Login(context.Background(), tt.email, tt.pass)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
			assert.Equal(t, "uid-1", result.UserUID)
			assert.Equal(t, "darkroom_spb", result.Username)
		})
	}
}

func TestLogin_ExpiredUser(t *testing.T) {
	hash, err := password.GetHash("Sup3r$ecret")
	require.NoError(t, err)

	users := new(MockUserReader)
	users.On("GetUserByEmail", mock.Anything, "studio@example.com").
		Return(&models.User{
			UID:          "uid-1",
			Email:        "studio@example.com",
			PasswordHash: hash,
			Status:       models.UserStatusExpired,
		}, nil).Once()

	svc := New(users, jwt.NewJWTMaker("test-secret", time.Hour), newNoopLogger())
	_, err = svc.Login(context.Background(), "studio@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, domain.ErrReservationExpired)
}
