package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/studio-directory/internal/models"
)

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		user models.User
		want bool
	}{
		{
			name: "pending before deadline",
			user: models.User{
				Status:               models.UserStatusPending,
				ReservationExpiresAt: now.Add(time.Hour),
			},
			want: false,
		},
		{
			name: "pending after deadline",
			user: models.User{
				Status:               models.UserStatusPending,
				ReservationExpiresAt: now.Add(-time.Minute),
			},
			want: true,
		},
		{
			name: "active user never expires",
			user: models.User{
				Status:               models.UserStatusActive,
				ReservationExpiresAt: now.Add(-time.Hour),
			},
			want: false,
		},
		{
			name: "already expired status",
			user: models.User{
				Status:               models.UserStatusExpired,
				ReservationExpiresAt: now.Add(-time.Hour),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpired(&tt.user, now))
		})
	}
}

func TestResumeStep(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		hasPayment bool
		want       Step
	}{
		{"placeholder username", "temp_a1b2c3d4e5f6", false, StepUsername},
		{"placeholder username with payment", "temp_a1b2c3d4e5f6", true, StepUsername},
		{"chosen username without payment", "darkroom_spb", false, StepPayment},
		{"chosen username with payment", "darkroom_spb", true, StepProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &models.User{Username: tt.username}
			assert.Equal(t, tt.want, ResumeStep(u, tt.hasPayment))
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("days and hours are floored", func(t *testing.T) {
		u := &models.User{ReservationExpiresAt: now.Add(49*time.Hour + 30*time.Minute)}
		got := TimeRemaining(u, now)
		assert.Equal(t, 2, got.Days)
		assert.Equal(t, 1, got.Hours)
		assert.Equal(t, (49*time.Hour + 30*time.Minute).Milliseconds(), got.TotalMS)
	})

	t.Run("expired clamps to zero", func(t *testing.T) {
		u := &models.User{ReservationExpiresAt: now.Add(-time.Hour)}
		got := TimeRemaining(u, now)
		assert.Equal(t, 0, got.Days)
		assert.Equal(t, 0, got.Hours)
		assert.Equal(t, int64(0), got.TotalMS)
	})
}
