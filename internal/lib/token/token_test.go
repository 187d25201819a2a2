package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerification(t *testing.T) {
	first, err := NewVerification()
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := NewVerification()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestNewPlaceholderUsername(t *testing.T) {
	username, err := NewPlaceholderUsername()
	require.NoError(t, err)
	assert.True(t, IsPlaceholderUsername(username))
}

func TestIsPlaceholderUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"temp_a1b2c3d4e5f6", true},
		{"TEMP_A1B2C3D4E5F6", true},
		{"temp_a1b2c3", false},
		{"temp_zzzzzzzzzzzz", false},
		{"darkroom_spb", false},
		{"temporary", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlaceholderUsername(tt.username))
		})
	}
}
