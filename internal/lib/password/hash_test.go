package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/studio-directory/internal/domain"
)

func TestGetHashAndCompare(t *testing.T) {
	hash, err := GetHash("Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r$ecret", hash)

	assert.NoError(t, CompareHash(hash, "Sup3r$ecret"))
	assert.Error(t, CompareHash(hash, "wrong password"))
}

func TestValidateStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Sup3r$ecret", false},
		{"too short", "S3c$et", true},
		{"no uppercase", "sup3r$ecret", true},
		{"no digit", "Super$ecret", true},
		{"no special", "Sup3rSecret", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStrength(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "weak_password", domain.ReasonOf(err))
				assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
