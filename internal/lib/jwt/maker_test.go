package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)

	tokenStr, err := maker.GenerateToken("5af0cd99-1e0b-4f3e-9e1a-000000000001", "darkroom_spb")
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	claims, err := maker.ParseToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "5af0cd99-1e0b-4f3e-9e1a-000000000001", claims.UserUID)
	assert.Equal(t, "darkroom_spb", claims.Username)
}

func TestParseToken_WrongSecret(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)
	other := NewJWTMaker("other-secret", time.Hour)

	tokenStr, err := maker.GenerateToken("uid", "user")
	require.NoError(t, err)

	_, err = other.ParseToken(tokenStr)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	maker := NewJWTMaker("test-secret", -time.Minute)

	tokenStr, err := maker.GenerateToken("uid", "user")
	require.NoError(t, err)

	_, err = maker.ParseToken(tokenStr)
	assert.Error(t, err)
}
