package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("user123", "user@example.com", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user123", claims.UserID)
	require.Equal(t, "user@example.com", claims.Email)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("user123", "", []byte("right"), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, []byte("wrong"))
	require.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("user123", "", secret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(token, secret)
	require.Error(t, err)
}
