package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("64f1c0ffee", "secret")
	require.NoError(t, err)

	userID, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "64f1c0ffee", userID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("64f1c0ffee", "secret")
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "64f1c0ffee",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken(expired, "secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", "secret")
	assert.Error(t, err)
}
