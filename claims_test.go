package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-session"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestTokenExpiryReadsExpClaim(t *testing.T) {
	expires := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	token := signedToken(t, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(expires),
	})

	got, err := session.TokenExpiry(token)
	require.NoError(t, err)
	assert.True(t, got.Equal(expires))
}

func TestTokenExpiryIgnoresSignature(t *testing.T) {
	// Expiry extraction is metadata-only; a tampered signature still parses.
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expires),
	}) + "tampered"

	got, err := session.TokenExpiry(token)
	require.NoError(t, err)
	assert.True(t, got.Equal(expires))
}

func TestTokenExpiryRejectsMissingClaim(t *testing.T) {
	token := signedToken(t, jwt.RegisteredClaims{Subject: "u-1"})

	_, err := session.TokenExpiry(token)
	require.Error(t, err)
}

func TestTokenExpiryRejectsGarbage(t *testing.T) {
	_, err := session.TokenExpiry("not-a-token")
	require.Error(t, err)
}
