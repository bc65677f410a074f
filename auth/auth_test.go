package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestResolve_PassThroughWithoutSecret(t *testing.T) {
	v := NewVerifier("")

	got, err := v.Resolve("plain-user-id")
	require.NoError(t, err)
	assert.Equal(t, "plain-user-id", got)
}

func TestResolve_ValidToken(t *testing.T) {
	v := NewVerifier("shhh")
	token := signToken(t, "shhh", jwt.MapClaims{"user_id": "user-42"})

	got, err := v.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", got)
}

func TestResolve_WrongSecret(t *testing.T) {
	v := NewVerifier("shhh")
	token := signToken(t, "other-secret", jwt.MapClaims{"user_id": "user-42"})

	_, err := v.Resolve(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolve_NotAToken(t *testing.T) {
	v := NewVerifier("shhh")

	_, err := v.Resolve("plain-user-id")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolve_MissingUserClaim(t *testing.T) {
	v := NewVerifier("shhh")
	token := signToken(t, "shhh", jwt.MapClaims{"sub": "user-42"})

	_, err := v.Resolve(token)
	assert.ErrorIs(t, err, ErrMissingUser)
}
