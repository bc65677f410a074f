// Package auth resolves the user identity carried by the identify action.
// When a shared secret is configured, the identify field must be an HS256
// token carrying a user_id claim; otherwise it is taken as a plain id
// supplied by the upstream session provider.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity resolution errors.
var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrMissingUser  = errors.New("token has no user_id claim")
)

// Verifier resolves identify values to user ids.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a verifier for the given shared secret. An empty
// secret yields a pass-through verifier that trusts plain user ids.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return &Verifier{}
	}
	return &Verifier{secret: []byte(secret)}
}

// Resolve maps an identify value to a user id. With no secret configured
// the value passes through unchanged.
func (v *Verifier) Resolve(value string) (string, error) {
	if len(v.secret) == 0 {
		return value, nil
	}

	token, err := jwt.Parse(value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrMissingUser
	}
	return userID, nil
}
