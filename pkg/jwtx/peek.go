package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PeekClaims decodes the claims of a token WITHOUT verifying its signature.
// Clients use it to display who a stored token belongs to and when it
// expires; it must never be used to make an authorization decision.
func PeekClaims(token string) (Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return c, nil
}

// ExpiresAt returns the "exp" of an unverified token, or the zero time when
// the token carries none or cannot be decoded.
func ExpiresAt(token string) time.Time {
	c, err := PeekClaims(token)
	if err != nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
