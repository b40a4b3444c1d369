package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Pair is an access/refresh token pair as issued by the backend.
//
// The access token value may be handed to the browser; the refresh token
// is held server-side in a cookie and must never leave in real form.
type Pair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// PlaceholderRefreshToken is the client-visible stand-in for a real
// refresh token. A client sending it back signals "use the refresh token
// you hold for me" without ever having seen the secret.
const PlaceholderRefreshToken = "dummy"

// ForClient projects the pair into its client-visible form: same access
// token, placeholder in place of the refresh secret.
func (p Pair) ForClient() Pair {
	return Pair{Token: p.Token, RefreshToken: PlaceholderRefreshToken}
}

var ErrNoLifetimeClaims = errors.New("tokens: access token missing exp/iat claims")

// Lifetime is the scheduling-relevant slice of an access token's claims.
type Lifetime struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Total returns the token's full validity window.
func (l Lifetime) Total() time.Duration {
	return l.ExpiresAt.Sub(l.IssuedAt)
}

// DecodeLifetime reads exp/iat from an access token WITHOUT verifying its
// signature. The backend is the authority on token validity; this decode
// exists only so the relay can schedule refreshes. Callers must never use
// it as an authorization check.
func DecodeLifetime(token string) (Lifetime, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Lifetime{}, err
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return Lifetime{}, ErrNoLifetimeClaims
	}
	return Lifetime{
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
