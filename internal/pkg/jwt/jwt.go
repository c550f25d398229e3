// Package jwt issues HS512 access tokens for principals and carries the
// verified claims through request contexts.
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSigningKeyTooShort = errors.New("jwt: HS512 key must be at least 64 bytes")
	ErrTokenExpired       = errors.New("jwt: token expired")
	ErrInvalidToken       = errors.New("jwt: invalid token")
)

type JWT interface {
	Generate(principalID int64, email string) (Token, error)
	Verify(token string) (Claims, error)
}

type (
	clocker   interface{ Now() time.Time }
	generator interface{ Generate() string }
)

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	// TTL defaults to DefaultTTL.
	TTL   time.Duration
	Clock clocker
	// UUID supplies the jti claim, which logout uses as the revocation key.
	UUID generator
}

type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Claims carries the principal alongside the registered claims. The
// principal ID is encoded as a string so JavaScript clients keep precision.
type Claims struct {
	jwt.RegisteredClaims
	PrincipalID int64  `json:"pid,string"`
	Email       string `json:"email"`
}

// RemainingTTL is the time left before expiry, never negative.
func (c Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(c.ExpiresAt.Sub(now), 0)
}

type authKey struct{}

// SetAuth attaches verified claims to ctx.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}

// GetAuth returns the claims set by the authentication middleware, or nil
// on public routes.
func GetAuth(ctx context.Context) *Claims {
	if clm, ok := ctx.Value(authKey{}).(Claims); ok {
		return &clm
	}
	return nil
}
