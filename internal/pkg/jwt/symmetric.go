package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTTL = 24 * time.Hour

	minHS512KeyLen = 64
)

// Symmetric signs and verifies HS512 tokens with one shared secret.
type Symmetric struct {
	cfg    Config
	now    func() time.Time
	parser *libJWT.Parser
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock.Now
	}

	parser := libJWT.NewParser(
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuer(cfg.Issuer),
		libJWT.WithAudience(cfg.Audiences...),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(now),
	)

	return &Symmetric{cfg: cfg, now: now, parser: parser}, nil
}

func (s *Symmetric) Generate(principalID int64, email string) (Token, error) {
	now := s.now()
	exp := now.Add(s.cfg.TTL)

	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.cfg.UUID.Generate(),
			Subject:   strconv.FormatInt(principalID, 10),
			Issuer:    s.cfg.Issuer,
			Audience:  s.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(exp),
		},
		PrincipalID: principalID,
		Email:       email,
	}

	signed, err := libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Verify returns ErrTokenExpired for an otherwise valid token past its
// expiry and ErrInvalidToken for everything else.
func (s *Symmetric) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := s.parser.ParseWithClaims(token, &claims, func(*libJWT.Token) (any, error) {
		return s.cfg.Secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case claims.ID == "":
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
