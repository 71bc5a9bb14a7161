package jwt

import (
	"errors"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric signs and verifies HS512 assertions. The identity client uses
// it to mint short-lived client assertions carrying this service's id as
// the subject.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
}

// NewHS512 returns a Symmetric signer. The secret must be at least 64
// bytes, matching the HS512 block size.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}
	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}, nil
}

// Generate signs a fresh assertion for subject, valid from now until
// now+TTL with a unique token id.
func (s *Symmetric) Generate(subject string) (string, error) {
	if len(s.secret) < 64 {
		return "", ErrSigningKeyTooShort
	}

	now := s.clock.Now()
	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.secret)
}

// Verify parses tokenStr, enforcing HS512, the configured issuer and
// audiences, and a required expiry.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	if len(s.secret) < 64 {
		return Claims{}, ErrSigningKeyTooShort
	}

	var claims Claims
	token, err := libJWT.ParseWithClaims(tokenStr, &claims,
		func(t *libJWT.Token) (any, error) {
			if t.Method != libJWT.SigningMethodHS512 {
				return nil, ErrInvalidSigningMethod
			}
			return s.secret, nil
		},
		libJWT.WithIssuer(s.issuer),
		libJWT.WithAudience(s.audiences...),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
