package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg}
}

func (i *Issuer) TTL() time.Duration { return i.cfg.ttl() }

// Issue signs an access token for subject. A zero ttl uses the configured lifetime.
func (i *Issuer) Issue(subject, role string, ttl time.Duration) (string, time.Time, error) {
	method, err := i.cfg.method()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	if ttl <= 0 {
		ttl = i.cfg.ttl()
	}

	now := i.cfg.now()
	exp := now.Add(ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(method, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}
