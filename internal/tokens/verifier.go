package tokens

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Verifier struct {
	cfg Config
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify checks signature, algorithm and expiry, then the sub and role claims.
// Signature and expiry failures are ErrInvalid; missing claims are ErrInvalidPayload.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	method, err := v.cfg.method()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.cfg.now),
	)

	var claims Claims
	tkn, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalid
	}
	if !v.cfg.now().Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, jwt.ErrTokenExpired)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidPayload)
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role", ErrInvalidPayload)
	}
	return &claims, nil
}
