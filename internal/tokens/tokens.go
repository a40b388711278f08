package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalid        = errors.New("invalid or expired token")
	ErrInvalidPayload = errors.New("invalid token payload")
)

const DefaultTTL = 10800 * time.Second

// Config is passed explicitly to both Issuer and Verifier so they always agree.
type Config struct {
	Secret    []byte
	Algorithm string
	TTL       time.Duration
	Now       func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultTTL
}

func (c Config) method() (*jwt.SigningMethodHMAC, error) {
	if len(c.Secret) == 0 {
		return nil, errors.New("signing secret is empty")
	}
	alg := c.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	return SigningMethod(alg)
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SigningMethod resolves an HMAC algorithm name. Asymmetric algorithms are rejected.
func SigningMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch alg {
	case jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	}
	return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
}

// Fingerprint is the stored form of a token on the revocation list.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
