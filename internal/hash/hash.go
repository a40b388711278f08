package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrMalformedHash = errors.New("malformed password hash")

// Hasher wraps bcrypt with a configurable cost. The zero value uses bcrypt.DefaultCost.
type Hasher struct {
	Cost int
}

func (h Hasher) cost() int {
	if h.Cost < bcrypt.MinCost || h.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

func (h Hasher) Hash(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashbytes), nil
}

// Verify reports whether password matches hash. A mismatch is (false, nil);
// a stored value bcrypt cannot read is (false, ErrMalformedHash).
func (h Hasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
}

func HashPassword(password string) (string, error) {
	return Hasher{}.Hash(password)
}

func CheckPassword(password, hash string) (bool, error) {
	return Hasher{}.Verify(password, hash)
}
