package service

import (
	"errors"

	"github.com/Skotchmaster/cocoiru/internal/repo"
	"github.com/Skotchmaster/cocoiru/internal/tokens"
)

var (
	ErrMissingToken        = errors.New("missing token")
	ErrRevoked             = errors.New("token revoked")
	ErrInvalidToken        = tokens.ErrInvalid
	ErrInvalidPayload      = tokens.ErrInvalidPayload
	ErrInsufficientRole    = errors.New("insufficient role")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingDiscriminant = errors.New("missing discriminant field")
	ErrValidation          = errors.New("validation error")
	ErrConflict            = repo.ErrConflict
	ErrNotFound            = repo.ErrNotFound
)

// IsUnauthenticated reports whether err should surface as a 401 on a guarded route.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrRevoked) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrInvalidPayload)
}
