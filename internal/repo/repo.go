package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/cocoiru/internal/hash"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type GormRepo struct {
	DB     *gorm.DB
	Hasher hash.Hasher
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
