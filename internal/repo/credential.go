package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/cocoiru/internal/models"
)

func (r *GormRepo) createCredential(tx *gorm.DB, password string) (uint, error) {
	hashed, err := r.Hasher.Hash(password)
	if err != nil {
		return 0, err
	}
	cred := models.Credential{HashedPassword: hashed}
	if err := tx.Create(&cred).Error; err != nil {
		return 0, fmt.Errorf("create credential: %w", err)
	}
	return cred.ID, nil
}

// CreateCredential persists a standalone credential. Registration goes through
// CreateCommunity and CreateGovUser, which create it inside the owner's transaction.
func (r *GormRepo) CreateCredential(ctx context.Context, password string) (uint, error) {
	return r.createCredential(r.DB.WithContext(ctx), password)
}

// VerifyCredential returns false without error when the credential does not exist.
func (r *GormRepo) VerifyCredential(ctx context.Context, id uint, password string) (bool, error) {
	var cred models.Credential
	if err := r.DB.WithContext(ctx).First(&cred, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load credential: %w", err)
	}
	return r.Hasher.Verify(password, cred.HashedPassword)
}
