package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/cocoiru/internal/models"
)

// CreateGovUser stores the account and its credential in one transaction.
// A taken username is ErrConflict and leaves no credential behind.
func (r *GormRepo) CreateGovUser(ctx context.Context, u *models.GovUser, password string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GovUser{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if count > 0 {
			return ErrConflict
		}

		credID, err := r.createCredential(tx, password)
		if err != nil {
			return err
		}
		u.CredentialID = credID
		if err := tx.Create(u).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %w", ErrConflict, err)
			}
			return fmt.Errorf("create gov user: %w", err)
		}
		return nil
	})
}

func (r *GormRepo) GetGovUserByUsername(ctx context.Context, username string) (*models.GovUser, error) {
	var u models.GovUser
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load gov user: %w", err)
	}
	return &u, nil
}
