package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/cocoiru/internal/models"
)

// CreateCommunity stores the community and its credential in one transaction.
func (r *GormRepo) CreateCommunity(ctx context.Context, c *models.Community, password string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		credID, err := r.createCredential(tx, password)
		if err != nil {
			return err
		}
		c.CredentialID = credID
		if err := tx.Create(c).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %w", ErrConflict, err)
			}
			return fmt.Errorf("create community: %w", err)
		}
		return nil
	})
}

func (r *GormRepo) GetCommunity(ctx context.Context, id uint) (*models.Community, error) {
	var c models.Community
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load community: %w", err)
	}
	return &c, nil
}

func (r *GormRepo) ListCommunities(ctx context.Context, offset, limit int) ([]models.Community, error) {
	var out []models.Community
	if err := r.DB.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	return out, nil
}
