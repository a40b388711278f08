package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/cocoiru/internal/models"
	"github.com/Skotchmaster/cocoiru/internal/tokens"
)

func (r *GormRepo) revoke(db *gorm.DB, token string, expiresAt time.Time) error {
	row := models.RevokedToken{
		TokenHash: tokens.Fingerprint(token),
		RevokedAt: time.Now().UTC(),
		ExpiresAt: expiresAt.Unix(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_hash"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Revoke records token until expiresAt. Revoking the same token twice is a no-op.
func (r *GormRepo) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	return r.revoke(r.DB.WithContext(ctx), token, expiresAt)
}

func (r *GormRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("token_hash = ?", tokens.Fingerprint(token)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}
	return count > 0, nil
}

// Sweep deletes entries that expired before now and reports how many were removed.
func (r *GormRepo) Sweep(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ?", now.Unix()).
		Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep revoked tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
