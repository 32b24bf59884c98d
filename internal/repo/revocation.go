package repo

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/pkg/tokens"
)

// Revoke appends jti to the denylist. Revoking twice is a no-op.
func (r *GormRepo) Revoke(ctx context.Context, jti string, kind tokens.Kind, expiresAt time.Time) error {
	entry := models.RevokedToken{
		JTI:       jti,
		Kind:      string(kind),
		ExpiresAt: expiresAt,
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&entry).Error
}

func (r *GormRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
