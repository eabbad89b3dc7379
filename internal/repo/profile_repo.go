// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model and the public-profile projection used by the leaderboard.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/domain"
)

// GetProfile fetches the profile owned by userID, or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a new profile row. CreatedAt is set to UTC.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	p.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(p).Error
}

// UpdateProfile sets the visibility flag and, when displayName is non-nil,
// the display name for userID. Returns ErrNotFound when no profile row exists.
func UpdateProfile(ctx context.Context, db *gorm.DB, userID string, displayName *string, isPublic bool) error {
	values := map[string]any{
		"is_public":  isPublic,
		"updated_at": time.Now().UTC(),
	}
	if displayName != nil {
		values["display_name"] = *displayName
	}
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", userID).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPublicProfiles returns every profile whose owner opted into the public
// leaderboard. This is the Go-side equivalent of the filtered profile view
// the store exposes.
func ListPublicProfiles(ctx context.Context, db *gorm.DB) ([]domain.Profile, error) {
	var out []domain.Profile
	err := db.WithContext(ctx).
		Where("is_public = ?", true).
		Find(&out).Error
	return out, err
}
