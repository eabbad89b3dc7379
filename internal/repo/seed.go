// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file imports the admin catalog into the achievements
// reference table at boot.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-achievements-backend/internal/domain"
)

// SeedAchievements upserts the given reference rows keyed by external code.
// Rows already present keep their surrogate key, so unlock rows pointing at
// them survive reseeding. Catalog entries without a code are inserted only
// when the table has no row with the same title.
func SeedAchievements(ctx context.Context, db *gorm.DB, items []domain.Achievement) error {
	for i := range items {
		a := items[i]
		if a.Code != nil && *a.Code != "" {
			err := db.WithContext(ctx).
				Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "code"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"category", "title", "description", "base_points",
						"difficulty", "estimated_time", "icon_path",
						"is_official", "tags", "allowed_statuses", "updated_at",
					}),
				}).
				Create(&a).Error
			if err != nil {
				return err
			}
			continue
		}

		var count int64
		if err := db.WithContext(ctx).
			Model(&domain.Achievement{}).
			Where("title = ?", a.Title).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.WithContext(ctx).Create(&a).Error; err != nil {
			return err
		}
	}
	return nil
}
