// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (ETag generation) in the HTTP layer.
// Derived views (achievement list, dashboard, ranking) are recomputed on
// read; these fingerprints are what lets clients detect that a successful
// mutation made their cached copy stale.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/domain"
)

// UnlockStats returns aggregate metadata for a user's unlock rows: the total
// number of rows and the maximum UpdatedAt timestamp among them. When the
// user has no unlocks, count is 0 and maxUpdatedAt is nil.
func UnlockStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Unlock{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// ProfileStats returns aggregate metadata for the profiles table: total row
// count and the maximum UpdatedAt. Visibility toggles and renames change the
// leaderboard output without touching unlocks, so the ranking fingerprint
// folds this in as well.
func ProfileStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Profile{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// RankingStats returns aggregate metadata for the global leaderboard inputs:
// the number of COMPLETED unlock rows across all users and the maximum
// UpdatedAt among them. Any successful status mutation that affects the
// ranking changes at least one of the two.
func RankingStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Unlock{}).Where("status = ?", string(domain.StatusCompleted))

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
