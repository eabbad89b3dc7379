// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Unlock
// model: the per-user, per-achievement progress records.
//
// Write semantics follow the absence-means-locked rule:
//
//   - UpsertUnlock(ctx, db, userID, achievementID, status, unlockedAt)
//     Inserts or overwrites the single row keyed by (user, achievement).
//   - DeleteUnlock(ctx, db, userID, achievementID)
//     Removes the row if present; deleting a missing row is not an error.
//
// A locked-equivalent status is therefore never written, only deleted.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-achievements-backend/internal/domain"
)

// UpsertUnlock writes the unlock row for (userID, achievementID), creating it
// when absent and overwriting status and completion timestamp when present.
// The conflict key is the composite unique index on (user_id, achievement_id),
// so a concurrent duplicate insert degrades to an update instead of a second
// row.
func UpsertUnlock(ctx context.Context, db *gorm.DB, userID string, achievementID uint, status domain.PersistedStatus, unlockedAt *time.Time) error {
	now := time.Now().UTC()
	u := &domain.Unlock{
		ID:            uuid.NewString(),
		UserID:        userID,
		AchievementID: achievementID,
		Status:        string(status),
		UnlockedAt:    unlockedAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":      string(status),
				"unlocked_at": unlockedAt,
				"updated_at":  now,
			}),
		}).
		Create(u).Error
}

// DeleteUnlock removes the unlock row for (userID, achievementID). Absence is
// not an error: the operation is idempotent by design.
func DeleteUnlock(ctx context.Context, db *gorm.DB, userID string, achievementID uint) error {
	return db.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Delete(&domain.Unlock{}).Error
}

// GetUnlock fetches the unlock row for (userID, achievementID), or ErrNotFound.
func GetUnlock(ctx context.Context, db *gorm.DB, userID string, achievementID uint) (*domain.Unlock, error) {
	var u domain.Unlock
	err := db.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUnlocksByUser returns every unlock row belonging to userID. Rows for
// achievements the user never touched are absent, which callers render as
// locked.
func ListUnlocksByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Unlock, error) {
	var out []domain.Unlock
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&out).Error
	return out, err
}

// ListCompletedUnlocks returns every COMPLETED unlock row across all users.
// Only completed rows contribute to ranking aggregates.
func ListCompletedUnlocks(ctx context.Context, db *gorm.DB) ([]domain.Unlock, error) {
	var out []domain.Unlock
	err := db.WithContext(ctx).
		Where("status = ?", string(domain.StatusCompleted)).
		Find(&out).Error
	return out, err
}
