// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Achievement
// reference table.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an achievement is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListAchievements returns every achievement ordered by surrogate key
// ascending. It returns an empty slice when the table is empty.
func ListAchievements(ctx context.Context, db *gorm.DB) ([]domain.Achievement, error) {
	var out []domain.Achievement
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// CountAchievements returns the total number of defined achievements. This is
// the denominator for achievement-rate computations.
func CountAchievements(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Achievement{}).Count(&total).Error
	return total, err
}

// GetAchievementByCode fetches an achievement by its external code.
// Returns ErrNotFound when no row carries that code.
func GetAchievementByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Achievement, error) {
	var a domain.Achievement
	err := db.WithContext(ctx).Where("code = ?", code).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAchievementByID fetches an achievement by its numeric surrogate key.
// Returns ErrNotFound when the row does not exist.
func GetAchievementByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Achievement, error) {
	var a domain.Achievement
	err := db.WithContext(ctx).First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// PointsByAchievementID returns a lookup from achievement surrogate key to
// point value, covering every achievement. Used by the ranking aggregation.
func PointsByAchievementID(ctx context.Context, db *gorm.DB) (map[uint]int, error) {
	var rows []struct {
		ID         uint
		BasePoints int
	}
	err := db.WithContext(ctx).
		Model(&domain.Achievement{}).
		Select("id", "base_points").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int, len(rows))
	for _, r := range rows {
		out[r.ID] = r.BasePoints
	}
	return out, nil
}

// CreateAchievement inserts a new achievement row. Unique-code violations
// propagate as raw DB errors; the catalog layer validates duplicates before
// reaching this point.
func CreateAchievement(ctx context.Context, db *gorm.DB, a *domain.Achievement) error {
	return db.WithContext(ctx).Create(a).Error
}

// UpdateAchievement overwrites the mutable columns of an achievement
// identified by id. Returns ErrNotFound when no row was affected.
func UpdateAchievement(ctx context.Context, db *gorm.DB, id uint, a *domain.Achievement) error {
	res := db.WithContext(ctx).
		Model(&domain.Achievement{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"code":             a.Code,
			"category":         a.Category,
			"title":            a.Title,
			"description":      a.Description,
			"base_points":      a.BasePoints,
			"difficulty":       a.Difficulty,
			"estimated_time":   a.EstimatedTime,
			"icon_path":        a.IconPath,
			"is_official":      a.IsOfficial,
			"allowed_statuses": a.AllowedStatuses,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAchievement removes an achievement row by surrogate key. Returns
// ErrNotFound when the row does not exist.
func DeleteAchievement(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Achievement{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
