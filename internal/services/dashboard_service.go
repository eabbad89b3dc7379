package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/domain"
	"github.com/tbourn/go-achievements-backend/internal/repo"
)

// Categories is the fixed category vocabulary, in presentation order.
var Categories = []string{"INT", "WLT", "VIT", "SOC", "EXP"}

// Dashboard summarizes one user's progress over the whole catalog.
type Dashboard struct {
	TotalAchievements int64          `json:"total_achievement_count"`
	UnlockedCount     int            `json:"unlocked_count"`
	InProgressCount   int            `json:"in_progress_count"`
	TotalPoints       int            `json:"total_points"`
	MaxPoints         int            `json:"max_points"`
	AchievementRate   int            `json:"achievement_rate"`
	CategoryPoints    map[string]int `json:"category_points"`
}

// DashboardService computes the per-user progress summary.
type DashboardService struct {
	DB *gorm.DB
}

// Summarize builds the dashboard for one user. Points accrue only from
// COMPLETED unlocks; rows in other states count toward InProgressCount but
// contribute nothing. CategoryPoints always carries every category, zero
// valued when nothing is unlocked there.
func (s *DashboardService) Summarize(ctx context.Context, userID string) (*Dashboard, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	achievements, err := repo.ListAchievements(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	unlocks, err := repo.ListUnlocksByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}

	byID := make(map[uint]domain.Achievement, len(achievements))
	d := &Dashboard{
		TotalAchievements: int64(len(achievements)),
		CategoryPoints:    make(map[string]int, len(Categories)),
	}
	for _, c := range Categories {
		d.CategoryPoints[c] = 0
	}
	for _, a := range achievements {
		byID[a.ID] = a
		d.MaxPoints += a.BasePoints
	}

	for _, u := range unlocks {
		switch domain.PersistedStatus(u.Status) {
		case domain.StatusCompleted:
			d.UnlockedCount++
			if a, ok := byID[u.AchievementID]; ok {
				d.TotalPoints += a.BasePoints
				d.CategoryPoints[a.Category] += a.BasePoints
			}
		case domain.StatusChallenging:
			d.InProgressCount++
		}
	}

	d.AchievementRate = achievementRate(d.UnlockedCount, d.TotalAchievements)
	return d, nil
}
