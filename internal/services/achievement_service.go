package services

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/domain"
	"github.com/tbourn/go-achievements-backend/internal/repo"
)

// AchievementView is the read model for a single achievement as presented to
// a user: the catalog row merged with that user's current display status.
type AchievementView struct {
	ID              string                 `json:"id"`
	Category        string                 `json:"category"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Points          int                    `json:"points"`
	Difficulty      string                 `json:"difficulty"`
	EstimatedTime   string                 `json:"estimated_time"`
	Icon            string                 `json:"icon,omitempty"`
	IsOfficial      bool                   `json:"is_official"`
	Tags            []string               `json:"tags,omitempty"`
	Status          domain.DisplayStatus   `json:"status"`
	AllowedStatuses []domain.DisplayStatus `json:"allowed_statuses"`
	UnlockedAt      string                 `json:"unlocked_at,omitempty"`
}

// AchievementService lists the catalog overlaid with a user's progress.
type AchievementService struct {
	DB *gorm.DB
}

// List returns every achievement with the viewer's status folded in. An empty
// userID yields the catalog with every status reported as locked. Achievements
// without a stored unlock row are locked; absence is the locked state.
func (s *AchievementService) List(ctx context.Context, userID string) ([]AchievementView, error) {
	achievements, err := repo.ListAchievements(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}

	statuses := make(map[uint]domain.Unlock)
	if userID != "" {
		unlocks, err := repo.ListUnlocksByUser(ctx, s.DB, userID)
		if err != nil {
			return nil, fmt.Errorf("list unlocks: %w", err)
		}
		for _, u := range unlocks {
			statuses[u.AchievementID] = u
		}
	}

	views := make([]AchievementView, 0, len(achievements))
	for _, a := range achievements {
		v := AchievementView{
			ID:              a.PublicID(),
			Category:        a.Category,
			Title:           a.Title,
			Description:     a.Description,
			Points:          a.BasePoints,
			Difficulty:      a.Difficulty,
			EstimatedTime:   a.EstimatedTime,
			Icon:            a.IconPath,
			IsOfficial:      a.IsOfficial,
			Tags:            a.TagList(),
			Status:          domain.StatusLocked,
			AllowedStatuses: a.AllowedDisplayStatuses(),
		}
		if u, ok := statuses[a.ID]; ok {
			v.Status = domain.PersistedStatus(u.Status).Display()
			if u.UnlockedAt != nil {
				v.UnlockedAt = u.UnlockedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// Tags returns every distinct tag used across the catalog, sorted, so clients
// can offer tag filters without scanning the full listing.
func (s *AchievementService) Tags(ctx context.Context) ([]string, error) {
	achievements, err := repo.ListAchievements(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	seen := make(map[string]struct{})
	var tags []string
	for _, a := range achievements {
		for _, t := range a.TagList() {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags, nil
}
