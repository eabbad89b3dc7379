// Package services – RankingService
//
// This file implements the leaderboard aggregation: a pure read that groups
// COMPLETED unlock rows by user, sums point values, joins in public profiles,
// and always includes the requesting user's own standing even when their
// profile is not public. It performs no mutation and is safe to call
// repeatedly and concurrently.
package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/repo"
)

const (
	// fallbackDisplayName is shown for public profiles without a name.
	fallbackDisplayName = "Anonymous Player"
	// fallbackOwnName is shown for the requester's own entry when their
	// profile has no display name.
	fallbackOwnName = "You"
	// fallbackAvatar is shown when no avatar is set.
	fallbackAvatar = "😊"
)

// RankingEntry is one leaderboard line. It is derived, never persisted.
type RankingEntry struct {
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	Avatar          string `json:"avatar"`
	TotalPoints     int    `json:"total_points"`
	UnlockedCount   int    `json:"unlocked_count"`
	AchievementRate int    `json:"achievement_rate"`
	IsCurrentUser   bool   `json:"is_current_user,omitempty"`
}

// Ranking is the full leaderboard result.
type Ranking struct {
	Entries []RankingEntry `json:"entries"`
	// OwnEntry is the requester's standing, nil for anonymous callers. It is
	// returned separately for UI highlighting even when the same user also
	// appears in Entries.
	OwnEntry          *RankingEntry `json:"own_entry,omitempty"`
	TotalAchievements int64         `json:"total_achievement_count"`
}

// RankingService computes leaderboards over the unlocks and profiles tables.
type RankingService struct {
	// DB is the GORM handle used for reads.
	DB *gorm.DB
}

// userTotals is the per-user aggregate over COMPLETED unlocks.
type userTotals struct {
	points   int
	unlocked int
}

// Compute builds the leaderboard. requesterID may be empty for anonymous
// callers, in which case OwnEntry is nil and only public profiles appear.
//
// Ordering is deterministic: TotalPoints descending, then UnlockedCount
// descending, then UserID ascending.
func (s *RankingService) Compute(ctx context.Context, requesterID string) (*Ranking, error) {
	total, err := repo.CountAchievements(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("count achievements: %w", err)
	}
	points, err := repo.PointsByAchievementID(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("load point values: %w", err)
	}
	completed, err := repo.ListCompletedUnlocks(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("load completed unlocks: %w", err)
	}

	// Group completed unlocks by user. Unknown achievement ids contribute 0
	// points but still count as unlocks.
	totals := make(map[string]userTotals)
	for _, u := range completed {
		t := totals[u.UserID]
		t.points += points[u.AchievementID]
		t.unlocked++
		totals[u.UserID] = t
	}

	public, err := repo.ListPublicProfiles(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("load public profiles: %w", err)
	}

	entries := make([]RankingEntry, 0, len(public)+1)
	seen := make(map[string]bool, len(public))
	for _, p := range public {
		t := totals[p.ID]
		entries = append(entries, RankingEntry{
			UserID:          p.ID,
			Name:            displayOr(p.DisplayName, fallbackDisplayName),
			Avatar:          displayOr(p.AvatarURL, fallbackAvatar),
			TotalPoints:     t.points,
			UnlockedCount:   t.unlocked,
			AchievementRate: achievementRate(t.unlocked, total),
			IsCurrentUser:   p.ID == requesterID,
		})
		seen[p.ID] = true
	}

	var own *RankingEntry
	if requesterID != "" {
		t := totals[requesterID]
		entry := RankingEntry{
			UserID:          requesterID,
			Name:            fallbackOwnName,
			Avatar:          fallbackAvatar,
			TotalPoints:     t.points,
			UnlockedCount:   t.unlocked,
			AchievementRate: achievementRate(t.unlocked, total),
			IsCurrentUser:   true,
		}
		if p, err := repo.GetProfile(ctx, s.DB, requesterID); err == nil {
			entry.Name = displayOr(p.DisplayName, fallbackOwnName)
			entry.Avatar = displayOr(p.AvatarURL, fallbackAvatar)
		}
		own = &entry
		if !seen[requesterID] {
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.UnlockedCount != b.UnlockedCount {
			return a.UnlockedCount > b.UnlockedCount
		}
		return a.UserID < b.UserID
	})

	return &Ranking{Entries: entries, OwnEntry: own, TotalAchievements: total}, nil
}

// achievementRate returns round(100 * unlocked / total), and 0 when there are
// no achievements at all.
func achievementRate(unlocked int, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(unlocked) * 100 / float64(total)))
}

// displayOr dereferences an optional string column, substituting a fallback
// for nil or empty values.
func displayOr(v *string, fallback string) string {
	if v != nil && *v != "" {
		return *v
	}
	return fallback
}
