// Package services – StatusService
//
// This file implements the StatusService, the reconciler that turns a
// caller's requested display status for one achievement into a durable
// mutation. It resolves the achievement identifier (external code first,
// numeric surrogate second), enforces the per-achievement allowed-status
// restriction, lazily creates the actor's profile, and applies the write as
// an upsert or a delete: a locked target deletes the unlock row, anything
// else overwrites it in place. Service-level errors (ErrUnauthenticated,
// ErrAchievementNotFound, ErrInvalidStatus, ErrStatusNotAllowed) are returned
// for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/auth"
	"github.com/tbourn/go-achievements-backend/internal/domain"
	"github.com/tbourn/go-achievements-backend/internal/repo"
)

// StatusService applies user-requested achievement status changes. It is
// stateless between calls; all state lives in the database.
type StatusService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Set records that actor wants the achievement identified by identifier in
// the given display status.
//
// Semantics:
//   - actor must carry a non-empty ID; otherwise ErrUnauthenticated (no mutation).
//   - identifier resolves by external code first, then, if no code matches,
//     as the decimal surrogate key. Neither match yields ErrAchievementNotFound.
//   - A missing profile is created best-effort with a display name derived
//     from the actor's identity and public visibility off; a creation failure
//     is logged and the status update proceeds.
//   - A status outside the display vocabulary yields ErrInvalidStatus; one
//     outside the achievement's allowed set yields ErrStatusNotAllowed.
//     Neither mutates the store.
//   - locked deletes the unlock row (deleting an absent row is a no-op);
//     other statuses upsert the row keyed on (user, achievement), setting the
//     completion timestamp only when the persisted status is COMPLETED.
//
// Re-applying the current status is not short-circuited: it flows through the
// same delete/upsert path and leaves the same persisted record.
func (s *StatusService) Set(ctx context.Context, actor auth.Identity, identifier string, status domain.DisplayStatus) error {
	if actor.ID == "" {
		return ErrUnauthenticated
	}
	persisted, ok := status.Persisted()
	if !ok {
		return ErrInvalidStatus
	}

	ach, err := s.resolve(ctx, identifier)
	if err != nil {
		return err
	}
	if !ach.Allows(status) {
		return ErrStatusNotAllowed
	}

	s.ensureProfile(ctx, actor)

	if persisted == domain.StatusDropped {
		if err := repo.DeleteUnlock(ctx, s.DB, actor.ID, ach.ID); err != nil {
			return fmt.Errorf("delete unlock: %w", err)
		}
		return nil
	}

	var unlockedAt *time.Time
	if persisted == domain.StatusCompleted {
		now := time.Now().UTC()
		unlockedAt = &now
	}
	if err := repo.UpsertUnlock(ctx, s.DB, actor.ID, ach.ID, persisted, unlockedAt); err != nil {
		return fmt.Errorf("upsert unlock: %w", err)
	}
	return nil
}

// resolve maps an external identifier to an achievement row: code first,
// numeric surrogate as fallback. A code that happens to look like a number
// therefore shadows the row with that surrogate key.
func (s *StatusService) resolve(ctx context.Context, identifier string) (*domain.Achievement, error) {
	ach, err := repo.GetAchievementByCode(ctx, s.DB, identifier)
	if err == nil {
		return ach, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("resolve achievement: %w", err)
	}

	id, perr := strconv.ParseUint(identifier, 10, 32)
	if perr != nil {
		return nil, ErrAchievementNotFound
	}
	ach, err = repo.GetAchievementByID(ctx, s.DB, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAchievementNotFound
		}
		return nil, fmt.Errorf("resolve achievement: %w", err)
	}
	return ach, nil
}

// ensureProfile creates the actor's profile if absent. Failures are logged
// and swallowed: profile creation is decoupled from the status write.
func (s *StatusService) ensureProfile(ctx context.Context, actor auth.Identity) {
	if _, err := repo.GetProfile(ctx, s.DB, actor.ID); err == nil {
		return
	} else if !errors.Is(err, repo.ErrNotFound) {
		log.Warn().Err(err).Str("user_id", actor.ID).Msg("profile lookup failed")
		return
	}

	name := auth.DefaultDisplayName(actor)
	p := &domain.Profile{ID: actor.ID, DisplayName: &name, IsPublic: false}
	if actor.AvatarURL != "" {
		avatar := actor.AvatarURL
		p.AvatarURL = &avatar
	}
	if err := repo.CreateProfile(ctx, s.DB, p); err != nil {
		log.Warn().Err(err).Str("user_id", actor.ID).Msg("profile auto-creation failed")
	}
}
