package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/auth"
	"github.com/tbourn/go-achievements-backend/internal/domain"
	"github.com/tbourn/go-achievements-backend/internal/repo"
)

// ProfileService reads and updates player profiles. Profiles are created
// lazily on first read so a user who authenticated but never touched an
// achievement still gets one.
type ProfileService struct {
	DB *gorm.DB
}

// Get returns the actor's profile, creating it from the identity metadata
// when absent. New profiles default to private.
func (s *ProfileService) Get(ctx context.Context, actor auth.Identity) (*domain.Profile, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	p, err := repo.GetProfile(ctx, s.DB, actor.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	name := auth.DefaultDisplayName(actor)
	fresh := &domain.Profile{
		ID:          actor.ID,
		DisplayName: &name,
		IsPublic:    false,
	}
	if actor.AvatarURL != "" {
		avatar := actor.AvatarURL
		fresh.AvatarURL = &avatar
	}
	if err := repo.CreateProfile(ctx, s.DB, fresh); err != nil {
		// Lost a create race; the other writer's row wins.
		if p, gerr := repo.GetProfile(ctx, s.DB, actor.ID); gerr == nil {
			return p, nil
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return fresh, nil
}

// ProfileUpdate carries the caller-editable profile fields.
type ProfileUpdate struct {
	DisplayName *string
	IsPublic    bool
}

// Update applies a profile edit. The profile is created first when missing so
// an update never 404s for an authenticated user.
func (s *ProfileService) Update(ctx context.Context, actor auth.Identity, upd ProfileUpdate) (*domain.Profile, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	if _, err := s.Get(ctx, actor); err != nil {
		return nil, err
	}
	if err := repo.UpdateProfile(ctx, s.DB, actor.ID, upd.DisplayName, upd.IsPublic); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	p, err := repo.GetProfile(ctx, s.DB, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}
	return p, nil
}
