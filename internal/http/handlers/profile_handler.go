// Profile HTTP handlers.
//
// This file exposes REST endpoints for the caller's own profile:
//   - GET /profile  (read, lazily created on first access)
//   - PUT /profile  (rename, toggle leaderboard visibility)
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-achievements-backend/internal/auth"
	"github.com/tbourn/go-achievements-backend/internal/domain"
	"github.com/tbourn/go-achievements-backend/internal/http/middleware"
	"github.com/tbourn/go-achievements-backend/internal/services"
)

// ProfileManager reads and updates player profiles.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ProfileManager interface {
	// Get returns the actor's profile, creating it on first access.
	Get(ctx context.Context, actor auth.Identity) (*domain.Profile, error)
	// Update applies a profile edit.
	Update(ctx context.Context, actor auth.Identity, upd services.ProfileUpdate) (*domain.Profile, error)
}

// UpdateProfileRequest is the JSON payload for editing the caller's profile.
type UpdateProfileRequest struct {
	// DisplayName replaces the shown name when present (1-120 chars).
	DisplayName *string `json:"display_name" example:"Jane"`
	// IsPublic opts the profile in or out of the public leaderboard.
	IsPublic bool `json:"is_public" example:"true"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Read own profile
// @Description Returns the caller's profile, creating it from the session identity when absent.
// @Tags        Profile
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer session token"
//
// @Success     200  {object} domain.Profile
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profileSvc.Get(c.Request.Context(), middleware.IdentityFrom(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, p)
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Edit own profile
// @Description Sets the display name and leaderboard visibility for the caller.
// @Tags        Profile
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer session token"
// @Param       body           body    handlers.UpdateProfileRequest  true "Profile changes"
//
// @Success     200  {object} domain.Profile
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" || len(name) > 120 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "display_name must be 1-120 characters")
			return
		}
		req.DisplayName = &name
	}

	p, err := h.profileSvc.Update(c.Request.Context(), middleware.IdentityFrom(c), services.ProfileUpdate{
		DisplayName: req.DisplayName,
		IsPublic:    req.IsPublic,
	})
	switch {
	case err == nil:
		ok(c, http.StatusOK, p)
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
	}
}
