// Achievement HTTP handlers.
//
// This file exposes REST endpoints for the achievement catalog and per-user
// progress:
//   - GET /achievements             (list with viewer status, ETag support)
//   - PUT /achievements/{id}/status (set locked / in-progress / unlocked)
//   - GET /dashboard                (per-user progress summary)
//   - GET /ranking                  (public leaderboard, ETag support)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/auth"
	"github.com/tbourn/go-achievements-backend/internal/domain"
	"github.com/tbourn/go-achievements-backend/internal/http/middleware"
	"github.com/tbourn/go-achievements-backend/internal/repo"
	"github.com/tbourn/go-achievements-backend/internal/services"
	"github.com/tbourn/go-achievements-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AchievementLister returns the catalog overlaid with a viewer's progress.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AchievementLister interface {
	// List returns every achievement with userID's status folded in; an empty
	// userID yields the fully locked catalog.
	List(ctx context.Context, userID string) ([]services.AchievementView, error)
	// Tags returns the sorted set of distinct tags across the catalog.
	Tags(ctx context.Context) ([]string, error)
}

// StatusSetter applies a user's requested status change to one achievement.
type StatusSetter interface {
	// Set moves the achievement identified by identifier into status for actor.
	Set(ctx context.Context, actor auth.Identity, identifier string, status domain.DisplayStatus) error
}

// DashboardSummarizer computes the per-user progress summary.
type DashboardSummarizer interface {
	// Summarize builds the dashboard for one user.
	Summarize(ctx context.Context, userID string) (*services.Dashboard, error)
}

// RankingComputer builds the public leaderboard.
type RankingComputer interface {
	// Compute returns the leaderboard; requesterID may be empty.
	Compute(ctx context.Context, requesterID string) (*services.Ranking, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for achievements, progress, ranking, and
// profiles. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	achSvc     AchievementLister
	statusSvc  StatusSetter
	dashSvc    DashboardSummarizer
	rankSvc    RankingComputer
	profileSvc ProfileManager
}

// New constructs and returns a Handlers instance bound to the given services.
func New(achSvc AchievementLister, statusSvc StatusSetter, dashSvc DashboardSummarizer, rankSvc RankingComputer, profileSvc ProfileManager) *Handlers {
	return &Handlers{
		achSvc:     achSvc,
		statusSvc:  statusSvc,
		dashSvc:    dashSvc,
		rankSvc:    rankSvc,
		profileSvc: profileSvc,
	}
}

//
// DTOs
//

// UpdateStatusRequest is the JSON payload for setting an achievement status.
type UpdateStatusRequest struct {
	// Status is one of: locked, in-progress, unlocked.
	Status string `json:"status" binding:"required" example:"unlocked"`
}

// ListAchievementsResponse wraps the achievement listing.
type ListAchievementsResponse struct {
	Achievements []services.AchievementView `json:"achievements"`
	Total        int                        `json:"total"`
}

// ListTagsResponse wraps the distinct tag listing.
type ListTagsResponse struct {
	Tags []string `json:"tags"`
}

//
// Handlers
//

// ListAchievements godoc
// @ID          listAchievements
// @Summary     List achievements
// @Description Returns the full catalog with the caller's status per achievement. Anonymous callers see everything locked. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Achievements
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer session token"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {object} handlers.ListAchievementsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /achievements [get]
func (h *Handlers) ListAchievements(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	// ETag pre-check (best effort): the fingerprint covers the catalog size
	// and the viewer's latest unlock mutation, so a successful status write
	// always invalidates it.
	if db := h.achievementDB(); db != nil {
		total, err := repo.CountAchievements(ctx, db)
		if err == nil {
			count, maxTS, serr := repo.UnlockStats(ctx, db, uid)
			if serr == nil {
				var ts int64
				if maxTS != nil {
					ts = maxTS.UnixNano()
				}
				etag := fmt.Sprintf(`W/"achievements:%s:%d:%d:%d"`, uid, total, count, ts)
				c.Header("ETag", etag)
				if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}
	}

	views, err := h.achSvc.List(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListAchievementsResponse{Achievements: views, Total: len(views)})
}

// ListTags godoc
// @ID          listTags
// @Summary     List achievement tags
// @Description Returns every distinct tag used by the catalog, sorted, for building tag filters.
// @Tags        Achievements
// @Produce     json
//
// @Success     200  {object} handlers.ListTagsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /tags [get]
func (h *Handlers) ListTags(c *gin.Context) {
	tags, err := h.achSvc.Tags(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if tags == nil {
		tags = []string{}
	}
	ok(c, http.StatusOK, ListTagsResponse{Tags: tags})
}

// UpdateStatus godoc
// @ID          updateAchievementStatus
// @Summary     Set achievement status
// @Description Moves one achievement into locked, in-progress, or unlocked for the current user. Locking removes the stored progress row.
// @Tags        Achievements
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer session token"
// @Param       id             path    string  true  "Achievement code or numeric id"  example(EXP_BORN)
// @Param       body           body    handlers.UpdateStatusRequest  true  "New status"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid status or body"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     404  {object} handlers.ErrorResponse "Achievement not found"
// @Failure     409  {object} handlers.ErrorResponse "Status not allowed for this achievement"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /achievements/{id}/status [put]
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err := h.statusSvc.Set(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), domain.DisplayStatus(req.Status))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be locked, in-progress, or unlocked")
	case errors.Is(err, services.ErrAchievementNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "achievement not found")
	case errors.Is(err, services.ErrStatusNotAllowed):
		fail(c, http.StatusConflict, ErrCodeStatusNotAllowed, "this achievement does not support the requested status")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
	}
}

// GetDashboard godoc
// @ID          getDashboard
// @Summary     Progress dashboard
// @Description Returns the caller's unlock counts, earned points, completion rate, and per-category totals.
// @Tags        Achievements
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer session token"
//
// @Success     200  {object} services.Dashboard
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard [get]
func (h *Handlers) GetDashboard(c *gin.Context) {
	d, err := h.dashSvc.Summarize(c.Request.Context(), middleware.UserID(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, d)
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// GetRanking godoc
// @ID          getRanking
// @Summary     Leaderboard
// @Description Returns the public leaderboard. Authenticated callers always see their own standing, even with a private profile. Supports weak ETag via If-None-Match.
// @Tags        Ranking
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer session token"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       limit          query   int     false "Trim the leaderboard to the top N entries"  example(10)
//
// @Success     200  {object} services.Ranking
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /ranking [get]
func (h *Handlers) GetRanking(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	if db := h.rankingDB(); db != nil {
		count, maxTS, err := repo.RankingStats(ctx, db)
		pCount, pMaxTS, perr := repo.ProfileStats(ctx, db)
		if err == nil && perr == nil {
			var ts, pts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			if pMaxTS != nil {
				pts = pMaxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"ranking:%s:%d:%d:%d:%d"`, uid, count, ts, pCount, pts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	r, err := h.rankSvc.Compute(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	// Optional ?limit=N trims the board; the caller's own entry survives via
	// own_entry regardless.
	if limit := utils.AtoiDefault(c.Query("limit"), 0); limit > 0 && limit < len(r.Entries) {
		r.Entries = r.Entries[:limit]
	}
	ok(c, http.StatusOK, r)
}

// achievementDB returns the underlying DB handle when the concrete listing
// service is in use (ETag support); nil otherwise.
func (h *Handlers) achievementDB() *gorm.DB {
	if svc, isConcrete := h.achSvc.(*services.AchievementService); isConcrete {
		return svc.DB
	}
	return nil
}

// rankingDB returns the underlying DB handle when the concrete ranking
// service is in use (ETag support); nil otherwise.
func (h *Handlers) rankingDB() *gorm.DB {
	if svc, isConcrete := h.rankSvc.(*services.RankingService); isConcrete {
		return svc.DB
	}
	return nil
}
