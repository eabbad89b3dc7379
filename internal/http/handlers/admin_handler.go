// Admin catalog HTTP handlers.
//
// This file exposes CRUD endpoints over the file-backed achievement catalog:
//   - GET    /admin/achievements      (list)
//   - POST   /admin/achievements      (add, 201)
//   - PUT    /admin/achievements/{id} (update)
//   - DELETE /admin/achievements/{id} (remove)
//
// Writes go to the catalog file first and are then re-seeded into the
// relational achievements table so the public endpoints pick them up without
// a restart.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/catalog"
	"github.com/tbourn/go-achievements-backend/internal/http/middleware"
	"github.com/tbourn/go-achievements-backend/internal/repo"
)

// AdminHandlers groups the catalog management endpoints. They are wired
// separately from the public Handlers because they carry their own
// dependencies (the catalog store and a DB handle for re-seeding).
type AdminHandlers struct {
	Store *catalog.Store
	DB    *gorm.DB
}

// NewAdmin constructs AdminHandlers bound to the given store and database.
func NewAdmin(store *catalog.Store, db *gorm.DB) *AdminHandlers {
	return &AdminHandlers{Store: store, DB: db}
}

// reseed pushes the current catalog into the achievements table. Failures are
// reported to the client: the file write already succeeded, so the DB will
// catch up at next boot, but the caller should know the live view is stale.
func (a *AdminHandlers) reseed(c *gin.Context) bool {
	if err := repo.SeedAchievements(c.Request.Context(), a.DB, a.Store.Achievements()); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("catalog reseed failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "catalog saved but database sync failed")
		return false
	}
	return true
}

// ListCatalog godoc
// @ID          adminListAchievements
// @Summary     List catalog records
// @Tags        Admin
// @Produce     json
// @Success     200  {array}  catalog.Record
// @Router      /admin/achievements [get]
func (a *AdminHandlers) ListCatalog(c *gin.Context) {
	ok(c, http.StatusOK, a.Store.List())
}

// CreateCatalogRecord godoc
// @ID          adminCreateAchievement
// @Summary     Add a catalog record
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body  catalog.Record  true  "New record"
// @Success     201  {object} catalog.Record
// @Failure     400  {object} handlers.ErrorResponse "Validation failed or duplicate id"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/achievements [post]
func (a *AdminHandlers) CreateCatalogRecord(c *gin.Context) {
	var rec catalog.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := a.Store.Add(rec); err != nil {
		a.failCatalog(c, err)
		return
	}
	if !a.reseed(c) {
		return
	}
	ok(c, http.StatusCreated, rec)
}

// UpdateCatalogRecord godoc
// @ID          adminUpdateAchievement
// @Summary     Update a catalog record
// @Description The record id is immutable; an id supplied in the body is ignored.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       id    path  string          true  "Record id"
// @Param       body  body  catalog.Record  true  "Changed fields"
// @Success     200  {object} catalog.Record
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/achievements/{id} [put]
func (a *AdminHandlers) UpdateCatalogRecord(c *gin.Context) {
	var rec catalog.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	updated, err := a.Store.Update(c.Param("id"), rec)
	if err != nil {
		a.failCatalog(c, err)
		return
	}
	if !a.reseed(c) {
		return
	}
	ok(c, http.StatusOK, updated)
}

// DeleteCatalogRecord godoc
// @ID          adminDeleteAchievement
// @Summary     Remove a catalog record
// @Tags        Admin
// @Produce     json
// @Param       id  path  string  true  "Record id"
// @Success     200  {object} catalog.Record "The removed record"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/achievements/{id} [delete]
func (a *AdminHandlers) DeleteCatalogRecord(c *gin.Context) {
	removed, err := a.Store.Delete(c.Param("id"))
	if err != nil {
		a.failCatalog(c, err)
		return
	}
	// Deleting from the catalog does not cascade into the achievements table:
	// users may hold unlocks against the row. The seed import is additive.
	ok(c, http.StatusOK, removed)
}

// failCatalog maps catalog store errors to HTTP responses.
func (a *AdminHandlers) failCatalog(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownID):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "catalog record not found")
	case errors.Is(err, catalog.ErrDuplicateID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "a record with this id already exists")
	case errors.Is(err, catalog.ErrMissingFields),
		errors.Is(err, catalog.ErrLockedRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
