// Package handlers implements the HTTP endpoints of the public API.
//
// This file holds the shared response helpers. Every failure across the API
// uses the same envelope so clients can branch on a stable code instead of
// parsing messages:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "achievement not found"
//	}
//
// Success bodies are endpoint-specific JSON, e.g.
//
//	{ "id": "EXP_BORN", "title": "Enter the World", "status": "unlocked" }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-achievements-backend/internal/http/middleware"
)

// ErrorResponse is the uniform error envelope. RequestID echoes the
// X-Request-ID header so a client report can be matched to server logs;
// Code is one of the errors.go constants; Message is safe to display.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"achievement not found"`
}

// fail aborts the request with the standard envelope. Server-side failures
// (>= 500) are additionally logged through the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail exposes fail to other packages; the router uses it for NoRoute and
// NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent answers 204 for mutations with nothing to return.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
