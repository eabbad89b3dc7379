// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication. Auth() parses the
// Authorization header, verifies the session token, and stores the caller's
// identity in the Gin context. Verification failures do not abort the request:
// endpoints that require a user enforce that themselves (via RequireUser or a
// service-level check), while public endpoints such as the achievement list
// and the leaderboard serve anonymous callers with reduced detail.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-achievements-backend/internal/auth"
)

const (
	// ctxKeyUserID is the Gin context key holding the authenticated user id.
	ctxKeyUserID = "userID"
	// ctxKeyIdentity is the Gin context key holding the full auth.Identity.
	ctxKeyIdentity = "identity"
)

// Auth returns a middleware that attaches the verified session identity to
// the request context. Requests without a valid bearer token pass through
// anonymously.
func Auth(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		id, err := sessions.Parse(token)
		if err != nil {
			// Invalid tokens are treated as anonymous, not rejected outright,
			// so stale sessions degrade to the public view.
			c.Next()
			return
		}
		c.Set(ctxKeyUserID, id.ID)
		c.Set(ctxKeyIdentity, id)
		c.Next()
	}
}

// RequireUser aborts with 401 when no authenticated identity is present.
// Mount it on route groups that must not serve anonymous callers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "authentication required",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IdentityFrom returns the full authenticated identity, zero for anonymous
// requests.
func IdentityFrom(c *gin.Context) auth.Identity {
	if v, ok := c.Get(ctxKeyIdentity); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Identity{}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns "" for any other scheme or shape.
func bearerToken(h string) string {
	parts := strings.SplitN(strings.TrimSpace(h), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
