// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file covers request correlation and structured logging:
//
//   - RequestID() gives every request a stable correlation ID, reusing an
//     incoming X-Request-ID when present.
//   - Logger() writes one zerolog access line per request and parks a
//     request-scoped logger in the Gin context for handlers and services
//     (e.g. lg.Info().Str("achievement_id", id).Msg("status updated")).
//   - Recovery() turns panics into the standard JSON 500 envelope, keeping
//     the correlation ID.
//
// Compose RequestID before Logger before Recovery so panics are logged with
// the correlation ID. Credentials are never logged: the Authorization header
// is reduced to a presence flag, and query strings are clipped to a bounded
// length.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key holding the correlation ID.
	requestIDKey = "requestID"
	// requestIDHeader propagates the correlation ID on both directions.
	requestIDHeader = "X-Request-ID"
	// ctxKeyLogger is the Gin context key for the request-scoped logger.
	ctxKeyLogger = "logger"
	// maxQueryLogLength caps how much of the raw query string is logged.
	maxQueryLogLength = 2048
)

// RequestID reuses the caller-supplied X-Request-ID or generates a UUIDv4,
// stores it in the Gin context, and echoes it on the response. Mount it
// first so every later middleware and handler can rely on the ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger emits a structured access log per request and attaches a
// request-scoped zerolog.Logger to the Gin context.
//
// The access line carries method, route path (raw path on 404), remote IP,
// user agent, referer, clipped query, correlation and user IDs, an
// authenticated flag, sizes, status, and latency. The level follows the
// outcome: error for 5xx or collected Gin errors, warn for 4xx, info
// otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		uid, _ := c.Get(ctxKeyUserID)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path // unmatched route
		}

		l := log.With().
			Str("request_id", ctxString(rid)).
			Str("user_id", ctxString(uid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("referer", c.Request.Referer()).
			Str("query", clip(c.Request.URL.RawQuery, maxQueryLogLength)).
			Bool("authenticated", c.GetHeader("Authorization") != "").
			Int64("bytes_in", c.Request.ContentLength). // -1 when unknown
			Logger()

		c.Set(ctxKeyLogger, &l)

		c.Next()

		out := l.With().
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		switch status := c.Writer.Status(); {
		case len(c.Errors) > 0:
			out.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			out.Error().Msg("request")
		case status >= 400:
			out.Warn().Msg("request")
		default:
			out.Info().Msg("request")
		}
	}
}

// Recovery catches panics, logs the value and stack with the correlation ID,
// and answers with the standard JSON envelope when nothing has been written
// yet. Mount it after Logger so the panic is tied to the access line.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", ctxString(rid)).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, ctxString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": ctxString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger attached by Logger(), or the
// global logger when none is present. Never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(ctxKeyLogger); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// ctxString converts a Gin context value to a string; non-strings yield "".
func ctxString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// clip bounds s to max bytes, appending an ellipsis when cut. max <= 0
// disables clipping. Byte-level truncation is fine for log output.
func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
