// Package services defines the business logic for achievement status
// reconciliation, ranking aggregation, dashboards, and profiles. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrUnauthenticated is returned when a mutating operation is attempted
	// without an authenticated actor. No mutation is performed.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrAchievementNotFound indicates that an achievement identifier resolved
	// neither by external code nor by numeric surrogate key.
	ErrAchievementNotFound = errors.New("achievement not found")

	// ErrInvalidStatus is returned when a requested status is outside the
	// display vocabulary (locked / in-progress / unlocked).
	ErrInvalidStatus = errors.New("invalid status")

	// ErrStatusNotAllowed is returned when a requested status is valid but
	// outside the achievement's configured allowed set.
	ErrStatusNotAllowed = errors.New("status not allowed for this achievement")

	// ErrProfileNotFound indicates that the requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
)
