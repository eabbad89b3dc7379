// Package utils provides small, generic helpers shared across layers,
// independent of domain logic.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// plain base-10 integer. Handlers use it for optional numeric query
// parameters such as the leaderboard limit.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
