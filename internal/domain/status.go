// Status vocabularies.
//
// Two three-valued vocabularies exist for the same concept: the display
// vocabulary clients speak (locked / in-progress / unlocked) and the
// persisted vocabulary stored in the unlocks table (DROPPED / CHALLENGING /
// COMPLETED). The mapping is a total bijection maintained here as an explicit
// table rather than scattered branching, so both directions stay exhaustive.
package domain

// DisplayStatus is the client-facing status vocabulary.
type DisplayStatus string

// PersistedStatus is the vocabulary stored in the unlocks table.
type PersistedStatus string

const (
	StatusLocked     DisplayStatus = "locked"
	StatusInProgress DisplayStatus = "in-progress"
	StatusUnlocked   DisplayStatus = "unlocked"
)

const (
	// StatusDropped is the persisted equivalent of locked. It never appears
	// in the database: the reconciler deletes the row instead.
	StatusDropped     PersistedStatus = "DROPPED"
	StatusChallenging PersistedStatus = "CHALLENGING"
	StatusCompleted   PersistedStatus = "COMPLETED"
)

// displayToPersisted is the forward half of the bijection.
var displayToPersisted = map[DisplayStatus]PersistedStatus{
	StatusLocked:     StatusDropped,
	StatusInProgress: StatusChallenging,
	StatusUnlocked:   StatusCompleted,
}

// persistedToDisplay is the reverse half of the bijection.
var persistedToDisplay = map[PersistedStatus]DisplayStatus{
	StatusDropped:     StatusLocked,
	StatusChallenging: StatusInProgress,
	StatusCompleted:   StatusUnlocked,
}

// AllDisplayStatuses returns the complete display vocabulary in a stable
// order (locked, in-progress, unlocked).
func AllDisplayStatuses() []DisplayStatus {
	return []DisplayStatus{StatusLocked, StatusInProgress, StatusUnlocked}
}

// Valid reports whether s is one of the three display statuses.
func (s DisplayStatus) Valid() bool {
	_, ok := displayToPersisted[s]
	return ok
}

// Persisted translates a display status to its persisted equivalent. The
// second return value is false for values outside the vocabulary.
func (s DisplayStatus) Persisted() (PersistedStatus, bool) {
	p, ok := displayToPersisted[s]
	return p, ok
}

// Valid reports whether p is one of the three persisted statuses.
func (p PersistedStatus) Valid() bool {
	_, ok := persistedToDisplay[p]
	return ok
}

// Display translates a persisted status back to the display vocabulary.
// Unknown values translate to locked, matching the absence-means-locked rule.
func (p PersistedStatus) Display() DisplayStatus {
	if d, ok := persistedToDisplay[p]; ok {
		return d
	}
	return StatusLocked
}
