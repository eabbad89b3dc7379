// Package catalog implements the file-backed achievement catalog used by the
// admin endpoints. The catalog is the editable source of the reference data:
// a JSON array on disk, mutated through List/Add/Update/Delete, and imported
// into the relational achievements table at boot.
//
// The store serializes access with a RWMutex; every mutation rewrites the
// whole file. This is deliberate: the catalog is small, edited rarely, and a
// full rewrite keeps the on-disk representation trivially consistent.
package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/tbourn/go-achievements-backend/internal/domain"
)

var (
	// ErrMissingFields is returned when a record lacks id, title, or description.
	ErrMissingFields = errors.New("missing required fields")
	// ErrDuplicateID is returned when adding a record whose id already exists.
	ErrDuplicateID = errors.New("achievement id already exists")
	// ErrUnknownID is returned when updating or deleting a non-existent record.
	ErrUnknownID = errors.New("achievement not found")
	// ErrLockedRequired is returned when a restricted status set omits "locked".
	ErrLockedRequired = errors.New("allowed statuses must include locked")
)

// Record is one catalog entry. ID is the external stable code exposed to
// clients and used as the seed key for the achievements table.
type Record struct {
	ID              string   `json:"id"`
	Category        string   `json:"category"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Points          int      `json:"points"`
	Difficulty      string   `json:"difficulty,omitempty"`
	Time            string   `json:"time,omitempty"`
	Icon            string   `json:"icon,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	AllowedStatuses []string `json:"allowed_statuses,omitempty"`
}

// validate checks the structural rules every record must satisfy.
func (r Record) validate() error {
	if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Description) == "" {
		return ErrMissingFields
	}
	if r.Points < 0 {
		return ErrMissingFields
	}
	if len(r.AllowedStatuses) > 0 {
		hasLocked := false
		for _, s := range r.AllowedStatuses {
			if domain.DisplayStatus(s) == domain.StatusLocked {
				hasLocked = true
			}
		}
		if !hasLocked {
			return ErrLockedRequired
		}
	}
	return nil
}

// Store is a concurrency-safe catalog bound to one JSON file.
type Store struct {
	path string

	mu    sync.RWMutex
	items []Record
}

// Open loads the catalog at path. A missing file yields an empty catalog;
// the file is created on the first mutation.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.items); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns a copy of all records in file order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the record with the given id, or ErrUnknownID.
func (s *Store) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.items {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrUnknownID
}

// Add appends a new record after validation and persists the file.
func (s *Store) Add(r Record) error {
	if err := r.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == r.ID {
			return ErrDuplicateID
		}
	}
	s.items = append(s.items, r)
	return s.save()
}

// Update replaces the record with the given id. The id itself is immutable:
// the stored record always keeps the id it was addressed by.
func (s *Store) Update(id string, r Record) (Record, error) {
	r.ID = id
	if err := r.validate(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = r
			if err := s.save(); err != nil {
				return Record{}, err
			}
			return s.items[i], nil
		}
	}
	return Record{}, ErrUnknownID
}

// Delete removes the record with the given id and returns it.
func (s *Store) Delete(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			removed := s.items[i]
			s.items = append(s.items[:i], s.items[i+1:]...)
			if err := s.save(); err != nil {
				return Record{}, err
			}
			return removed, nil
		}
	}
	return Record{}, ErrUnknownID
}

// save writes the catalog back to disk. Callers must hold the write lock.
// The file is replaced via a sibling temp file and rename so an interrupted
// write never leaves a truncated catalog behind.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Achievements converts the catalog into reference rows for seeding.
func (s *Store) Achievements() []domain.Achievement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Achievement, 0, len(s.items))
	for _, r := range s.items {
		code := r.ID
		a := domain.Achievement{
			Code:            &code,
			Category:        r.Category,
			Title:           r.Title,
			Description:     r.Description,
			BasePoints:      r.Points,
			Difficulty:      r.Difficulty,
			EstimatedTime:   r.Time,
			IconPath:        r.Icon,
			IsOfficial:      true,
			Tags:            strings.Join(r.Tags, ","),
			AllowedStatuses: strings.Join(r.AllowedStatuses, ","),
		}
		if a.Difficulty == "" {
			a.Difficulty = "normal"
		}
		if a.EstimatedTime == "" {
			a.EstimatedTime = "over"
		}
		out = append(out, a)
	}
	return out
}
