// internal/store/memory.go
//
// In-memory implementation of the match session Store.
// This is a lightweight persistence layer for live, in-progress matches;
// the SQLite layer keeps the durable owner rows and final results.
//
// Characteristics:
//   - Stores *scoring.Match objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Errors are returned for missing match IDs on Get().

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/lucaferrini/tpascore/internal/scoring"
)

// ErrNotFound is returned when a match ID is unknown.
var ErrNotFound = errors.New("match not found")

// Store defines the persistence interface for live match sessions.
// Implementations may be backed by memory (this package), Redis, SQL, etc.
type Store interface {
	// Save persists or updates a match session.
	Save(ctx context.Context, m *scoring.Match) error

	// Get retrieves a match by ID.
	// Returns ErrNotFound if the match is unknown.
	Get(ctx context.Context, id string) (*scoring.Match, error)

	// Delete removes a finished match session.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex              // guards matches map
	matches map[string]*scoring.Match // keyed by Match.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{matches: make(map[string]*scoring.Match)}
}

// Save adds or updates the match in the map.
func (s *memory) Save(ctx context.Context, m *scoring.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
	return nil
}

// Get looks up a match by ID.
func (s *memory) Get(ctx context.Context, id string) (*scoring.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.matches[id]; ok {
		return m, nil
	}
	return nil, ErrNotFound
}

// Delete drops a match session; deleting an unknown ID is not an error.
func (s *memory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	return nil
}
