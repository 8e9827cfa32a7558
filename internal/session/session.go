// Package session keeps per-dashboard usage history and learned habits in memory.
// Nothing here survives a restart.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/awaistahir/eterna/internal/engine"
	"github.com/google/uuid"
)

// DefaultCapacity keeps a week of hourly readings plus the current day
const DefaultCapacity = 8 * 24

var ErrNotFound = errors.New("session not found")

// Session is one dashboard's running state
type Session struct {
	ID      string
	Created time.Time

	mu      sync.Mutex
	history []engine.HistoryEntry
	habits  engine.HabitState
	limit   int
}

// Record appends a reading, drops the oldest beyond capacity and re-learns habits.
// It returns the habit state after the update.
func (s *Session) Record(entry engine.HistoryEntry) (engine.HabitState, error) {
	if err := entry.Usage.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, entry)
	if over := len(s.history) - s.limit; over > 0 {
		s.history = append([]engine.HistoryEntry(nil), s.history[over:]...)
	}
	s.habits = engine.UpdateHabits(s.history, s.habits)
	return s.habits.Clone(), nil
}

// Habits returns a copy of the learned habits
func (s *Session) Habits() engine.HabitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.habits.Clone()
}

// History returns up to the last n entries, oldest first. n <= 0 returns everything.
func (s *Session) History(n int) []engine.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if n > 0 && len(s.history) > n {
		start = len(s.history) - n
	}
	out := make([]engine.HistoryEntry, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

// Registry holds the live sessions
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	capacity int
	now      func() time.Time
}

// NewRegistry creates a registry whose sessions keep at most capacity history entries
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		sessions: make(map[string]*Session),
		capacity: capacity,
		now:      time.Now,
	}
}

// Create starts a session, optionally seeded with earlier history
func (r *Registry) Create(seed []engine.HistoryEntry) (*Session, error) {
	s := &Session{
		ID:      uuid.NewString(),
		Created: r.now(),
		habits:  engine.HabitState{},
		limit:   r.capacity,
	}
	for _, e := range seed {
		if _, err := s.Record(e); err != nil {
			return nil, fmt.Errorf("seeding session history: %w", err)
		}
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s, nil
}

// Get looks a session up by ID
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete ends a session. Unknown IDs are ignored.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
