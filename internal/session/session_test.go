package session

import (
	"sync"
	"testing"
	"time"

	"github.com/awaistahir/eterna/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

func entry(t *testing.T, hour int, ac float64) engine.HistoryEntry {
	t.Helper()
	u, err := engine.SnapshotOf(ac, 0.3, 0.5)
	require.NoError(t, err)
	return engine.HistoryEntry{Timestamp: base.Add(time.Duration(hour) * time.Hour), Usage: u}
}

func TestRegistryCreateGet(t *testing.T) {
	r := NewRegistry(0)

	s, err := r.Create(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	r.Delete(s.ID)
	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestRecordLearnsHabits(t *testing.T) {
	r := NewRegistry(10)
	s, err := r.Create(nil)
	require.NoError(t, err)

	habits, err := s.Record(entry(t, 0, 3.0))
	require.NoError(t, err)
	assert.False(t, habits.Has(engine.HabitHighAC))

	s.Record(entry(t, 1, 3.0))
	habits, err = s.Record(entry(t, 2, 3.0))
	require.NoError(t, err)
	assert.True(t, habits.Has(engine.HabitHighAC))

	// sticky once learned
	for h := 3; h < 8; h++ {
		habits, err = s.Record(entry(t, h, 0.5))
		require.NoError(t, err)
	}
	assert.True(t, habits.Has(engine.HabitHighAC))

	// returned state is a copy
	habits[engine.HabitHighAC] = false
	assert.True(t, s.Habits().Has(engine.HabitHighAC))
}

func TestRecordRejectsInvalid(t *testing.T) {
	s, err := NewRegistry(10).Create(nil)
	require.NoError(t, err)

	_, err = s.Record(engine.HistoryEntry{Timestamp: base})
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
	assert.Empty(t, s.History(0))
}

func TestHistoryBounded(t *testing.T) {
	r := NewRegistry(5)
	var seed []engine.HistoryEntry
	for h := 0; h < 8; h++ {
		seed = append(seed, entry(t, h, 1))
	}
	s, err := r.Create(seed)
	require.NoError(t, err)

	all := s.History(0)
	require.Len(t, all, 5)
	assert.Equal(t, base.Add(3*time.Hour), all[0].Timestamp)
	assert.Equal(t, base.Add(7*time.Hour), all[4].Timestamp)

	last := s.History(2)
	require.Len(t, last, 2)
	assert.Equal(t, base.Add(6*time.Hour), last[0].Timestamp)

	assert.Len(t, s.History(50), 5)
}

func TestCreateSeededHabit(t *testing.T) {
	seed := []engine.HistoryEntry{}
	for h := 0; h < 3; h++ {
		seed = append(seed, entry(t, h, 2.9))
	}
	s, err := NewRegistry(0).Create(seed)
	require.NoError(t, err)
	assert.True(t, s.Habits().Has(engine.HabitHighAC))
}

func TestConcurrentRecord(t *testing.T) {
	r := NewRegistry(50)
	s, err := r.Create(nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, _ := engine.SnapshotOf(1, 1, 1)
			s.Record(engine.HistoryEntry{Timestamp: base.Add(time.Duration(i) * time.Minute), Usage: u})
			got, _ := r.Get(s.ID)
			got.History(3)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.History(0), 20)
}
