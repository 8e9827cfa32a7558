package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func historyOf(t *testing.T, acValues ...float64) []HistoryEntry {
	t.Helper()
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	history := make([]HistoryEntry, len(acValues))
	for i, ac := range acValues {
		history[i] = HistoryEntry{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Usage:     mustSnapshot(t, ac, 0.3, 0.5),
		}
	}
	return history
}

func TestUpdateHabits(t *testing.T) {
	tests := []struct {
		name    string
		history []HistoryEntry
		state   HabitState
		want    bool
	}{
		{"three high readings", historyOf(t, 3.0, 2.9, 3.1), nil, true},
		{"mean just below threshold", historyOf(t, 2.8, 2.8, 2.7), HabitState{}, false},
		{"only the last three count", historyOf(t, 3.5, 3.5, 1.0, 1.0, 1.0), nil, false},
		{"recent spike after low start", historyOf(t, 0.5, 0.5, 3.0, 3.0, 3.0), nil, true},
		{"fewer than three entries", historyOf(t, 5.0, 5.0), nil, false},
		{"empty history", nil, nil, false},
		{"sticky once set", historyOf(t, 0.1, 0.1, 0.1), HabitState{HabitHighAC: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateHabits(tt.history, tt.state)
			assert.Equal(t, tt.want, got.Has(HabitHighAC))
		})
	}
}

func TestUpdateHabitsDoesNotMutateInput(t *testing.T) {
	state := HabitState{}
	next := UpdateHabits(historyOf(t, 3.0, 2.9, 3.1), state)

	assert.True(t, next.Has(HabitHighAC))
	assert.False(t, state.Has(HabitHighAC))
	assert.Empty(t, state)
}

func TestUpdateHabitsIdempotent(t *testing.T) {
	history := historyOf(t, 3.0, 2.9, 3.1)
	once := UpdateHabits(history, nil)
	twice := UpdateHabits(history, once)
	assert.Equal(t, once, twice)

	later := UpdateHabits(historyOf(t, 0, 0, 0, 0), twice)
	assert.Equal(t, once, later)
}
