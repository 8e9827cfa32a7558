package engine

const (
	// HabitWindow is how many of the most recent history entries are inspected
	HabitWindow = 3
	// HighACMeanKWh is the mean AC draw over the window that marks a high-AC habit
	HighACMeanKWh = 2.8
)

// UpdateHabits folds the most recent history into the habit state and returns the new state.
// Flags are sticky: once learned they stay set whatever the history says later.
// The input state is never modified.
func UpdateHabits(history []HistoryEntry, state HabitState) HabitState {
	next := state.Clone()
	if len(history) < HabitWindow {
		return next
	}

	recent := history[len(history)-HabitWindow:]
	sum := 0.0
	for _, h := range recent {
		sum += h.Usage.AC()
	}
	if sum/float64(len(recent)) > HighACMeanKWh {
		next[HabitHighAC] = true
	}

	return next
}
