package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvisorDashboard(t *testing.T) {
	dubai := time.FixedZone("GST", 4*3600)
	at := time.Date(2025, 7, 14, 5, 30, 0, 0, time.UTC).In(dubai) // 09:30 local

	a := NewAdvisor(DefaultOptions())
	habits := HabitState{HabitHighAC: false}
	d, err := a.Dashboard(mustSnapshot(t, 2.8, 0.6, 0.8), DefaultPreferences(), habits, at, LangArabic)
	require.NoError(t, err)

	assert.Equal(t, 9, d.Hour)
	assert.Equal(t, LangArabic, d.Language)
	assert.Len(t, d.Advice, 4)
	assert.Equal(t, a.Phrasebook.LocalizeAll(d.Advice, LangArabic), d.Messages)

	assert.Equal(t, 4.2, d.Impact.TotalKWh)
	assert.Equal(t, 2.1, d.Impact.Cost)
	assert.Equal(t, 1.76, d.Impact.CO2Kg)
	assert.Equal(t, 17.6, d.Impact.WaterL)
	assert.Equal(t, 0.09, d.Impact.Trees)
	assert.Equal(t, 0.28, d.Impact.Savings)
	assert.Equal(t, 0.03, d.Impact.RewardProgress)

	// the dashboard keeps its own copy of the habits
	habits[HabitHighAC] = true
	assert.False(t, d.Habits.Has(HabitHighAC))
}

func TestAdvisorDashboardTimeOfUse(t *testing.T) {
	a := NewAdvisor(DefaultOptions())
	a.TimeOfUse = true
	usage := mustSnapshot(t, 1, 0.2, 0.3)

	evening := time.Date(2025, 7, 14, 19, 0, 0, 0, time.UTC)
	d, err := a.Dashboard(usage, DefaultPreferences(), nil, evening, "")
	require.NoError(t, err)
	assert.Equal(t, LangEnglish, d.Language)
	assert.Equal(t, 0.98, d.Impact.Cost) // 1.5 kWh at 0.65
	assert.Equal(t, []string{MsgOptimal}, d.Messages)

	night := time.Date(2025, 7, 14, 2, 0, 0, 0, time.UTC)
	d, err = a.Dashboard(usage, DefaultPreferences(), nil, night, LangEnglish)
	require.NoError(t, err)
	assert.Equal(t, 0.45, d.Impact.Cost)
}

func TestAdvisorDashboardInvalid(t *testing.T) {
	a := NewAdvisor(DefaultOptions())
	prefs := DefaultPreferences()
	prefs.WorkingHours = 30

	_, err := a.Dashboard(mustSnapshot(t, 1, 1, 1), prefs, nil, time.Now(), LangEnglish)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = a.Dashboard(UsageSnapshot{}, DefaultPreferences(), nil, time.Now(), LangEnglish)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDashboardJSON(t *testing.T) {
	a := NewAdvisor(DefaultOptions())
	d, err := a.Dashboard(mustSnapshot(t, 3, 0.1, 0.1), DefaultPreferences(), nil,
		time.Date(2025, 7, 14, 14, 0, 0, 0, time.UTC), LangEnglish)
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"AC": 3.0, "Lights": 0.1, "Appliances": 0.1}, decoded["usage"])
	assert.Len(t, decoded["messages"], 2)
}
