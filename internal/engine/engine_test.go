package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSnapshot(t *testing.T, ac, lights, appliances float64) UsageSnapshot {
	t.Helper()
	s, err := SnapshotOf(ac, lights, appliances)
	require.NoError(t, err)
	return s
}

func TestSuggest(t *testing.T) {
	prefs := DefaultPreferences()

	tests := []struct {
		name   string
		usage  [3]float64
		prefs  func(p *UserPreferences)
		habits HabitState
		hour   int
		want   []string
	}{
		{
			name:  "high AC, warm set-point, morning appliances and eco lighting",
			usage: [3]float64{2.8, 0.6, 0.8},
			hour:  9,
			want: []string{
				MsgACOff,
				"Raise AC set-point to 25°C (≈0.8 kWh/h saved)",
				"Delay high-draw appliance use to off-peak hours; estimated savings 0.28 AED",
				MsgEcoLighting,
			},
		},
		{
			name:  "same usage outside the delay window",
			usage: [3]float64{2.8, 0.6, 0.8},
			hour:  15,
			want: []string{
				MsgACOff,
				"Raise AC set-point to 25°C (≈0.8 kWh/h saved)",
				MsgEcoLighting,
			},
		},
		{
			name:  "set-point already at ceiling only gets the base alert plus filler",
			usage: [3]float64{3.0, 0.2, 0.3},
			prefs: func(p *UserPreferences) { p.ACTempC = 26 },
			hour:  14,
			want:  []string{MsgACOff, MsgSmartPlugs},
		},
		{
			name:  "low usage, eco off, no habits",
			usage: [3]float64{1.0, 0.2, 0.3},
			prefs: func(p *UserPreferences) { p.EcoMode = false },
			hour:  9,
			want:  []string{MsgOptimal},
		},
		{
			name:  "all zeros",
			usage: [3]float64{0, 0, 0},
			hour:  0,
			want:  []string{MsgOptimal},
		},
		{
			name:  "eco lighting alone is padded with the smart plug filler",
			usage: [3]float64{1.0, 0.6, 0.3},
			hour:  12,
			want:  []string{MsgEcoLighting, MsgSmartPlugs},
		},
		{
			name:  "eco lighting ignored when eco mode is off",
			usage: [3]float64{1.0, 0.9, 0.3},
			prefs: func(p *UserPreferences) { p.EcoMode = false },
			hour:  12,
			want:  []string{MsgOptimal},
		},
		{
			name:   "learned habit fires on its own",
			usage:  [3]float64{1.0, 0.2, 0.3},
			habits: HabitState{HabitHighAC: true},
			hour:   20,
			want:   []string{MsgHabitThermostat, MsgSmartPlugs},
		},
		{
			name:   "learned habit with high AC",
			usage:  [3]float64{2.6, 0.2, 0.3},
			prefs:  func(p *UserPreferences) { p.ACTempC = 22 },
			habits: HabitState{HabitHighAC: true},
			hour:   20,
			want: []string{
				MsgACOff,
				"Raise AC set-point to 23°C (≈0.8 kWh/h saved)",
				MsgHabitThermostat,
			},
		},
		{
			name:  "AC exactly at threshold does not fire",
			usage: [3]float64{2.5, 0.2, 0.3},
			hour:  9,
			want:  []string{MsgOptimal},
		},
		{
			name:  "delay window bounds are inclusive",
			usage: [3]float64{1.0, 0.2, 1.0},
			hour:  11,
			want: []string{
				"Delay high-draw appliance use to off-peak hours; estimated savings 0.35 AED",
				MsgSmartPlugs,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := prefs
			if tt.prefs != nil {
				tt.prefs(&p)
			}
			usage := mustSnapshot(t, tt.usage[0], tt.usage[1], tt.usage[2])

			advice, err := Suggest(usage, p, tt.habits, tt.hour, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, Messages(advice))
		})
	}
}

func TestSuggestWithOnlyRuleRelevantPreferences(t *testing.T) {
	usage := mustSnapshot(t, 2.8, 0.6, 0.8)
	prefs := UserPreferences{ACTempC: 24, EcoMode: true}

	advice, err := Suggest(usage, prefs, nil, 9, DefaultOptions())
	require.NoError(t, err)

	msgs := Messages(advice)
	assert.GreaterOrEqual(t, len(msgs), 3)
	assert.Contains(t, msgs, MsgACOff)
	assert.Contains(t, msgs, "Raise AC set-point to 25°C (≈0.8 kWh/h saved)")
	assert.Contains(t, msgs, MsgEcoLighting)
	assert.Contains(t, msgs, "Delay high-draw appliance use to off-peak hours; estimated savings 0.28 AED")
}

func TestSuggestMessagesWithoutArgsKeepCanonicalText(t *testing.T) {
	usage := mustSnapshot(t, 1.0, 0.6, 0.3)

	advice, err := Suggest(usage, DefaultPreferences(), nil, 12, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, advice, 2)

	plugs := advice[1]
	assert.Equal(t, RuleSmartPlugs, plugs.Rule)
	assert.Nil(t, plugs.Args)
	assert.Equal(t, MsgSmartPlugs, plugs.Message)
	assert.Equal(t, plugs.Template, plugs.Message)
}

func TestSuggestSetPointFollowsPreference(t *testing.T) {
	usage := mustSnapshot(t, 2.9, 0.1, 0.1)
	for temp := 16; temp < 26; temp++ {
		p := DefaultPreferences()
		p.ACTempC = temp

		advice, err := Suggest(usage, p, nil, 13, DefaultOptions())
		require.NoError(t, err)
		require.Len(t, advice, 2)
		assert.Equal(t, RuleACSetPoint, advice[1].Rule)
		assert.Equal(t, []any{temp + 1}, advice[1].Args)
	}
}

func TestSuggestNeverFiresACRulesAtOrBelowThreshold(t *testing.T) {
	for _, ac := range []float64{0, 0.5, 1.2, 2.0, 2.49, 2.5} {
		usage := mustSnapshot(t, ac, 0.7, 0.9)
		for hour := 0; hour < 24; hour++ {
			advice, err := Suggest(usage, DefaultPreferences(), HabitState{HabitHighAC: true}, hour, DefaultOptions())
			require.NoError(t, err)
			require.NotEmpty(t, advice)
			for _, a := range advice {
				assert.NotEqual(t, RuleACOff, a.Rule)
				assert.NotEqual(t, RuleACSetPoint, a.Rule)
			}
		}
	}
}

func TestSuggestUsesCallerPricing(t *testing.T) {
	usage := mustSnapshot(t, 0.1, 0.1, 2.0)
	opts := DefaultOptions()
	opts.Pricing.PeakRate = 0.9
	opts.Pricing.OffPeakRate = 0.4
	opts.Pricing.Currency = "GBP"

	advice, err := Suggest(usage, DefaultPreferences(), nil, 10, opts)
	require.NoError(t, err)
	require.NotEmpty(t, advice)
	assert.Equal(t, "Delay high-draw appliance use to off-peak hours; estimated savings 1.00 GBP", advice[0].Message)
}

func TestSuggestSkipsDelayWithoutSavings(t *testing.T) {
	usage := mustSnapshot(t, 0.1, 0.1, 2.0)
	opts := DefaultOptions()
	opts.Pricing.PeakRate = 0.3
	opts.Pricing.OffPeakRate = 0.5

	advice, err := Suggest(usage, DefaultPreferences(), nil, 10, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{MsgOptimal}, Messages(advice))
}

func TestSuggestCustomDelayWindow(t *testing.T) {
	usage := mustSnapshot(t, 0.1, 0.1, 1.0)
	opts := DefaultOptions()
	opts.Rules.DelayWindow = HourWindow{Start: 22, End: 2}

	for hour, fires := range map[int]bool{21: false, 22: true, 23: true, 0: true, 2: true, 3: false} {
		advice, err := Suggest(usage, DefaultPreferences(), nil, hour, opts)
		require.NoError(t, err)
		assert.Equal(t, fires, advice[0].Rule == RuleDelayAppliances, "hour %d", hour)
	}
}

func TestSuggestInvalidInput(t *testing.T) {
	valid := mustSnapshot(t, 1, 1, 1)

	badPricing := DefaultOptions()
	badPricing.Pricing.OffPeakRate = 0

	badPrefs := DefaultPreferences()
	badPrefs.HomeSize = "Castle"

	badComfort := DefaultPreferences()
	badComfort.Comfort = "Arctic"

	tests := []struct {
		name  string
		usage UsageSnapshot
		prefs UserPreferences
		hour  int
		opts  Options
	}{
		{"zero-value snapshot", UsageSnapshot{}, DefaultPreferences(), 9, DefaultOptions()},
		{"hour out of range", valid, DefaultPreferences(), 24, DefaultOptions()},
		{"negative hour", valid, DefaultPreferences(), -1, DefaultOptions()},
		{"non-positive rate", valid, DefaultPreferences(), 9, badPricing},
		{"unknown home size", valid, badPrefs, 9, DefaultOptions()},
		{"unknown comfort profile", valid, badComfort, 9, DefaultOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Suggest(tt.usage, tt.prefs, nil, tt.hour, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestNewSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		values  map[Category]float64
		wantErr bool
	}{
		{"complete", map[Category]float64{CategoryAC: 1, CategoryLights: 0.5, CategoryAppliances: 0.25}, false},
		{"missing category", map[Category]float64{CategoryAC: 1, CategoryLights: 0.5}, true},
		{"negative value", map[Category]float64{CategoryAC: -1, CategoryLights: 0.5, CategoryAppliances: 0.25}, true},
		{"unknown category", map[Category]float64{CategoryAC: 1, CategoryLights: 0.5, CategoryAppliances: 0.25, "Heater": 2}, true},
		{"nil map", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSnapshot(tt.values)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, 1.75, s.Total(), 1e-9)
			assert.Equal(t, tt.values, s.Values())
		})
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	values := map[Category]float64{CategoryAC: 1, CategoryLights: 2, CategoryAppliances: 3}
	s, err := NewSnapshot(values)
	require.NoError(t, err)

	values[CategoryAC] = 100
	s.Values()[CategoryLights] = 100

	assert.Equal(t, 1.0, s.AC())
	assert.Equal(t, 2.0, s.Lights())
}

func TestSnapshotJSON(t *testing.T) {
	var s UsageSnapshot
	require.NoError(t, s.UnmarshalJSON([]byte(`{"AC":2.8,"Lights":0.6,"Appliances":0.8}`)))
	assert.Equal(t, 2.8, s.AC())

	err := s.UnmarshalJSON([]byte(`{"AC":2.8,"Lights":0.6}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHourWindow(t *testing.T) {
	day := HourWindow{Start: 8, End: 11}
	assert.True(t, day.Contains(8))
	assert.True(t, day.Contains(11))
	assert.False(t, day.Contains(12))

	night := HourWindow{Start: 22, End: 6}
	assert.True(t, night.Contains(23))
	assert.True(t, night.Contains(0))
	assert.True(t, night.Contains(6))
	assert.False(t, night.Contains(7))
	assert.False(t, night.Contains(21))

	assert.ErrorIs(t, HourWindow{Start: 0, End: 24}.Validate(), ErrInvalidInput)
}
