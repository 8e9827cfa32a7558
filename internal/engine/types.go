package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Category is one of the fixed usage categories tracked per snapshot
type Category string

const (
	CategoryAC         Category = "AC"
	CategoryLights     Category = "Lights"
	CategoryAppliances Category = "Appliances"
)

// Categories returns the fixed category set in display order
func Categories() []Category {
	return []Category{CategoryAC, CategoryLights, CategoryAppliances}
}

func categoryIndex(c Category) (int, bool) {
	switch c {
	case CategoryAC:
		return 0, true
	case CategoryLights:
		return 1, true
	case CategoryAppliances:
		return 2, true
	}
	return -1, false
}

// UsageSnapshot is a point-in-time reading of energy draw per category.
// The zero value is not a valid snapshot; build one with NewSnapshot or SnapshotOf.
type UsageSnapshot struct {
	kwh   [3]float64
	valid bool
}

// NewSnapshot validates a category map and freezes it into a snapshot.
// Every category must be present with a finite, non-negative kWh value.
func NewSnapshot(values map[Category]float64) (UsageSnapshot, error) {
	var s UsageSnapshot
	seen := 0
	for c, v := range values {
		idx, ok := categoryIndex(c)
		if !ok {
			return UsageSnapshot{}, fmt.Errorf("%w: unknown usage category %q", ErrInvalidInput, c)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return UsageSnapshot{}, fmt.Errorf("%w: %s usage must be a non-negative number, got %v", ErrInvalidInput, c, v)
		}
		s.kwh[idx] = v
		seen++
	}
	if seen != len(s.kwh) {
		for _, c := range Categories() {
			if _, ok := values[c]; !ok {
				return UsageSnapshot{}, fmt.Errorf("%w: missing usage category %s", ErrInvalidInput, c)
			}
		}
	}
	s.valid = true
	return s, nil
}

// SnapshotOf is NewSnapshot for the three categories given positionally
func SnapshotOf(ac, lights, appliances float64) (UsageSnapshot, error) {
	return NewSnapshot(map[Category]float64{
		CategoryAC:         ac,
		CategoryLights:     lights,
		CategoryAppliances: appliances,
	})
}

// Validate reports whether the snapshot was built through a constructor
func (s UsageSnapshot) Validate() error {
	if !s.valid {
		return fmt.Errorf("%w: empty usage snapshot", ErrInvalidInput)
	}
	return nil
}

// KWh returns the usage for one category (0 for unknown categories)
func (s UsageSnapshot) KWh(c Category) float64 {
	idx, ok := categoryIndex(c)
	if !ok {
		return 0
	}
	return s.kwh[idx]
}

func (s UsageSnapshot) AC() float64         { return s.kwh[0] }
func (s UsageSnapshot) Lights() float64     { return s.kwh[1] }
func (s UsageSnapshot) Appliances() float64 { return s.kwh[2] }

// Total is the sum over all categories
func (s UsageSnapshot) Total() float64 {
	return s.kwh[0] + s.kwh[1] + s.kwh[2]
}

// Values returns a copy of the snapshot as a category map
func (s UsageSnapshot) Values() map[Category]float64 {
	return map[Category]float64{
		CategoryAC:         s.kwh[0],
		CategoryLights:     s.kwh[1],
		CategoryAppliances: s.kwh[2],
	}
}

func (s UsageSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *UsageSnapshot) UnmarshalJSON(data []byte) error {
	var values map[Category]float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	snap, err := NewSnapshot(values)
	if err != nil {
		return err
	}
	*s = snap
	return nil
}

// HistoryEntry is a snapshot tagged with the time it was observed
type HistoryEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Usage     UsageSnapshot `json:"usage"`
}

// HomeSize is the household size category
type HomeSize string

const (
	HomeStudio HomeSize = "Studio"
	Home1BHK   HomeSize = "1BHK"
	Home2BHK   HomeSize = "2BHK"
	Home3BHK   HomeSize = "3BHK"
	HomeVilla  HomeSize = "Villa"
)

// HomeSizes lists the accepted home sizes
func HomeSizes() []HomeSize {
	return []HomeSize{HomeStudio, Home1BHK, Home2BHK, Home3BHK, HomeVilla}
}

// ComfortProfile is the user's comfort/efficiency trade-off
type ComfortProfile string

const (
	ComfortEco      ComfortProfile = "Eco"
	ComfortBalanced ComfortProfile = "Balanced"
	ComfortComfort  ComfortProfile = "Comfort"
)

// UserPreferences holds the household settings collected during onboarding
type UserPreferences struct {
	Name          string         `json:"name" mapstructure:"name"`
	HomeSize      HomeSize       `json:"home_size" mapstructure:"home_size"`
	WorkingHours  int            `json:"working_hours" mapstructure:"working_hours"` // 0-24
	ACTempC       int            `json:"ac_temp" mapstructure:"ac_temp"`             // preferred set-point, 16-30
	EcoMode       bool           `json:"eco_mode" mapstructure:"eco_mode"`
	Comfort       ComfortProfile `json:"comfort" mapstructure:"comfort"`
	MonthlyBudget float64        `json:"monthly_budget" mapstructure:"monthly_budget"`
}

// DefaultPreferences returns the onboarding defaults
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		HomeSize:      Home2BHK,
		WorkingHours:  8,
		ACTempC:       24,
		EcoMode:       true,
		Comfort:       ComfortBalanced,
		MonthlyBudget: 300,
	}
}

// Validate checks the enumerated fields and numeric ranges.
// An empty home size or comfort profile means the household has not picked one.
func (p UserPreferences) Validate() error {
	sizeOK := p.HomeSize == ""
	for _, s := range HomeSizes() {
		if p.HomeSize == s {
			sizeOK = true
			break
		}
	}
	if !sizeOK {
		return fmt.Errorf("%w: unknown home size %q", ErrInvalidInput, p.HomeSize)
	}
	switch p.Comfort {
	case "", ComfortEco, ComfortBalanced, ComfortComfort:
	default:
		return fmt.Errorf("%w: unknown comfort profile %q", ErrInvalidInput, p.Comfort)
	}
	if p.WorkingHours < 0 || p.WorkingHours > 24 {
		return fmt.Errorf("%w: working hours must be within 0-24, got %d", ErrInvalidInput, p.WorkingHours)
	}
	if p.ACTempC < 16 || p.ACTempC > 30 {
		return fmt.Errorf("%w: AC temperature must be within 16-30, got %d", ErrInvalidInput, p.ACTempC)
	}
	if p.MonthlyBudget < 0 {
		return fmt.Errorf("%w: monthly budget must not be negative", ErrInvalidInput)
	}
	return nil
}

// PricingConfig describes the household tariff
type PricingConfig struct {
	PeakStartHour int     `json:"peak_start_hour" mapstructure:"peak_start_hour"`
	PeakEndHour   int     `json:"peak_end_hour" mapstructure:"peak_end_hour"` // inclusive
	PeakRate      float64 `json:"peak_rate" mapstructure:"peak_rate"`         // currency per kWh
	OffPeakRate   float64 `json:"off_peak_rate" mapstructure:"off_peak_rate"`
	FlatRate      float64 `json:"flat_rate" mapstructure:"flat_rate"` // used when time of use is not modeled
	Currency      string  `json:"currency" mapstructure:"currency"`
}

// DefaultPricing returns the Dubai residential tariff used by the dashboard
func DefaultPricing() PricingConfig {
	return PricingConfig{
		PeakStartHour: 18,
		PeakEndHour:   22,
		PeakRate:      0.65,
		OffPeakRate:   0.30,
		FlatRate:      0.5,
		Currency:      "AED",
	}
}

// Validate checks hours and rates
func (p PricingConfig) Validate() error {
	if err := validHour(p.PeakStartHour); err != nil {
		return err
	}
	if err := validHour(p.PeakEndHour); err != nil {
		return err
	}
	for name, rate := range map[string]float64{"peak": p.PeakRate, "off-peak": p.OffPeakRate, "flat": p.FlatRate} {
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			return fmt.Errorf("%w: %s rate must be positive, got %v", ErrInvalidInput, name, rate)
		}
	}
	return nil
}

// PeakWindow returns the peak-hour window
func (p PricingConfig) PeakWindow() HourWindow {
	return HourWindow{Start: p.PeakStartHour, End: p.PeakEndHour}
}

// RateAt returns the peak or off-peak rate for an hour of day
func (p PricingConfig) RateAt(hour int) float64 {
	if p.PeakWindow().Contains(hour) {
		return p.PeakRate
	}
	return p.OffPeakRate
}

// Habit names a learned usage pattern
type Habit string

const (
	HabitHighAC Habit = "high_ac"
)

// HabitState maps habits to their learned flag. A nil state means no habit is set.
type HabitState map[Habit]bool

// Has reports whether a habit has been learned
func (h HabitState) Has(habit Habit) bool {
	return h[habit]
}

// Clone returns an independent copy
func (h HabitState) Clone() HabitState {
	out := make(HabitState, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
