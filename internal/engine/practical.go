package engine

import "fmt"

// HourWindow is an inclusive range of hours of day. Start > End wraps past midnight
// (e.g. 22-6 covers 22,23,0,...,6).
type HourWindow struct {
	Start int `json:"start" mapstructure:"start"`
	End   int `json:"end" mapstructure:"end"`
}

// Contains reports whether hour falls inside the window
func (w HourWindow) Contains(hour int) bool {
	if w.Start <= w.End {
		return hour >= w.Start && hour <= w.End
	}
	// Overnight window
	return hour >= w.Start || hour <= w.End
}

// Validate checks both bounds are hours of day
func (w HourWindow) Validate() error {
	if err := validHour(w.Start); err != nil {
		return err
	}
	return validHour(w.End)
}

func (w HourWindow) String() string {
	return fmt.Sprintf("%02d:00-%02d:59", w.Start, w.End)
}

func validHour(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour must be within 0-23, got %d", ErrInvalidInput, hour)
	}
	return nil
}
