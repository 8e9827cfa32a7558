package prices

import (
	"errors"
	"fmt"
	"time"

	"github.com/awaistahir/eterna/internal/engine"
)

var ErrNoSlots = errors.New("no price slots")

// DeriveTariff collapses half-hourly prices into a two-rate tariff: the mean price of slots
// starting inside the peak window, and the mean of the rest. Hours are taken in loc.
// Rates come out in pounds per kWh; the flat rate is the mean over every slot.
func DeriveTariff(slots []PriceSlot, peak engine.HourWindow, loc *time.Location) (engine.PricingConfig, error) {
	if len(slots) == 0 {
		return engine.PricingConfig{}, ErrNoSlots
	}
	if err := peak.Validate(); err != nil {
		return engine.PricingConfig{}, err
	}
	if loc == nil {
		loc = time.UTC
	}

	var peakSum, offSum float64
	var peakN, offN int
	for _, s := range slots {
		if peak.Contains(s.Start.In(loc).Hour()) {
			peakSum += s.PencePerKWh
			peakN++
		} else {
			offSum += s.PencePerKWh
			offN++
		}
	}
	if peakN == 0 || offN == 0 {
		return engine.PricingConfig{}, fmt.Errorf("%w: need slots both inside and outside %s", ErrNoSlots, peak)
	}

	t := engine.PricingConfig{
		PeakStartHour: peak.Start,
		PeakEndHour:   peak.End,
		PeakRate:      engine.Round2(peakSum/float64(peakN)) / 100,
		OffPeakRate:   engine.Round2(offSum/float64(offN)) / 100,
		FlatRate:      engine.Round2((peakSum+offSum)/float64(peakN+offN)) / 100,
		Currency:      "GBP",
	}
	// Agile prices can go to zero or negative; the engine needs positive rates
	if err := t.Validate(); err != nil {
		return engine.PricingConfig{}, fmt.Errorf("derived tariff: %w", err)
	}
	return t, nil
}
