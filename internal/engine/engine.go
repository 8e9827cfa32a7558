package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input parameters")
	ErrInsufficientHistory = errors.New("not enough history")
)

// RuleID identifies the rule that produced a piece of advice
type RuleID int

const (
	RuleACOff RuleID = iota + 1
	RuleACSetPoint
	RuleDelayAppliances
	RuleEcoLighting
	RuleHabitThermostat
	RuleSmartPlugs
	RuleOptimal
)

// Canonical message templates. They double as keys into the phrasebook,
// so changing one orphans its translations.
const (
	MsgACOff           = "Turn off AC in unoccupied rooms"
	MsgACSetPoint      = "Raise AC set-point to %d°C (≈0.8 kWh/h saved)"
	MsgDelayAppliances = "Delay high-draw appliance use to off-peak hours; estimated savings %.2f %s"
	MsgEcoLighting     = "Switch to eco-mode lighting in common areas"
	MsgHabitThermostat = "Recurring high-AC pattern detected; consider a smart thermostat"
	MsgSmartPlugs      = "Consider smart plugs for idle electronics (≈10% potential savings)"
	MsgOptimal         = "Your usage looks optimal"
)

// Rules holds the thresholds the rule table is evaluated against
type Rules struct {
	ACHighKWh        float64    `mapstructure:"ac_high_kwh"`
	SetPointCeilingC int        `mapstructure:"set_point_ceiling_c"`
	ApplianceHighKWh float64    `mapstructure:"appliance_high_kwh"`
	LightsHighKWh    float64    `mapstructure:"lights_high_kwh"`
	DelayWindow      HourWindow `mapstructure:"delay_window"`
	MinMessages      int        `mapstructure:"min_messages"` // filler threshold
}

// DefaultRules returns the thresholds used by the dashboard
func DefaultRules() Rules {
	return Rules{
		ACHighKWh:        2.5,
		SetPointCeilingC: 26,
		ApplianceHighKWh: 0.7,
		LightsHighKWh:    0.5,
		DelayWindow:      HourWindow{Start: 8, End: 11},
		MinMessages:      2,
	}
}

// Validate checks the rule thresholds
func (r Rules) Validate() error {
	if r.ACHighKWh < 0 || r.ApplianceHighKWh < 0 || r.LightsHighKWh < 0 {
		return fmt.Errorf("%w: usage thresholds must not be negative", ErrInvalidInput)
	}
	if r.MinMessages < 0 {
		return fmt.Errorf("%w: min messages must not be negative", ErrInvalidInput)
	}
	return r.DelayWindow.Validate()
}

// Options contains the inputs to Suggest besides the snapshot itself
type Options struct {
	Rules   Rules
	Pricing PricingConfig
}

// DefaultOptions pairs the default rules with the default tariff
func DefaultOptions() Options {
	return Options{Rules: DefaultRules(), Pricing: DefaultPricing()}
}

// Advice is one advisory message together with what produced it
type Advice struct {
	Rule     RuleID `json:"rule"`
	Template string `json:"-"`
	Args     []any  `json:"-"`
	Message  string `json:"message"`
}

func newAdvice(rule RuleID, template string, args []any) Advice {
	msg := template
	if len(args) > 0 {
		msg = fmt.Sprintf(template, args...)
	}
	return Advice{Rule: rule, Template: template, Args: args, Message: msg}
}

// Messages returns the canonical message text of each piece of advice, in order
func Messages(advice []Advice) []string {
	out := make([]string, len(advice))
	for i, a := range advice {
		out[i] = a.Message
	}
	return out
}

// Suggest evaluates the rule table against a snapshot and returns the advice in rule order.
// The result is never empty for valid input. A nil habits map means no habit is learned.
func Suggest(usage UsageSnapshot, prefs UserPreferences, habits HabitState, hour int, opts Options) ([]Advice, error) {
	if err := usage.Validate(); err != nil {
		return nil, err
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Pricing.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, err
	}
	if err := validHour(hour); err != nil {
		return nil, err
	}

	r := opts.Rules
	advice := []Advice{}

	// AC alerts
	if usage.AC() > r.ACHighKWh {
		advice = append(advice, newAdvice(RuleACOff, MsgACOff, nil))
		if prefs.ACTempC < r.SetPointCeilingC {
			advice = append(advice, newAdvice(RuleACSetPoint, MsgACSetPoint, []any{prefs.ACTempC + 1}))
		}
	}

	// Time-based appliance shifting
	if r.DelayWindow.Contains(hour) && usage.Appliances() > r.ApplianceHighKWh {
		if savings := delaySavings(usage, opts.Pricing); savings > 0 {
			advice = append(advice, newAdvice(RuleDelayAppliances, MsgDelayAppliances, []any{savings, opts.Pricing.Currency}))
		}
	}

	if prefs.EcoMode && usage.Lights() > r.LightsHighKWh {
		advice = append(advice, newAdvice(RuleEcoLighting, MsgEcoLighting, nil))
	}

	if habits.Has(HabitHighAC) {
		advice = append(advice, newAdvice(RuleHabitThermostat, MsgHabitThermostat, nil))
	}

	switch {
	case len(advice) == 0:
		advice = append(advice, newAdvice(RuleOptimal, MsgOptimal, nil))
	case len(advice) < r.MinMessages:
		advice = append(advice, newAdvice(RuleSmartPlugs, MsgSmartPlugs, nil))
	}

	return advice, nil
}

// delaySavings is what moving the appliance load from peak to off-peak would save,
// rounded to cents. Non-positive results mean there is nothing to gain.
func delaySavings(usage UsageSnapshot, pricing PricingConfig) float64 {
	return Round2(usage.Appliances() * (pricing.PeakRate - pricing.OffPeakRate))
}
