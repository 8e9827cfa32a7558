package engine

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

const (
	// CO2KgPerKWh is the grid emission factor
	CO2KgPerKWh = 0.42
	// WaterLPerCO2Kg is the water proxy factor applied to emissions
	WaterLPerCO2Kg = 10.0
	// CO2KgPerTree is what one tree absorbs, used for the tree-equivalent figure
	CO2KgPerTree = 20.0
	// RewardTarget is the savings amount that fills the reward progress bar
	RewardTarget = 10.0
)

// ImpactMetrics are derived, non-authoritative estimates shown next to the advice.
// Compute returns unrounded values; use Rounded for display.
type ImpactMetrics struct {
	TotalKWh       float64 `json:"total_kwh"`
	Cost           float64 `json:"cost"`
	CO2Kg          float64 `json:"co2_kg"`
	WaterL         float64 `json:"water_l"`
	Trees          float64 `json:"trees"`
	Savings        float64 `json:"savings"`
	RewardProgress float64 `json:"reward_progress"` // 0-1
	Currency       string  `json:"currency"`
}

// Rounded returns a copy with every figure rounded to 2 decimal places.
// Water and trees are derived from the rounded CO2 figure so the displayed
// values stay consistent with each other.
func (m ImpactMetrics) Rounded() ImpactMetrics {
	co2 := Round2(m.CO2Kg)
	return ImpactMetrics{
		TotalKWh:       Round2(m.TotalKWh),
		Cost:           Round2(m.Cost),
		CO2Kg:          co2,
		WaterL:         Round2(co2 * WaterLPerCO2Kg),
		Trees:          Round2(co2 / CO2KgPerTree),
		Savings:        Round2(m.Savings),
		RewardProgress: Round2(m.RewardProgress),
		Currency:       m.Currency,
	}
}

// SavingsEstimator produces the "savings shown to user" figure
type SavingsEstimator interface {
	EstimateSavings(usage UsageSnapshot, pricing PricingConfig) float64
}

// RateDeltaEstimator values the appliance load at the peak/off-peak price difference
type RateDeltaEstimator struct{}

func (RateDeltaEstimator) EstimateSavings(usage UsageSnapshot, pricing PricingConfig) float64 {
	return math.Max(0, usage.Appliances()*(pricing.PeakRate-pricing.OffPeakRate))
}

// FactorEstimator multiplies total usage by a fixed factor
type FactorEstimator struct {
	Factor float64
}

func (e FactorEstimator) EstimateSavings(usage UsageSnapshot, _ PricingConfig) float64 {
	return math.Max(0, usage.Total()*e.Factor)
}

// RandomEstimator multiplies total usage by a factor drawn uniformly from [Min, Max).
// It reproduces the dashboard's randomized savings tile; seed the generator for repeatable output.
type RandomEstimator struct {
	Rand *rand.Rand
	Min  float64
	Max  float64
}

// NewRandomEstimator returns an estimator drawing from [0.5, 1.5) with the given seed
func NewRandomEstimator(seed uint64) *RandomEstimator {
	return &RandomEstimator{
		Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Min:  0.5,
		Max:  1.5,
	}
}

func (e *RandomEstimator) EstimateSavings(usage UsageSnapshot, _ PricingConfig) float64 {
	factor := e.Min + e.Rand.Float64()*(e.Max-e.Min)
	return usage.Total() * factor
}

// ImpactOptions selects how cost and savings are derived
type ImpactOptions struct {
	// TimeOfUse prices the whole snapshot at the rate in force at Hour;
	// otherwise the flat rate applies.
	TimeOfUse bool
	Hour      int
	// Estimator defaults to RateDeltaEstimator when nil
	Estimator SavingsEstimator
}

// Compute derives cost, emissions, water, trees, savings and reward progress from a snapshot
func Compute(usage UsageSnapshot, pricing PricingConfig, opts ImpactOptions) (ImpactMetrics, error) {
	if err := usage.Validate(); err != nil {
		return ImpactMetrics{}, err
	}
	if err := pricing.Validate(); err != nil {
		return ImpactMetrics{}, err
	}

	rate := pricing.FlatRate
	if opts.TimeOfUse {
		if err := validHour(opts.Hour); err != nil {
			return ImpactMetrics{}, err
		}
		rate = pricing.RateAt(opts.Hour)
	}

	estimator := opts.Estimator
	if estimator == nil {
		estimator = RateDeltaEstimator{}
	}

	total := usage.Total()
	co2 := total * CO2KgPerKWh
	savings := estimator.EstimateSavings(usage, pricing)
	if math.IsNaN(savings) || math.IsInf(savings, 0) {
		return ImpactMetrics{}, fmt.Errorf("%w: savings estimator returned %v", ErrInvalidInput, savings)
	}

	return ImpactMetrics{
		TotalKWh:       total,
		Cost:           total * rate,
		CO2Kg:          co2,
		WaterL:         co2 * WaterLPerCO2Kg,
		Trees:          co2 / CO2KgPerTree,
		Savings:        savings,
		RewardProgress: math.Max(0, math.Min(1, savings/RewardTarget)),
		Currency:       pricing.Currency,
	}, nil
}

// Round2 rounds half away from zero to 2 decimal places
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
