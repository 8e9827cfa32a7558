package engine

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MinForecastPoints is the shortest series ForecastNext will fit
const MinForecastPoints = 3

// DailyTotal is the total usage observed on one calendar day
type DailyTotal struct {
	Date     time.Time `json:"date"`
	TotalKWh float64   `json:"total_kwh"`
}

// DailyTotals groups history by calendar day (in each entry's own location), oldest first
func DailyTotals(history []HistoryEntry) []DailyTotal {
	totals := []DailyTotal{}
	index := map[string]int{}
	for _, h := range history {
		key := h.Timestamp.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			y, m, d := h.Timestamp.Date()
			totals = append(totals, DailyTotal{Date: time.Date(y, m, d, 0, 0, 0, 0, h.Timestamp.Location())})
			i = len(totals) - 1
			index[key] = i
		}
		totals[i].TotalKWh += h.Usage.Total()
	}
	return totals
}

// ForecastNext fits a least-squares line through the series and evaluates it one step ahead.
// Negative projections are clamped to zero.
func ForecastNext(points []float64) (float64, error) {
	if len(points) < MinForecastPoints {
		return 0, fmt.Errorf("%w: need %d points, have %d", ErrInsufficientHistory, MinForecastPoints, len(points))
	}

	xs := make([]float64, len(points))
	for i, p := range points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return 0, fmt.Errorf("%w: point %d is not a number", ErrInvalidInput, i)
		}
		xs[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(xs, points, nil, false)
	return math.Max(0, alpha+beta*float64(len(points))), nil
}

// ForecastTomorrow predicts the next day's total usage from hourly history
func ForecastTomorrow(history []HistoryEntry) (float64, error) {
	days := DailyTotals(history)
	points := make([]float64, len(days))
	for i, d := range days {
		points[i] = d.TotalKWh
	}
	return ForecastNext(points)
}
