// Package ranking merges the bullish and bearish arguments of an analysis and
// orders them by impact magnitude for display.
package ranking

import (
	"slices"

	"marketintel/internal/domain"
)

// DefaultLimit is the number of arguments shown in the impact chart.
const DefaultLimit = 10

// Rank concatenates bullish then bearish arguments, sorts them by absolute
// impact descending, and keeps the first limit entries. Ties keep their
// concatenation order. The inputs are not modified.
func Rank(bullish, bearish []domain.Argument, limit int) []domain.Argument {
	if limit <= 0 {
		return []domain.Argument{}
	}

	combined := make([]domain.Argument, 0, len(bullish)+len(bearish))
	combined = append(combined, bullish...)
	combined = append(combined, bearish...)

	slices.SortStableFunc(combined, func(a, b domain.Argument) int {
		ma, mb := a.Magnitude(), b.Magnitude()
		switch {
		case ma > mb:
			return -1
		case ma < mb:
			return 1
		default:
			return 0
		}
	})

	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined
}

// Bar is one row of the impact chart.
type Bar struct {
	Feature  string
	Shap     float64
	Positive bool // colour follows the signed impact, not its magnitude
}

// Bars converts ranked arguments into chart rows.
func Bars(ranked []domain.Argument) []Bar {
	bars := make([]Bar, 0, len(ranked))
	for _, a := range ranked {
		bars = append(bars, Bar{Feature: a.Feature, Shap: a.Shap, Positive: a.Shap > 0})
	}
	return bars
}

// MaxMagnitude returns the largest absolute impact among bars, or 0.
func MaxMagnitude(bars []Bar) float64 {
	var m float64
	for _, b := range bars {
		v := b.Shap
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}
