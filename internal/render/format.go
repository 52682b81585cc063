package render

import (
	"fmt"
	"math"
)

// FormatPrice formats a price as $X.XX.
func FormatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

// FormatConfidence formats a 0..1 confidence as a percentage with one
// decimal.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.1f%%", c*100)
}

// FormatProbability formats the model base probability.
func FormatProbability(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

// FormatImpact formats an impact magnitude with three decimals.
func FormatImpact(shap float64) string {
	return fmt.Sprintf("%.3f", shap)
}

// FormatSignedImpact formats an impact with an explicit sign and four
// decimals.
func FormatSignedImpact(shap float64) string {
	return fmt.Sprintf("%+.4f", shap)
}

// FormatValue formats an observed feature value, or "n/a" when unknown.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
