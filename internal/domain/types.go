// Package domain defines the core types shared by the marketintel client:
// analysis results, their arguments, and search candidates.
package domain

import (
	"encoding/json"
	"math"
)

// ---------------------------------------------------------------------------
// Verdict
// ---------------------------------------------------------------------------

// Verdict is the model's discrete recommendation label.
type Verdict string

const (
	VerdictLong  Verdict = "LONG"
	VerdictShort Verdict = "SHORT"
)

// Bullish reports whether the verdict is the bullish-styled label. Every
// label other than LONG is treated as non-bullish.
func (v Verdict) Bullish() bool {
	return v == VerdictLong
}

// ---------------------------------------------------------------------------
// Arguments and results
// ---------------------------------------------------------------------------

// Argument is a single feature's signed contribution to a prediction.
type Argument struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"` // NaN when the service sent null
	Shap    float64 `json:"shap"`
	Text    string  `json:"text"`
}

// Bullish reports whether the argument pushes the prediction up.
func (a Argument) Bullish() bool {
	return a.Shap > 0
}

// Magnitude is the absolute impact of the argument.
func (a Argument) Magnitude() float64 {
	return math.Abs(a.Shap)
}

// HasValue reports whether the observed feature value is known.
func (a Argument) HasValue() bool {
	return !math.IsNaN(a.Value)
}

// MarshalJSON encodes an unknown value as null.
func (a Argument) MarshalJSON() ([]byte, error) {
	var value *float64
	if a.HasValue() {
		value = &a.Value
	}
	return json.Marshal(struct {
		Feature string   `json:"feature"`
		Value   *float64 `json:"value"`
		Shap    float64  `json:"shap"`
		Text    string   `json:"text"`
	}{a.Feature, value, a.Shap, a.Text})
}

// AnalysisResult is one explainability analysis as returned by the service.
type AnalysisResult struct {
	Ticker          string     `json:"ticker"`
	Date            string     `json:"date"`
	Prediction      Verdict    `json:"prediction"`
	Confidence      float64    `json:"confidence"`
	BaseProbability float64    `json:"base_probability"`
	CurrentPrice    float64    `json:"current_price"`
	BullishArgs     []Argument `json:"bullish_args"`
	BearishArgs     []Argument `json:"bearish_args"`
	AICommentary    string     `json:"ai_commentary"`
}

// MisplacedArguments counts arguments whose sign disagrees with the list the
// service placed them in. Such arguments are kept as-is.
func MisplacedArguments(res *AnalysisResult) int {
	if res == nil {
		return 0
	}
	n := 0
	for _, a := range res.BullishArgs {
		if !a.Bullish() {
			n++
		}
	}
	for _, a := range res.BearishArgs {
		if a.Bullish() {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// UniverseName is the display name given to symbols from the ticker universe.
const UniverseName = "Available Asset"

// SearchCandidate is one entry of the search dropdown.
type SearchCandidate struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"`
}

// UniverseCandidate wraps a universe symbol as a search candidate.
func UniverseCandidate(symbol string) SearchCandidate {
	return SearchCandidate{Symbol: symbol, Name: UniverseName}
}

// ServiceStatus is the body of the service root endpoint.
type ServiceStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
