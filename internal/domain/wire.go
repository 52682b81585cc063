package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedResponse is returned when a service response body does not have
// the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

var validate = validator.New()

// Wire shapes use pointers so an absent field can be told apart from a zero
// value before conversion to the domain types.

type wireArgument struct {
	Feature *string  `json:"feature" validate:"required,min=1"`
	Value   *float64 `json:"value"`
	Shap    *float64 `json:"shap" validate:"required"`
	Text    *string  `json:"text"`
}

type wireAnalysis struct {
	Ticker          *string        `json:"ticker" validate:"required,min=1"`
	Date            *string        `json:"date"`
	Prediction      *string        `json:"prediction" validate:"required,min=1"`
	Confidence      *float64       `json:"confidence" validate:"required,gte=0,lte=1"`
	BaseProbability *float64       `json:"base_probability" validate:"required"`
	CurrentPrice    *float64       `json:"current_price" validate:"omitempty,gte=0"`
	BullishArgs     []wireArgument `json:"bullish_args" validate:"required,dive"`
	BearishArgs     []wireArgument `json:"bearish_args" validate:"required,dive"`
	AICommentary    *string        `json:"ai_commentary"`
}

type wireCandidate struct {
	Symbol   *string `json:"symbol" validate:"required,min=1"`
	Name     *string `json:"name"`
	Exchange *string `json:"exchange"`
	Type     *string `json:"type"`
}

type wireError struct {
	Detail *string `json:"detail"`
}

// DecodeAnalysis parses and validates an analysis response body.
func DecodeAnalysis(body []byte) (*AnalysisResult, error) {
	var w wireAnalysis
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, malformed("analysis", err)
	}
	if err := validate.Struct(&w); err != nil {
		return nil, malformed("analysis", err)
	}

	return &AnalysisResult{
		Ticker:          *w.Ticker,
		Date:            deref(w.Date),
		Prediction:      Verdict(*w.Prediction),
		Confidence:      *w.Confidence,
		BaseProbability: *w.BaseProbability,
		CurrentPrice:    derefFloat(w.CurrentPrice, 0),
		BullishArgs:     convertArguments(w.BullishArgs),
		BearishArgs:     convertArguments(w.BearishArgs),
		AICommentary:    deref(w.AICommentary),
	}, nil
}

// DecodeCandidates parses and validates a search response body.
func DecodeCandidates(body []byte) ([]SearchCandidate, error) {
	var ws []wireCandidate
	if err := json.Unmarshal(body, &ws); err != nil {
		return nil, malformed("search", err)
	}
	if ws == nil {
		return nil, malformed("search", errors.New("expected array, got null"))
	}
	for i := range ws {
		if err := validate.Struct(&ws[i]); err != nil {
			return nil, malformed("search", fmt.Errorf("candidate %d: %w", i, err))
		}
	}

	out := make([]SearchCandidate, 0, len(ws))
	for _, w := range ws {
		out = append(out, SearchCandidate{
			Symbol:   *w.Symbol,
			Name:     deref(w.Name),
			Exchange: deref(w.Exchange),
			Type:     deref(w.Type),
		})
	}
	return out, nil
}

// DecodeUniverse parses and validates a ticker listing body.
func DecodeUniverse(body []byte) ([]string, error) {
	var symbols []string
	if err := json.Unmarshal(body, &symbols); err != nil {
		return nil, malformed("tickers", err)
	}
	if symbols == nil {
		return nil, malformed("tickers", errors.New("expected array, got null"))
	}
	for i, s := range symbols {
		if strings.TrimSpace(s) == "" {
			return nil, malformed("tickers", fmt.Errorf("empty symbol at index %d", i))
		}
	}
	return symbols, nil
}

// DecodeErrorDetail extracts the human-readable "detail" field of an error
// payload. It returns "" when the body is unparsable or has no string detail.
func DecodeErrorDetail(body []byte) string {
	var w wireError
	if err := json.Unmarshal(body, &w); err != nil {
		return ""
	}
	return deref(w.Detail)
}

func convertArguments(ws []wireArgument) []Argument {
	out := make([]Argument, 0, len(ws))
	for _, w := range ws {
		out = append(out, Argument{
			Feature: *w.Feature,
			Value:   derefFloat(w.Value, math.NaN()),
			Shap:    *w.Shap,
			Text:    deref(w.Text),
		})
	}
	return out
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, what, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64, fallback float64) float64 {
	if f == nil {
		return fallback
	}
	return *f
}
