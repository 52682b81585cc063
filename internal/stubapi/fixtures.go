package stubapi

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed testdata/demo.yaml
var demoFixtures []byte

// Fixtures is the canned data served by the stub.
type Fixtures struct {
	Tickers  []string            `yaml:"tickers"`
	Assets   []Asset             `yaml:"assets"`
	Analyses map[string]Analysis `yaml:"analyses"`
}

// Asset is a searchable instrument. Only assets whose symbol is in Tickers
// are returned by search.
type Asset struct {
	Symbol   string `yaml:"symbol" json:"symbol"`
	Name     string `yaml:"name" json:"name"`
	Exchange string `yaml:"exchange" json:"exchange"`
	Type     string `yaml:"type" json:"type"`
}

// Argument mirrors the service's argument payload. A nil Value is sent as
// JSON null.
type Argument struct {
	Feature string   `yaml:"feature" json:"feature"`
	Value   *float64 `yaml:"value" json:"value"`
	Shap    float64  `yaml:"shap" json:"shap"`
	Text    string   `yaml:"text" json:"text"`
}

// Analysis is one canned analysis response. Ticker is filled in by the
// handler.
type Analysis struct {
	Ticker          string     `yaml:"-" json:"ticker"`
	Date            string     `yaml:"date" json:"date"`
	Prediction      string     `yaml:"prediction" json:"prediction"`
	Confidence      float64    `yaml:"confidence" json:"confidence"`
	BaseProbability float64    `yaml:"base_probability" json:"base_probability"`
	CurrentPrice    float64    `yaml:"current_price" json:"current_price"`
	BullishArgs     []Argument `yaml:"bullish_args" json:"bullish_args"`
	BearishArgs     []Argument `yaml:"bearish_args" json:"bearish_args"`
	AICommentary    string     `yaml:"ai_commentary" json:"ai_commentary"`
}

// DemoFixtures returns the built-in fixture set.
func DemoFixtures() (*Fixtures, error) {
	return ParseFixtures(demoFixtures)
}

// LoadFixtures reads a YAML fixture file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures and normalises symbols to upper case.
func ParseFixtures(data []byte) (*Fixtures, error) {
	fx := &Fixtures{}
	if err := yaml.Unmarshal(data, fx); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}

	for i, t := range fx.Tickers {
		fx.Tickers[i] = strings.ToUpper(t)
	}
	for i := range fx.Assets {
		fx.Assets[i].Symbol = strings.ToUpper(fx.Assets[i].Symbol)
	}
	analyses := make(map[string]Analysis, len(fx.Analyses))
	for sym, a := range fx.Analyses {
		analyses[strings.ToUpper(sym)] = a
	}
	fx.Analyses = analyses
	return fx, nil
}
