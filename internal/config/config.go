package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the marketintel tools.
type Config struct {
	Service Service `yaml:"service"`
	Search  Search  `yaml:"search"`
	Display Display `yaml:"display"`
	Logging Logging `yaml:"logging"`
	Stub    Stub    `yaml:"stub"`
}

// Service locates the remote analysis service.
type Service struct {
	BaseURL string        `yaml:"base_url" default:"http://localhost:8000" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
}

// Search tunes the asset search dropdown.
type Search struct {
	MinQueryLen int `yaml:"min_query_len" default:"2" validate:"gte=1"`
}

// Display controls result presentation.
type Display struct {
	TopImpacts int `yaml:"top_impacts" default:"10" validate:"gte=1"`
}

// Logging configures the application logger. An empty Dir selects the
// system temp directory.
type Logging struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
}

// Stub configures the development stub service.
type Stub struct {
	Addr     string        `yaml:"addr" default:":8000" validate:"required"`
	Fixtures string        `yaml:"fixtures"`
	Latency  time.Duration `yaml:"latency" validate:"gte=0"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

var validate = validator.New()

// Default returns a configuration with every default applied and the
// environment overrides on top.
func Default() (*Config, error) {
	return parse(nil)
}

// Load reads the YAML configuration file at the given path, fills unset
// fields with defaults, applies environment variable overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return cfg, err
}

func parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MARKETINTEL_BASE_URL"); v != "" {
		cfg.Service.BaseURL = v
	}

	if v := os.Getenv("MARKETINTEL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing MARKETINTEL_TIMEOUT: %w", err)
		}
		cfg.Service.Timeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("MARKETINTEL_LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}

	if v := os.Getenv("MARKETINTEL_STUB_FIXTURES"); v != "" {
		cfg.Stub.Fixtures = v
	}
	return nil
}
