package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// BiasEngine is the configuration snapshot handed to the normalizer and the
// scorer. It is loaded once per process or run and never re-read mid-run.
type BiasEngine struct {
	Surprise   SurpriseConfig   `yaml:"surprise"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Volatility VolatilityConfig `yaml:"volatility"`
	RiskFlag   RiskFlagConfig   `yaml:"risk_flag"`
}

type SurpriseConfig struct {
	RollingWindowDays int     `yaml:"rolling_window_days" default:"252" validate:"gt=0"`
	CapStdMultiple    float64 `yaml:"cap_std_multiple" default:"3.0" validate:"gt=0"`
	MaxDaysBack       int     `yaml:"max_days_back" default:"30" validate:"gte=0"`
}

type ScoringConfig struct {
	Lambda        map[string]float64 `yaml:"lambda"`
	DefaultLambda float64            `yaml:"default_lambda" default:"2.0"`
	MaxDaysBack   int                `yaml:"max_days_back" default:"14" validate:"gte=0"`
	Concurrency   int                `yaml:"concurrency" default:"4" validate:"gte=1,lte=64"`
}

type ConfidenceConfig struct {
	MinIndicatorsExpected int `yaml:"min_indicators_expected" default:"5" validate:"gte=0"`
	StaleReleaseDays      int `yaml:"stale_release_days" default:"7" validate:"gte=0"`
}

type VolatilityConfig struct {
	Symbol   string  `yaml:"symbol" default:"VIX" validate:"required"`
	SeriesID string  `yaml:"series_id" default:"VIXCLS"`
	VixMin   float64 `yaml:"vix_min" default:"10"`
	VixMax   float64 `yaml:"vix_max" default:"40" validate:"gtfield=VixMin"`
}

type RiskFlagConfig struct {
	ConfidenceHigh  float64 `yaml:"confidence_high" default:"70" validate:"gte=0,lte=100"`
	ConfidenceLow   float64 `yaml:"confidence_low" default:"40" validate:"gte=0,ltefield=ConfidenceHigh"`
	BiasModerateAbs float64 `yaml:"bias_moderate_abs" default:"50" validate:"gte=0,lte=100"`
	VixHigh         float64 `yaml:"vix_high" default:"35"`
	VixCritical     float64 `yaml:"vix_critical" default:"45" validate:"gtefield=VixHigh"`
}

// LambdaFor returns the sensitivity of an index, falling back to the default.
// Non-finite entries are ignored. Small or negative values are returned as
// configured; the scorer floors them.
func (s ScoringConfig) LambdaFor(indexCode string) float64 {
	if v, ok := s.Lambda[indexCode]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return s.DefaultLambda
}

// DefaultBiasEngine returns the configuration used when no file is present.
func DefaultBiasEngine() *BiasEngine {
	cfg := &BiasEngine{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("bias engine defaults: %v", err))
	}
	return cfg
}

// ParseBiasEngine decodes YAML on top of the defaults, so keys that are
// absent keep their default and explicit zeros are honoured.
func ParseBiasEngine(raw []byte) (*BiasEngine, error) {
	cfg := DefaultBiasEngine()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse bias engine config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate bias engine config: %w", err)
	}
	return cfg, nil
}

// LoadBiasEngine reads bias_engine.yaml (or bias_engine.example.yaml) from dir.
func LoadBiasEngine(dir string) (*BiasEngine, error) {
	raw, err := readConfigFile(dir, "bias_engine")
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return DefaultBiasEngine(), nil
	}
	return ParseBiasEngine(raw)
}

// readConfigFile returns the contents of <name>.yaml, falling back to
// <name>.example.yaml. Both missing is not an error and yields nil.
func readConfigFile(dir, name string) ([]byte, error) {
	for _, candidate := range []string{name + ".yaml", name + ".example.yaml"} {
		raw, err := os.ReadFile(filepath.Join(dir, candidate))
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", candidate, err)
		}
	}
	return nil, nil
}
