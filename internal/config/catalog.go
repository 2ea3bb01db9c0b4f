package config

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type IndexDef struct {
	Code     string `yaml:"code" validate:"required"`
	Name     string `yaml:"name"`
	Region   string `yaml:"region" default:"US"`
	Currency string `yaml:"currency" default:"USD"`
	Timezone string `yaml:"timezone" default:"America/New_York"`
}

// IndicatorDef describes one configured series. NaiveForecast uses the prior
// release as the forecast for series that carry no consensus estimate.
type IndicatorDef struct {
	Code          string `yaml:"code"`
	Name          string `yaml:"name"`
	Category      string `yaml:"category"`
	Unit          string `yaml:"unit"`
	Direction     string `yaml:"direction" default:"positive"`
	Source        string `yaml:"source"`
	SeriesID      string `yaml:"series_id"`
	NaiveForecast bool   `yaml:"naive_forecast"`
}

// LoadIndices reads indices.yaml. Entries without a name use their code.
func LoadIndices(dir string) ([]IndexDef, error) {
	raw, err := readConfigFile(dir, "indices")
	if err != nil || raw == nil {
		return nil, err
	}
	var doc struct {
		Indices []IndexDef `yaml:"indices"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse indices config: %w", err)
	}
	out := make([]IndexDef, 0, len(doc.Indices))
	for i := range doc.Indices {
		def := doc.Indices[i]
		def.Code = strings.TrimSpace(def.Code)
		if err := defaults.Set(&def); err != nil {
			return nil, fmt.Errorf("indices[%d] defaults: %w", i, err)
		}
		if err := validate.Struct(def); err != nil {
			return nil, fmt.Errorf("indices[%d]: %w", i, err)
		}
		if def.Name == "" {
			def.Name = def.Code
		}
		out = append(out, def)
	}
	return out, nil
}

// LoadIndicators reads indicators.yaml. Incomplete entries are kept so the
// ingestion run can report them.
func LoadIndicators(dir string) ([]IndicatorDef, error) {
	raw, err := readConfigFile(dir, "indicators")
	if err != nil || raw == nil {
		return nil, err
	}
	var doc struct {
		Indicators []IndicatorDef `yaml:"indicators"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse indicators config: %w", err)
	}
	for i := range doc.Indicators {
		if err := defaults.Set(&doc.Indicators[i]); err != nil {
			return nil, fmt.Errorf("indicators[%d] defaults: %w", i, err)
		}
		if doc.Indicators[i].Name == "" {
			doc.Indicators[i].Name = doc.Indicators[i].Code
		}
	}
	return doc.Indicators, nil
}
