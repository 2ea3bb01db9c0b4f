package domain

import (
	"strings"
	"time"
)

type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
)

// ParseDirection maps stored or configured values onto a Direction.
// Anything other than "negative" is treated as positive.
func ParseDirection(v string) Direction {
	if strings.EqualFold(strings.TrimSpace(v), string(DirectionNegative)) {
		return DirectionNegative
	}
	return DirectionPositive
}

const (
	RegimeNeutral      = "neutral"
	RegimeRecessionary = "recessionary"
)

type Regime struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

type DataSource struct {
	ID       int64
	Code     string
	Name     string
	Provider string
	Timezone string
}

type Indicator struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Direction Direction `json:"direction"`
	SourceID  int64     `json:"source_id,omitempty"`
}

type Observation struct {
	IndicatorID        int64
	ReleaseDate        time.Time
	Actual             *float64
	Forecast           *float64
	Previous           *float64
	Surprise           *float64
	SurpriseNormalized *float64
	DataVersion        int
}

// SurprisePoint is one non-null raw surprise of an indicator.
type SurprisePoint struct {
	ReleaseDate time.Time
	Surprise    float64
}

// LatestSurprise is the freshest normalized surprise of an indicator
// as seen by the scorer.
type LatestSurprise struct {
	IndicatorID        int64
	Direction          Direction
	SurpriseNormalized float64
	ReleaseDate        time.Time
}

type Index struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Region   string `json:"region,omitempty"`
	Currency string `json:"currency,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// RegimeMultipliers reweights an indicator per regime code.
type RegimeMultipliers map[string]float64

// Multiplier returns the multiplier for a regime, 1.0 when none is set.
func (m RegimeMultipliers) Multiplier(regimeCode string) float64 {
	if v, ok := m[regimeCode]; ok {
		return v
	}
	return 1.0
}

type WeightAssignment struct {
	IndexID           int64
	IndicatorID       int64
	Weight            float64
	RegimeMultipliers RegimeMultipliers
}

// MacroLatest is one row of the latest-observation view served by the API.
type MacroLatest struct {
	Code               string     `json:"code"`
	Name               string     `json:"name"`
	Category           *string    `json:"category"`
	Unit               *string    `json:"unit"`
	Direction          Direction  `json:"direction"`
	ReleaseDate        *time.Time `json:"release_date"`
	Actual             *float64   `json:"actual"`
	Forecast           *float64   `json:"forecast"`
	Previous           *float64   `json:"previous"`
	Surprise           *float64   `json:"surprise"`
	SurpriseNormalized *float64   `json:"surprise_normalized"`
}

// DayUTC truncates t to midnight of its UTC calendar date.
func DayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// VolatilityReading is one daily close of a volatility index such as VIX.
type VolatilityReading struct {
	Time  time.Time
	Value float64
}
