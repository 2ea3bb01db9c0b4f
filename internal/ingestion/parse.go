package ingestion

import (
	"strconv"
	"strings"
	"time"

	"macroedge/internal/domain"
	"macroedge/internal/provider"

	"github.com/shopspring/decimal"
)

// ParseFREDObservation extracts the release date and value. ok is false when
// the date is missing or invalid; a "." or non-numeric value yields nil.
func ParseFREDObservation(raw provider.FREDObservation) (time.Time, *float64, bool) {
	d := strings.TrimSpace(raw.Date)
	if d == "" {
		return time.Time{}, nil, false
	}
	releaseDate, err := time.Parse(time.DateOnly, d)
	if err != nil {
		return time.Time{}, nil, false
	}

	v := strings.TrimSpace(raw.Value)
	if v == "" || v == "." {
		return releaseDate, nil, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return releaseDate, nil, true
	}
	return releaseDate, &f, true
}

// BuildObservation assembles the canonical row. The surprise is computed in
// decimal so that e.g. 0.3 - 0.1 is stored as 0.2.
func BuildObservation(indicatorID int64, releaseDate time.Time, actual, previous, forecast *float64) domain.Observation {
	obs := domain.Observation{
		IndicatorID: indicatorID,
		ReleaseDate: domain.DayUTC(releaseDate),
		Actual:      actual,
		Forecast:    forecast,
		Previous:    previous,
		DataVersion: 1,
	}
	if actual != nil && forecast != nil {
		diff, _ := decimal.NewFromFloat(*actual).Sub(decimal.NewFromFloat(*forecast)).Float64()
		obs.Surprise = &diff
	}
	return obs
}
