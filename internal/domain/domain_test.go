package domain

import (
	"testing"
	"time"
)

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{
		"negative":  DirectionNegative,
		" NEGATIVE": DirectionNegative,
		"positive":  DirectionPositive,
		"":          DirectionPositive,
		"sideways":  DirectionPositive,
	}
	for in, want := range cases {
		if got := ParseDirection(in); got != want {
			t.Errorf("ParseDirection(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDayUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	in := time.Date(2024, 3, 10, 21, 30, 0, 0, loc)
	got := DayUTC(in)
	want := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRiskFlagIsValid(t *testing.T) {
	for _, r := range []RiskFlag{RiskLow, RiskMedium, RiskHigh} {
		if !r.IsValid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if RiskFlag("extreme").IsValid() {
		t.Error("unexpected valid risk flag")
	}
}

func TestRegimeMultipliers(t *testing.T) {
	var none RegimeMultipliers
	if got := none.Multiplier(RegimeNeutral); got != 1.0 {
		t.Fatalf("expected 1.0 for nil map, got %v", got)
	}
	m := RegimeMultipliers{RegimeRecessionary: 1.5}
	if got := m.Multiplier(RegimeRecessionary); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
	if got := m.Multiplier(RegimeNeutral); got != 1.0 {
		t.Fatalf("expected default 1.0, got %v", got)
	}
}
