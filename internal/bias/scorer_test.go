package bias

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"macroedge/internal/config"
	"macroedge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vixPtr(v float64) *float64 { return &v }

func TestSignedSurprise(t *testing.T) {
	assert.Equal(t, -2.0, SignedSurprise(domain.DirectionNegative, 2))
	assert.Equal(t, 2.0, SignedSurprise(domain.DirectionPositive, 2))
	assert.Equal(t, 2.0, SignedSurprise(domain.Direction(""), 2))
}

func TestScoreRawOffsettingSurprisesIsExactlyZero(t *testing.T) {
	raw := ScoreRaw([]WeightedSurprise{{Weight: 0.5, Signed: 1.0}, {Weight: 0.5, Signed: -1.0}})
	assert.Equal(t, 0.0, raw)
	assert.Equal(t, 0.0, ScoreRaw(nil))
}

func TestScoreBoundedStaysInRange(t *testing.T) {
	prev := -101.0
	for _, raw := range []float64{-1e6, -10, -1, -0.1, 0, 0.1, 1, 10, 1e6} {
		for _, lambda := range []float64{-5, 0, 0.01, 2} {
			s := ScoreBounded(raw, lambda)
			assert.GreaterOrEqual(t, s, -100.0)
			assert.LessOrEqual(t, s, 100.0)
		}
		s := ScoreBounded(raw, 2)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}
	assert.Equal(t, ScoreBounded(1, 0.01), ScoreBounded(1, 0))
}

func TestScoreBoundedZeroRawIsZero(t *testing.T) {
	for _, lambda := range []float64{-1, 0, 0.01, 0.5, 2, 100} {
		assert.Equal(t, 0.0, ScoreBounded(0, lambda))
	}
}

func TestScoreBoundedSaturates(t *testing.T) {
	assert.Equal(t, 100.0, ScoreBounded(40, 2))
	assert.Equal(t, -100.0, ScoreBounded(-40, 2))
}

func TestComputeIndexScoreFloorsConfiguredLambda(t *testing.T) {
	cfg, err := config.ParseBiasEngine([]byte("scoring:\n  lambda:\n    US500: 0\n"))
	require.NoError(t, err)

	out := ComputeIndexScore(ScoreInput{
		Index:      domain.Index{ID: 1, Code: "US500"},
		RegimeCode: domain.RegimeNeutral,
		Weights:    []ResolvedWeight{{IndicatorID: 1, Weight: 1.0}},
		Surprises: map[int64]domain.LatestSurprise{
			1: {IndicatorID: 1, SurpriseNormalized: 0.001},
		},
	}, cfg)

	assert.Equal(t, round2(ScoreBounded(0.001, 0.01)), out.BiasScore)
	assert.InDelta(t, 100*math.Tanh(0.1), out.BiasScore, 0.005)
}

func TestConfidence(t *testing.T) {
	cfg := config.DefaultBiasEngine()

	assert.Equal(t, 100.0, Confidence(5, nil, cfg))
	assert.Equal(t, 100.0, Confidence(8, nil, cfg))
	assert.Equal(t, 60.0, Confidence(3, nil, cfg))
	assert.Equal(t, 0.0, Confidence(0, nil, cfg))
	assert.Equal(t, 50.0, Confidence(5, vixPtr(25), cfg))
	assert.Equal(t, 100.0, Confidence(5, vixPtr(5), cfg))
	assert.Equal(t, 0.0, Confidence(5, vixPtr(60), cfg))
	assert.Equal(t, 33.33, Confidence(5, vixPtr(30), cfg))

	cfg.Confidence.MinIndicatorsExpected = 0
	assert.Equal(t, 100.0, Confidence(1, nil, cfg))
}

func TestConfidenceDecreasesWithVolatility(t *testing.T) {
	cfg := config.DefaultBiasEngine()
	prev := 101.0
	for v := 0.0; v <= 60; v += 2.5 {
		c := Confidence(4, vixPtr(v), cfg)
		assert.LessOrEqual(t, c, prev)
		assert.GreaterOrEqual(t, c, 0.0)
		prev = c
	}
}

func TestRiskFlagFor(t *testing.T) {
	cfg := config.DefaultBiasEngine()

	cases := []struct {
		name       string
		confidence float64
		biasAbs    float64
		vix        *float64
		regime     string
		want       domain.RiskFlag
	}{
		{"calm", 75, 30, vixPtr(15), domain.RegimeNeutral, domain.RiskLow},
		{"calm without vix", 75, 30, nil, domain.RegimeNeutral, domain.RiskLow},
		{"critical vix beats calm", 100, 0, vixPtr(45), domain.RegimeNeutral, domain.RiskHigh},
		{"low confidence", 40, 10, nil, domain.RegimeNeutral, domain.RiskHigh},
		{"recession stretched", 90, 60, nil, domain.RegimeRecessionary, domain.RiskHigh},
		{"recession moderate", 90, 40, nil, domain.RegimeRecessionary, domain.RiskLow},
		{"elevated vix", 90, 10, vixPtr(35), domain.RegimeNeutral, domain.RiskMedium},
		{"mid confidence", 60, 10, nil, domain.RegimeNeutral, domain.RiskMedium},
		{"strong bias", 90, 70, nil, domain.RegimeNeutral, domain.RiskMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RiskFlagFor(tc.confidence, tc.biasAbs, tc.vix, tc.regime, cfg))
		})
	}
}

func TestRiskFlagUsesConfiguredModerateThreshold(t *testing.T) {
	cfg := config.DefaultBiasEngine()
	cfg.RiskFlag.BiasModerateAbs = 20

	assert.Equal(t, domain.RiskHigh, RiskFlagFor(90, 30, nil, domain.RegimeRecessionary, cfg))
	assert.Equal(t, domain.RiskMedium, RiskFlagFor(90, 30, nil, domain.RegimeNeutral, cfg))
}

func TestComputeIndexScoreNegativeDirection(t *testing.T) {
	cfg := config.DefaultBiasEngine()
	asOf := time.Date(2024, 6, 3, 17, 30, 0, 0, time.UTC)

	out := ComputeIndexScore(ScoreInput{
		AsOf:       asOf,
		Index:      domain.Index{ID: 7, Code: "US500"},
		RegimeID:   3,
		RegimeCode: domain.RegimeNeutral,
		Weights:    []ResolvedWeight{{IndicatorID: 1, Weight: 1.0}},
		Surprises: map[int64]domain.LatestSurprise{
			1: {IndicatorID: 1, Direction: domain.DirectionNegative, SurpriseNormalized: 2.0},
		},
	}, cfg)

	assert.Equal(t, -2.0, out.Components.SRaw)
	assert.Equal(t, 1, out.Components.NIndicators)
	assert.Equal(t, -76.16, out.BiasScore)
	assert.InDelta(t, 100*math.Tanh(-1), out.BiasScore, 0.005)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), out.Time)
	assert.Equal(t, int64(7), out.IndexID)
	assert.Equal(t, int64(3), out.RegimeID)
	assert.Equal(t, 20.0, out.ConfidencePct)
	assert.Equal(t, domain.RiskHigh, out.RiskFlag)
}

func TestComputeIndexScoreSkipsStaleIndicators(t *testing.T) {
	cfg := config.DefaultBiasEngine()
	cfg.Scoring.Lambda = map[string]float64{"NAS100": 1.0}

	out := ComputeIndexScore(ScoreInput{
		Index:      domain.Index{ID: 1, Code: "NAS100"},
		RegimeCode: domain.RegimeNeutral,
		Weights: []ResolvedWeight{
			{IndicatorID: 1, Weight: 0.5},
			{IndicatorID: 2, Weight: 0.5},
		},
		Surprises: map[int64]domain.LatestSurprise{
			2: {IndicatorID: 2, Direction: domain.DirectionPositive, SurpriseNormalized: 1.0},
			9: {IndicatorID: 9, Direction: domain.DirectionPositive, SurpriseNormalized: 3.0},
		},
	}, cfg)

	assert.Equal(t, 0.5, out.Components.SRaw)
	assert.Equal(t, 1, out.Components.NIndicators)
	assert.Equal(t, math.Round(100*math.Tanh(0.5)*100)/100, out.BiasScore)
}

func TestComputeIndexScoreNoData(t *testing.T) {
	out := ComputeIndexScore(ScoreInput{
		Index:      domain.Index{ID: 1, Code: "US30"},
		RegimeCode: domain.RegimeNeutral,
	}, config.DefaultBiasEngine())

	assert.Equal(t, 0.0, out.BiasScore)
	assert.Equal(t, 0.0, out.ConfidencePct)
	assert.Equal(t, domain.RiskHigh, out.RiskFlag)
	assert.Equal(t, 0, out.Components.NIndicators)
}

func TestComputeIndexScoreIsDeterministic(t *testing.T) {
	cfg := config.DefaultBiasEngine()
	in := ScoreInput{
		Index:      domain.Index{ID: 1, Code: "US500"},
		RegimeCode: domain.RegimeNeutral,
		VIX:        vixPtr(18.25),
		Weights: []ResolvedWeight{
			{IndicatorID: 1, Weight: 1.0 / 3},
			{IndicatorID: 2, Weight: 1.0 / 3},
			{IndicatorID: 3, Weight: 1.0 / 3},
		},
		Surprises: map[int64]domain.LatestSurprise{
			1: {IndicatorID: 1, SurpriseNormalized: 0.7},
			2: {IndicatorID: 2, Direction: domain.DirectionNegative, SurpriseNormalized: -1.3},
			3: {IndicatorID: 3, SurpriseNormalized: 2.9},
		},
	}

	first, err := json.Marshal(ComputeIndexScore(in, cfg))
	require.NoError(t, err)
	second, err := json.Marshal(ComputeIndexScore(in, cfg))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	components, err := json.Marshal(ComputeIndexScore(in, cfg).Components)
	require.NoError(t, err)
	assert.Contains(t, string(components), `"S_raw":`)
	assert.Contains(t, string(components), `"n_indicators":3`)
}
