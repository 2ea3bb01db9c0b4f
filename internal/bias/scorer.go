package bias

import (
	"math"
	"time"

	"macroedge/internal/config"
	"macroedge/internal/domain"
)

const minLambda = 0.01

type WeightedSurprise struct {
	Weight float64
	Signed float64
}

// SignedSurprise orients a normalized surprise so that positive is bullish.
func SignedSurprise(direction domain.Direction, x float64) float64 {
	if direction == domain.DirectionNegative {
		return -x
	}
	return x
}

func ScoreRaw(items []WeightedSurprise) float64 {
	raw := 0.0
	for _, it := range items {
		raw += it.Weight * it.Signed
	}
	return raw
}

// ScoreBounded maps the raw score onto [-100, 100]. Lambda is floored at
// 0.01. math.Tanh reaches exactly ±1 once |raw/lambda| exceeds about 19, so
// the bounds themselves are attainable in float64.
func ScoreBounded(raw, lambda float64) float64 {
	return 100 * math.Tanh(raw/math.Max(minLambda, lambda))
}

// Confidence combines indicator coverage with a volatility damping factor.
func Confidence(nUsed int, vix *float64, cfg *config.BiasEngine) float64 {
	minExpected := math.Max(1, float64(cfg.Confidence.MinIndicatorsExpected))
	coverage := math.Min(1, float64(nUsed)/minExpected)

	nu := 1.0
	if vix != nil {
		vixMin := cfg.Volatility.VixMin
		span := math.Max(1, cfg.Volatility.VixMax-vixMin)
		nu = 1 - clamp((*vix-vixMin)/span, 0, 1)
	}
	return round2(clamp(coverage*nu*100, 0, 100))
}

// RiskFlagFor evaluates the risk rules in priority order: critical
// volatility, weak confidence or a stretched score in a recession, calm
// conditions, then medium.
func RiskFlagFor(confidence, biasAbs float64, vix *float64, regimeCode string, cfg *config.BiasEngine) domain.RiskFlag {
	rf := cfg.RiskFlag
	if vix != nil && *vix >= rf.VixCritical {
		return domain.RiskHigh
	}
	if confidence <= rf.ConfidenceLow || (regimeCode == domain.RegimeRecessionary && biasAbs > rf.BiasModerateAbs) {
		return domain.RiskHigh
	}
	if confidence >= rf.ConfidenceHigh && biasAbs <= rf.BiasModerateAbs && (vix == nil || *vix < rf.VixHigh) {
		return domain.RiskLow
	}
	return domain.RiskMedium
}

type ScoreInput struct {
	AsOf       time.Time
	Index      domain.Index
	RegimeID   int64
	RegimeCode string
	Weights    []ResolvedWeight
	Surprises  map[int64]domain.LatestSurprise
	VIX        *float64
}

// ComputeIndexScore joins resolved weights with the fresh surprises. An
// indicator without a fresh surprise is left out, not imputed.
func ComputeIndexScore(in ScoreInput, cfg *config.BiasEngine) domain.BiasScore {
	weighted := make([]WeightedSurprise, 0, len(in.Weights))
	for _, w := range in.Weights {
		s, ok := in.Surprises[w.IndicatorID]
		if !ok {
			continue
		}
		weighted = append(weighted, WeightedSurprise{
			Weight: w.Weight,
			Signed: SignedSurprise(s.Direction, s.SurpriseNormalized),
		})
	}

	raw := ScoreRaw(weighted)
	score := ScoreBounded(raw, cfg.Scoring.LambdaFor(in.Index.Code))
	confidence := Confidence(len(weighted), in.VIX, cfg)

	return domain.BiasScore{
		Time:          domain.DayUTC(in.AsOf),
		IndexID:       in.Index.ID,
		IndexCode:     in.Index.Code,
		BiasScore:     round2(score),
		RegimeID:      in.RegimeID,
		ConfidencePct: confidence,
		RiskFlag:      RiskFlagFor(confidence, math.Abs(score), in.VIX, in.RegimeCode, cfg),
		Components: domain.ScoreComponents{
			SRaw:        raw,
			NIndicators: len(weighted),
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
