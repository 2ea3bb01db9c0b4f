package surprise

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Epsilon is the scale floor that keeps a zero dispersion from dividing by
// zero.
const Epsilon = 1e-8

// Stats describes the rolling distribution of raw surprises. Std is absent
// with fewer than two samples, Mean is absent with none.
type Stats struct {
	Mean  *float64
	Std   *float64
	Count int
}

// RollingStats returns the mean and sample standard deviation (n-1
// denominator, as PostgreSQL STDDEV) of the finite values.
func RollingStats(values []float64) Stats {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		clean = append(clean, v)
	}

	out := Stats{Count: len(clean)}
	if len(clean) == 0 {
		return out
	}
	mean := stat.Mean(clean, nil)
	out.Mean = &mean
	if len(clean) < 2 {
		return out
	}
	std := stat.StdDev(clean, nil)
	out.Std = &std
	return out
}

// NormalizeSurprise standardises x against the rolling stats and caps the
// result to [-cap, cap]. Without a mean the surprise is neutral.
func NormalizeSurprise(x float64, mean, std *float64, cap, eps float64) float64 {
	if mean == nil {
		return 0
	}
	scale := 0.0
	if std != nil && !math.IsNaN(*std) {
		scale = *std
	}
	scale = math.Max(eps, scale)
	if scale <= 0 {
		return 0
	}
	z := (x - *mean) / scale
	return math.Max(-cap, math.Min(cap, z))
}
