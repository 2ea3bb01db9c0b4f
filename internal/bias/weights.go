package bias

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"macroedge/internal/domain"
)

type ResolvedWeight struct {
	IndicatorID int64
	Weight      float64
}

// ParseRegimeMultipliers decodes the regime_weights JSON object. Entries that
// are not finite numbers (or numeric strings) are dropped; a document that is
// not an object yields an empty map.
func ParseRegimeMultipliers(raw []byte) domain.RegimeMultipliers {
	out := domain.RegimeMultipliers{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return out
	}

	for code, v := range doc {
		var f float64
		var err error
		switch x := v.(type) {
		case json.Number:
			f, err = x.Float64()
		case string:
			f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
		default:
			continue
		}
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[code] = f
	}
	return out
}

// ResolveWeights applies the regime multiplier to every base weight and
// normalises the result to sum to 1. A non-positive total is returned as is.
func ResolveWeights(assignments []domain.WeightAssignment, regimeCode string) []ResolvedWeight {
	out := make([]ResolvedWeight, 0, len(assignments))
	total := 0.0
	for _, a := range assignments {
		w := a.Weight * a.RegimeMultipliers.Multiplier(regimeCode)
		out = append(out, ResolvedWeight{IndicatorID: a.IndicatorID, Weight: w})
		total += w
	}
	if total > 0 {
		for i := range out {
			out[i].Weight /= total
		}
	}
	return out
}
