package bias

import (
	"context"
	"fmt"
	"math"
	"strings"

	"macroedge/internal/config"
	"macroedge/internal/domain"

	"github.com/creasty/defaults"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const minSeedWeight = 0.0001

type SeedStore interface {
	UpsertIndex(ctx context.Context, def config.IndexDef) (int64, error)
	ListIndicatorIDs(ctx context.Context) ([]int64, error)
	UpsertWeights(ctx context.Context, weights []domain.WeightAssignment) (int, error)
}

type Seeder struct {
	tracer  trace.Tracer
	store   SeedStore
	indices []config.IndexDef
}

func NewSeeder(tracer trace.Tracer, store SeedStore, indices []config.IndexDef) *Seeder {
	return &Seeder{tracer: tracer, store: store, indices: indices}
}

// EqualWeight is 1/n rounded to four decimals and never below 0.0001.
func EqualWeight(n int) float64 {
	if n <= 0 {
		return 0
	}
	w := math.Round(10000/float64(n)) / 10000
	if w <= 0 {
		w = minSeedWeight
	}
	return w
}

// SeedIndices inserts the configured indices and returns their ids by code.
func (s *Seeder) SeedIndices(ctx context.Context) (map[string]int64, error) {
	ctx, span := s.tracer.Start(ctx, "bias.seed-indices")
	defer span.End()

	ids := make(map[string]int64, len(s.indices))
	for _, def := range s.indices {
		code := strings.TrimSpace(def.Code)
		if code == "" {
			continue
		}
		def.Code = code
		if def.Name == "" {
			def.Name = code
		}
		// empty market fields take the IndexDef tag defaults
		if err := defaults.Set(&def); err != nil {
			return ids, fmt.Errorf("index %s defaults: %w", code, err)
		}
		id, err := s.store.UpsertIndex(ctx, def)
		if err != nil {
			return ids, err
		}
		ids[code] = id
	}
	return ids, nil
}

// Seed ensures every (index, indicator) pair has an equal base weight.
func (s *Seeder) Seed(ctx context.Context) (domain.SeedResult, error) {
	ctx, span := s.tracer.Start(ctx, "bias.seed")
	defer span.End()

	result := domain.SeedResult{}
	if s.store == nil {
		return result, ErrServiceNotInitialized
	}

	ids, err := s.SeedIndices(ctx)
	if err != nil {
		return result, err
	}
	result.IndicesSeeded = len(ids)

	indicatorIDs, err := s.store.ListIndicatorIDs(ctx)
	if err != nil {
		return result, err
	}
	if len(indicatorIDs) == 0 {
		log.Warn().Msg("no indicators found, skipping weight seeding")
		return result, nil
	}

	weight := EqualWeight(len(indicatorIDs))
	weights := make([]domain.WeightAssignment, 0, len(ids)*len(indicatorIDs))
	seen := make(map[int64]struct{}, len(ids))
	for _, def := range s.indices {
		indexID, ok := ids[strings.TrimSpace(def.Code)]
		if !ok {
			continue
		}
		if _, dup := seen[indexID]; dup {
			continue
		}
		seen[indexID] = struct{}{}
		for _, indicatorID := range indicatorIDs {
			weights = append(weights, domain.WeightAssignment{
				IndexID:     indexID,
				IndicatorID: indicatorID,
				Weight:      weight,
			})
		}
	}

	n, err := s.store.UpsertWeights(ctx, weights)
	result.WeightsSeeded = n
	if err != nil {
		return result, fmt.Errorf("seed weights: %w", err)
	}

	log.Info().
		Str("stage", "seed").
		Int("indices", result.IndicesSeeded).
		Int("weights", result.WeightsSeeded).
		Float64("weight", weight).
		Msg("seeded index weights")
	return result, nil
}
