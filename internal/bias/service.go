package bias

import (
	"context"
	"errors"
	"fmt"
	"time"

	"macroedge/internal/config"
	"macroedge/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	ErrRegimeNotFound        = errors.New("market regime not found")
	ErrServiceNotInitialized = errors.New("bias service dependencies are not initialized")
)

type Store interface {
	GetRegime(ctx context.Context, code string) (*domain.Regime, error)
	LatestVolatility(ctx context.Context, symbol string, asOf time.Time) (*float64, error)
	LatestSurprises(ctx context.Context, from, to time.Time) ([]domain.LatestSurprise, error)
	ListIndices(ctx context.Context) ([]domain.Index, error)
	WeightsForIndex(ctx context.Context, indexID int64) ([]domain.WeightAssignment, error)
	UpsertScore(ctx context.Context, score domain.BiasScore) error
}

type Service struct {
	tracer trace.Tracer
	store  Store
	cfg    *config.BiasEngine
}

// NewService binds the scorer to one configuration snapshot. A nil cfg uses
// the defaults.
func NewService(tracer trace.Tracer, store Store, cfg *config.BiasEngine) *Service {
	if cfg == nil {
		cfg = config.DefaultBiasEngine()
	}
	return &Service{tracer: tracer, store: store, cfg: cfg}
}

type indexOutcome struct {
	score *domain.BiasScore
	err   error
}

// Run scores every index for asOf. Shared inputs are read once; each index
// is then scored and persisted independently, so one failing index does not
// affect the others.
func (s *Service) Run(ctx context.Context, asOf time.Time) (domain.BiasRunResult, error) {
	ctx, span := s.tracer.Start(ctx, "bias.run")
	defer span.End()

	asOf = domain.DayUTC(asOf)
	result := domain.BiasRunResult{
		Date:   asOf.Format(time.DateOnly),
		Scores: []domain.BiasScore{},
		Errors: []string{},
	}
	if s.store == nil {
		return result, ErrServiceNotInitialized
	}

	regime, err := s.store.GetRegime(ctx, domain.RegimeNeutral)
	if err != nil {
		return result, err
	}
	if regime == nil {
		return result, fmt.Errorf("%w: %s", ErrRegimeNotFound, domain.RegimeNeutral)
	}

	vix, err := s.store.LatestVolatility(ctx, s.cfg.Volatility.Symbol, asOf)
	if err != nil {
		return result, err
	}

	latest, err := s.store.LatestSurprises(ctx, asOf.AddDate(0, 0, -s.cfg.Scoring.MaxDaysBack), asOf)
	if err != nil {
		return result, err
	}
	surprises := make(map[int64]domain.LatestSurprise, len(latest))
	for _, ls := range latest {
		surprises[ls.IndicatorID] = ls
	}

	indices, err := s.store.ListIndices(ctx)
	if err != nil {
		return result, err
	}

	outcomes := make([]indexOutcome, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.Scoring.Concurrency))
	for i, idx := range indices {
		g.Go(func() error {
			score, err := s.scoreIndex(gctx, asOf, idx, *regime, vix, surprises)
			outcomes[i] = indexOutcome{score: score, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, out := range outcomes {
		if out.err != nil {
			log.Error().Err(out.err).Str("index", indices[i].Code).Msg("bias scoring failed")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", indices[i].Code, out.err))
			continue
		}
		result.Scores = append(result.Scores, *out.score)
	}

	span.SetAttributes(attribute.Int("scores", len(result.Scores)), attribute.Int("errors", len(result.Errors)))
	log.Info().
		Str("stage", "bias").
		Str("date", result.Date).
		Int("indices", len(indices)).
		Int("scores", len(result.Scores)).
		Int("errors", len(result.Errors)).
		Msg("bias computation finished")
	return result, nil
}

func (s *Service) scoreIndex(
	ctx context.Context,
	asOf time.Time,
	idx domain.Index,
	regime domain.Regime,
	vix *float64,
	surprises map[int64]domain.LatestSurprise,
) (*domain.BiasScore, error) {
	ctx, span := s.tracer.Start(ctx, "bias.score-index")
	defer span.End()
	span.SetAttributes(attribute.String("index", idx.Code))

	assignments, err := s.store.WeightsForIndex(ctx, idx.ID)
	if err != nil {
		return nil, err
	}

	score := ComputeIndexScore(ScoreInput{
		AsOf:       asOf,
		Index:      idx,
		RegimeID:   regime.ID,
		RegimeCode: regime.Code,
		Weights:    ResolveWeights(assignments, regime.Code),
		Surprises:  surprises,
		VIX:        vix,
	}, s.cfg)

	if err := s.store.UpsertScore(ctx, score); err != nil {
		return nil, err
	}
	log.Debug().
		Str("index", idx.Code).
		Float64("bias_score", score.BiasScore).
		Float64("confidence_pct", score.ConfidencePct).
		Str("risk_flag", string(score.RiskFlag)).
		Msg("scored index")
	return &score, nil
}
