package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"macroedge/internal/domain"
	"macroedge/internal/metrics"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const (
	StageIngest    = "ingest"
	StageNormalize = "normalize"
	StageSeed      = "seed"
	StageBias      = "bias"
)

// ErrRunInProgress is returned when Run is called while another run is
// still executing.
var ErrRunInProgress = errors.New("pipeline run already in progress")

type Ingester interface {
	Run(ctx context.Context, asOf time.Time) (domain.IngestionRunResult, error)
}

type Normalizer interface {
	Run(ctx context.Context, asOf time.Time) (domain.NormalizationRunResult, error)
}

type Seeder interface {
	Seed(ctx context.Context) (domain.SeedResult, error)
}

type Scorer interface {
	Run(ctx context.Context, asOf time.Time) (domain.BiasRunResult, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Options struct {
	AsOf          time.Time
	SkipIngestion bool
	SkipNormalize bool
	SkipBias      bool
	Seed          bool
}

// Runner executes ingestion, normalization, optional seeding and bias
// scoring in that order.
type Runner struct {
	tracer     trace.Tracer
	ingester   Ingester
	normalizer Normalizer
	seeder     Seeder
	scorer     Scorer
	cache      CacheInvalidator
	metrics    *metrics.Pipeline

	mu sync.Mutex
}

func NewRunner(
	tracer trace.Tracer,
	ingester Ingester,
	normalizer Normalizer,
	seeder Seeder,
	scorer Scorer,
	cache CacheInvalidator,
	m *metrics.Pipeline,
) *Runner {
	return &Runner{
		tracer:     tracer,
		ingester:   ingester,
		normalizer: normalizer,
		seeder:     seeder,
		scorer:     scorer,
		cache:      cache,
		metrics:    m,
	}
}

// Run returns the summary of every stage that ran. A fatal stage error stops
// the later stages and is returned with the partial summary.
func (r *Runner) Run(ctx context.Context, opts Options) (domain.PipelineRunResult, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	if !r.mu.TryLock() {
		return domain.PipelineRunResult{}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	asOf = domain.DayUTC(asOf)

	var out domain.PipelineRunResult

	if !opts.SkipIngestion && r.ingester != nil {
		started := time.Now()
		res, err := r.ingester.Run(ctx, asOf)
		r.metrics.ObserveStage(StageIngest, started, err, len(res.Errors))
		out.Ingestion = &res
		if err != nil {
			return out, fmt.Errorf("%s: %w", StageIngest, err)
		}
	}

	if !opts.SkipNormalize && r.normalizer != nil {
		started := time.Now()
		res, err := r.normalizer.Run(ctx, asOf)
		r.metrics.ObserveStage(StageNormalize, started, err, len(res.Errors))
		r.metrics.ObserveNormalized(res.RowsUpdated)
		out.Normalization = &res
		if err != nil {
			return out, fmt.Errorf("%s: %w", StageNormalize, err)
		}
	}

	if opts.Seed && r.seeder != nil {
		started := time.Now()
		res, err := r.seeder.Seed(ctx)
		r.metrics.ObserveStage(StageSeed, started, err, 0)
		out.Seed = &res
		if err != nil {
			return out, fmt.Errorf("%s: %w", StageSeed, err)
		}
	}

	if !opts.SkipBias && r.scorer != nil {
		started := time.Now()
		res, err := r.scorer.Run(ctx, asOf)
		r.metrics.ObserveStage(StageBias, started, err, len(res.Errors))
		out.Bias = &res
		if err != nil {
			return out, fmt.Errorf("%s: %w", StageBias, err)
		}
		for _, s := range res.Scores {
			r.metrics.ObserveScore(s.IndexCode, s.BiasScore)
		}
		if r.cache != nil {
			if err := r.cache.Invalidate(ctx); err != nil {
				log.Warn().Err(err).Msg("bias summary cache invalidation failed")
			}
		}
	}

	log.Info().Str("date", asOf.Format(time.DateOnly)).Msg("pipeline run finished")
	return out, nil
}
