package surprise

import (
	"context"
	"fmt"
	"time"

	"macroedge/internal/config"
	"macroedge/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type NormalizedValue struct {
	ReleaseDate time.Time
	Value       float64
}

type Store interface {
	ListIndicatorIDs(ctx context.Context) ([]int64, error)
	FetchSurprises(ctx context.Context, indicatorID int64, from, to time.Time) ([]domain.SurprisePoint, error)
	WriteNormalized(ctx context.Context, indicatorID int64, values []NormalizedValue) (int, error)
}

type Service struct {
	tracer trace.Tracer
	store  Store
	cfg    config.SurpriseConfig
}

func NewService(tracer trace.Tracer, store Store, cfg config.SurpriseConfig) *Service {
	if cfg.RollingWindowDays <= 0 {
		cfg.RollingWindowDays = 252
	}
	if cfg.CapStdMultiple <= 0 {
		cfg.CapStdMultiple = 3.0
	}
	if cfg.MaxDaysBack < 0 {
		cfg.MaxDaysBack = 30
	}
	return &Service{tracer: tracer, store: store, cfg: cfg}
}

// NormalizeIndicator recomputes surprise_normalized for the recent releases
// of one indicator. Statistics come from [asOf-windowDays, asOf]; only rows in
// [asOf-maxDaysBack, asOf] are rewritten.
func (s *Service) NormalizeIndicator(ctx context.Context, indicatorID int64, asOf time.Time, windowDays int, cap float64) (int, error) {
	ctx, span := s.tracer.Start(ctx, "surprise.normalize-indicator")
	defer span.End()
	span.SetAttributes(attribute.Int64("indicator_id", indicatorID))

	asOf = domain.DayUTC(asOf)
	history, err := s.store.FetchSurprises(ctx, indicatorID, asOf.AddDate(0, 0, -windowDays), asOf)
	if err != nil {
		return 0, err
	}
	values := make([]float64, len(history))
	for i, p := range history {
		values[i] = p.Surprise
	}
	stats := RollingStats(values)

	rewriteFrom := asOf.AddDate(0, 0, -s.cfg.MaxDaysBack)
	recent, err := s.store.FetchSurprises(ctx, indicatorID, rewriteFrom, asOf)
	if err != nil {
		return 0, err
	}
	if len(recent) == 0 {
		return 0, nil
	}

	out := make([]NormalizedValue, 0, len(recent))
	for _, p := range recent {
		out = append(out, NormalizedValue{
			ReleaseDate: p.ReleaseDate,
			Value:       NormalizeSurprise(p.Surprise, stats.Mean, stats.Std, cap, Epsilon),
		})
	}
	return s.store.WriteNormalized(ctx, indicatorID, out)
}

// Run normalizes every indicator. A failing indicator is recorded and the
// rest proceed; failing to list indicators aborts the stage.
func (s *Service) Run(ctx context.Context, asOf time.Time) (domain.NormalizationRunResult, error) {
	ctx, span := s.tracer.Start(ctx, "surprise.run")
	defer span.End()

	result := domain.NormalizationRunResult{Errors: []string{}}
	if s.store == nil {
		return result, fmt.Errorf("surprise service dependencies are not initialized")
	}

	ids, err := s.store.ListIndicatorIDs(ctx)
	if err != nil {
		return result, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		n, err := s.NormalizeIndicator(ctx, id, asOf, s.cfg.RollingWindowDays, s.cfg.CapStdMultiple)
		result.IndicatorsProcessed++
		result.RowsUpdated += n
		if err != nil {
			log.Error().Err(err).Int64("indicator_id", id).Msg("normalize indicator failed")
			result.Errors = append(result.Errors, fmt.Sprintf("indicator %d: %v", id, err))
			continue
		}
		log.Debug().Int64("indicator_id", id).Int("rows_updated", n).Msg("normalized indicator")
	}

	log.Info().
		Str("stage", "normalize").
		Int("indicators", result.IndicatorsProcessed).
		Int("rows_updated", result.RowsUpdated).
		Int("errors", len(result.Errors)).
		Msg("surprise normalization finished")
	return result, nil
}
