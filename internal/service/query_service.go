package service

import (
	"context"
	"errors"
	"time"

	"macroedge/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultHistoryLimit = 365
	MaxHistoryLimit     = 1000
	DefaultMacroDays    = 30
	MaxMacroDays        = 365

	noScoresMessage = "No bias scores yet. Run the pipeline to compute them."
)

var ErrStoreUnavailable = errors.New("query store is not configured")

type QueryStore interface {
	Ping(ctx context.Context) error
	ListIndices(ctx context.Context) ([]domain.Index, error)
	LatestSummary(ctx context.Context) (*time.Time, []domain.BiasSummaryRow, error)
	History(ctx context.Context, f domain.BiasHistoryFilter) ([]domain.BiasHistoryPoint, error)
	MacroLatest(ctx context.Context, since time.Time) ([]domain.MacroLatest, error)
}

type SummaryCache interface {
	Get(ctx context.Context) (*domain.BiasSummary, error)
	Set(ctx context.Context, summary *domain.BiasSummary) error
}

// QueryService backs the read API. The bias summary is served from cache
// when present; cache failures fall through to the store.
type QueryService struct {
	tracer trace.Tracer
	store  QueryStore
	cache  SummaryCache
	now    func() time.Time
}

func NewQueryService(tracer trace.Tracer, store QueryStore, cache SummaryCache) *QueryService {
	return &QueryService{tracer: tracer, store: store, cache: cache, now: time.Now}
}

func (s *QueryService) Ping(ctx context.Context) error {
	if s.store == nil {
		return ErrStoreUnavailable
	}
	return s.store.Ping(ctx)
}

func (s *QueryService) Indices(ctx context.Context) ([]domain.Index, error) {
	ctx, span := s.tracer.Start(ctx, "query-service.indices")
	defer span.End()

	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	return s.store.ListIndices(ctx)
}

// Summary returns the latest score of every index. When nothing has been
// scored yet the result carries a nil date, no scores and a message.
func (s *QueryService) Summary(ctx context.Context) (*domain.BiasSummary, error) {
	ctx, span := s.tracer.Start(ctx, "query-service.summary")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("bias summary cache read failed")
		}
		if cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		}
	}

	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	date, rows, err := s.store.LatestSummary(ctx)
	if err != nil {
		return nil, err
	}
	if date == nil || len(rows) == 0 {
		return &domain.BiasSummary{Scores: []domain.BiasSummaryRow{}, Message: noScoresMessage}, nil
	}

	d := date.Format(time.DateOnly)
	summary := &domain.BiasSummary{Date: &d, Scores: rows}
	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			log.Warn().Err(err).Msg("bias summary cache write failed")
		}
	}
	return summary, nil
}

// History clamps the limit to [1, MaxHistoryLimit], using the default for
// non-positive values.
func (s *QueryService) History(ctx context.Context, f domain.BiasHistoryFilter) ([]domain.BiasHistoryPoint, error) {
	ctx, span := s.tracer.Start(ctx, "query-service.history")
	defer span.End()

	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultHistoryLimit
	case f.Limit > MaxHistoryLimit:
		f.Limit = MaxHistoryLimit
	}
	return s.store.History(ctx, f)
}

// MacroLatest returns the newest observation per indicator released in the
// last days days.
func (s *QueryService) MacroLatest(ctx context.Context, days int) ([]domain.MacroLatest, error) {
	ctx, span := s.tracer.Start(ctx, "query-service.macro-latest")
	defer span.End()

	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	switch {
	case days <= 0:
		days = DefaultMacroDays
	case days > MaxMacroDays:
		days = MaxMacroDays
	}
	since := domain.DayUTC(s.now()).AddDate(0, 0, -days)
	return s.store.MacroLatest(ctx, since)
}
