package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"macroedge/internal/config"
	"macroedge/internal/domain"
	"macroedge/internal/provider"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	sourceFRED         = "FRED"
	historyYears       = 2
	observationLimit   = 100
	volatilityLookback = 30
)

type SeriesFetcher interface {
	HasAPIKey() bool
	FetchSeriesObservations(ctx context.Context, q provider.SeriesQuery) ([]provider.FREDObservation, error)
}

type Store interface {
	EnsureDataSource(ctx context.Context, src domain.DataSource) (int64, error)
	EnsureIndicator(ctx context.Context, def config.IndicatorDef, sourceID int64) (int64, error)
	UpsertObservations(ctx context.Context, observations []domain.Observation) (int, error)
	UpsertVolatility(ctx context.Context, symbol string, readings []domain.VolatilityReading) (int, error)
}

type Service struct {
	tracer     trace.Tracer
	store      Store
	fred       SeriesFetcher
	indicators []config.IndicatorDef
	volatility config.VolatilityConfig
}

func NewService(tracer trace.Tracer, store Store, fred SeriesFetcher, indicators []config.IndicatorDef) *Service {
	return &Service{tracer: tracer, store: store, fred: fred, indicators: indicators}
}

// WithVolatility makes Run also refresh the daily volatility snapshot from
// cfg.SeriesID. An empty series id leaves it disabled.
func (s *Service) WithVolatility(cfg config.VolatilityConfig) *Service {
	s.volatility = cfg
	return s
}

// SeedMetadata registers the FRED data source and every FRED indicator and
// returns indicator ids by code.
func (s *Service) SeedMetadata(ctx context.Context) (map[string]int64, error) {
	ctx, span := s.tracer.Start(ctx, "ingestion.seed-metadata")
	defer span.End()

	sourceID, err := s.store.EnsureDataSource(ctx, domain.DataSource{
		Code:     sourceFRED,
		Name:     "Federal Reserve Economic Data",
		Provider: sourceFRED,
		Timezone: "America/New_York",
	})
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64)
	for _, def := range s.fredIndicators() {
		def.Code = strings.TrimSpace(def.Code)
		if def.Code == "" {
			continue
		}
		if def.Name == "" {
			def.Name = def.Code
		}
		id, err := s.store.EnsureIndicator(ctx, def, sourceID)
		if err != nil {
			return ids, err
		}
		ids[def.Code] = id
	}
	return ids, nil
}

// Run ingests the last two years of every configured FRED series. Per
// series failures are recorded and the loop continues.
func (s *Service) Run(ctx context.Context, asOf time.Time) (domain.IngestionRunResult, error) {
	ctx, span := s.tracer.Start(ctx, "ingestion.run")
	defer span.End()

	result := domain.IngestionRunResult{Errors: []string{}}
	if s.store == nil || s.fred == nil {
		return result, fmt.Errorf("ingestion service dependencies are not initialized")
	}
	if !s.fred.HasAPIKey() {
		log.Warn().Str("stage", "ingest").Msg("FRED_API_KEY not set, skipping ingestion")
		result.Skipped = true
		return result, nil
	}

	ids, err := s.SeedMetadata(ctx)
	if err != nil {
		return result, err
	}

	end := domain.DayUTC(asOf)
	start := end.AddDate(-historyYears, 0, 0)
	for _, def := range s.fredIndicators() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		code := strings.TrimSpace(def.Code)
		seriesID := strings.TrimSpace(def.SeriesID)
		if code == "" || seriesID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("missing code or series_id: code=%q series_id=%q", code, seriesID))
			continue
		}
		indicatorID, ok := ids[code]
		if !ok {
			continue
		}

		n, err := s.ingestSeries(ctx, indicatorID, seriesID, def.NaiveForecast, start, end)
		if err != nil {
			log.Error().Err(err).Str("indicator", code).Msg("ingest series failed")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", code, err))
			continue
		}
		result.IndicatorsProcessed++
		result.ObservationsWritten += n
	}

	if seriesID := strings.TrimSpace(s.volatility.SeriesID); seriesID != "" {
		n, err := s.ingestVolatility(ctx, seriesID, end)
		if err != nil {
			log.Error().Err(err).Str("symbol", s.volatility.Symbol).Msg("ingest volatility failed")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", s.volatility.Symbol, err))
		} else {
			result.VolatilityWritten = n
		}
	}

	log.Info().
		Str("stage", "ingest").
		Int("indicators", result.IndicatorsProcessed).
		Int("observations", result.ObservationsWritten).
		Int("errors", len(result.Errors)).
		Msg("ingestion finished")
	return result, nil
}

func (s *Service) ingestSeries(ctx context.Context, indicatorID int64, seriesID string, naiveForecast bool, start, end time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ingestion.ingest-series")
	defer span.End()
	span.SetAttributes(attribute.String("series_id", seriesID))

	raw, err := s.fred.FetchSeriesObservations(ctx, provider.SeriesQuery{
		SeriesID:  seriesID,
		Start:     start,
		End:       end,
		Limit:     observationLimit,
		SortOrder: "asc",
	})
	if err != nil {
		return 0, err
	}

	observations := make([]domain.Observation, 0, len(raw))
	var previous *float64
	for _, r := range raw {
		releaseDate, value, ok := ParseFREDObservation(r)
		if !ok {
			continue
		}
		var forecast *float64
		if naiveForecast {
			forecast = previous
		}
		observations = append(observations, BuildObservation(indicatorID, releaseDate, value, previous, forecast))
		if value != nil {
			previous = value
		}
	}
	return s.store.UpsertObservations(ctx, observations)
}

func (s *Service) ingestVolatility(ctx context.Context, seriesID string, end time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ingestion.ingest-volatility")
	defer span.End()
	span.SetAttributes(attribute.String("series_id", seriesID))

	raw, err := s.fred.FetchSeriesObservations(ctx, provider.SeriesQuery{
		SeriesID:  seriesID,
		Start:     end.AddDate(0, 0, -volatilityLookback),
		End:       end,
		Limit:     observationLimit,
		SortOrder: "asc",
	})
	if err != nil {
		return 0, err
	}

	readings := make([]domain.VolatilityReading, 0, len(raw))
	for _, r := range raw {
		day, value, ok := ParseFREDObservation(r)
		if !ok || value == nil {
			continue
		}
		readings = append(readings, domain.VolatilityReading{Time: day, Value: *value})
	}
	return s.store.UpsertVolatility(ctx, s.volatility.Symbol, readings)
}

func (s *Service) fredIndicators() []config.IndicatorDef {
	out := make([]config.IndicatorDef, 0, len(s.indicators))
	for _, def := range s.indicators {
		if strings.EqualFold(strings.TrimSpace(def.Source), sourceFRED) {
			out = append(out, def)
		}
	}
	return out
}
