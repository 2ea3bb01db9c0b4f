package app

import (
	"context"
	"fmt"
	"time"

	"macroedge/internal/bias"
	"macroedge/internal/cache"
	"macroedge/internal/config"
	"macroedge/internal/domain"
	"macroedge/internal/ingestion"
	"macroedge/internal/metrics"
	"macroedge/internal/pipeline"
	"macroedge/internal/provider"
	"macroedge/internal/repository"
	"macroedge/internal/service"
	"macroedge/internal/surprise"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Deps are the process-wide resources the services are built on. Redis and
// Registry are optional.
type Deps struct {
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Tracer   trace.Tracer
	Registry prometheus.Registerer
}

type App struct {
	Engine     *config.BiasEngine
	Ingestion  *ingestion.Service
	Normalizer *surprise.Service
	Scorer     *bias.Service
	Seeder     *SeedStage
	Runner     *pipeline.Runner
	Query      *service.QueryService
	Summary    *cache.SummaryCache
	Metrics    *metrics.Pipeline
}

// Build loads the YAML catalogs from cfg.ConfigDir and wires every stage of
// the pipeline and the read API.
func Build(cfg *config.Config, d Deps) (*App, error) {
	engine, err := config.LoadBiasEngine(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load bias engine config: %w", err)
	}
	indices, err := config.LoadIndices(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load indices: %w", err)
	}
	indicators, err := config.LoadIndicators(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load indicators: %w", err)
	}
	log.Info().
		Str("config_dir", cfg.ConfigDir).
		Int("indices", len(indices)).
		Int("indicators", len(indicators)).
		Msg("configuration loaded")

	a := &App{Engine: engine, Metrics: metrics.NewPipeline(d.Registry)}

	fred := provider.NewFREDProvider(d.Tracer, cfg.FREDAPIKey)
	a.Ingestion = ingestion.NewService(d.Tracer, ingestion.NewRepository(d.Pool, d.Tracer), fred, indicators).
		WithVolatility(engine.Volatility)
	a.Normalizer = surprise.NewService(d.Tracer, surprise.NewRepository(d.Pool, d.Tracer), engine.Surprise)

	biasRepo := bias.NewRepository(d.Pool, d.Tracer)
	a.Scorer = bias.NewService(d.Tracer, biasRepo, engine)
	a.Seeder = &SeedStage{metadata: a.Ingestion, seeder: bias.NewSeeder(d.Tracer, biasRepo, indices)}

	var (
		invalidator  pipeline.CacheInvalidator
		summaryCache service.SummaryCache
	)
	if d.Redis != nil {
		a.Summary = cache.NewSummaryCache(d.Redis, time.Duration(cfg.SummaryCacheTTLSecs)*time.Second)
		invalidator = a.Summary
		summaryCache = a.Summary
	}

	a.Runner = pipeline.NewRunner(d.Tracer, a.Ingestion, a.Normalizer, a.Seeder, a.Scorer, invalidator, a.Metrics)
	a.Query = service.NewQueryService(d.Tracer, repository.NewQueryRepository(d.Pool, d.Tracer), summaryCache)
	return a, nil
}

type metadataSeeder interface {
	SeedMetadata(ctx context.Context) (map[string]int64, error)
}

type weightSeeder interface {
	Seed(ctx context.Context) (domain.SeedResult, error)
}

// SeedStage registers indicator metadata before seeding index weights so
// that seeding works without a prior ingestion.
type SeedStage struct {
	metadata metadataSeeder
	seeder   weightSeeder
}

func (s *SeedStage) Seed(ctx context.Context) (domain.SeedResult, error) {
	if _, err := s.metadata.SeedMetadata(ctx); err != nil {
		return domain.SeedResult{}, fmt.Errorf("seed indicator metadata: %w", err)
	}
	return s.seeder.Seed(ctx)
}
