package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"macroedge/internal/app"
	"macroedge/internal/cache"
	"macroedge/internal/config"
	"macroedge/internal/db"
	"macroedge/internal/domain"
	"macroedge/internal/pipeline"
	"macroedge/pkg/logger"
	"macroedge/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type runner interface {
	Run(ctx context.Context, opts pipeline.Options) (domain.PipelineRunResult, error)
}

type summaryCache interface {
	Invalidate(ctx context.Context) error
}

type stages struct {
	runner     runner
	ingester   pipeline.Ingester
	normalizer pipeline.Normalizer
	seeder     pipeline.Seeder
	scorer     pipeline.Scorer
	summary    summaryCache
}

var setupFunc = setup

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var date string

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Run the macro bias pipeline or one of its stages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&date, "date", "", "As-of date (YYYY-MM-DD), default today UTC")

	asOf := func() (time.Time, error) {
		if date == "" {
			return domain.DayUTC(time.Now()), nil
		}
		t, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
		}
		return t, nil
	}

	var (
		seed          bool
		skipIngestion bool
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest, normalize, optionally seed, and score",
		Example: `  pipeline run
  pipeline run --date 2024-06-03 --seed --skip-ingestion`,
		RunE: withStages(func(cmd *cobra.Command, s *stages) (any, error) {
			t, err := asOf()
			if err != nil {
				return nil, err
			}
			return s.runner.Run(cmd.Context(), pipeline.Options{AsOf: t, Seed: seed, SkipIngestion: skipIngestion})
		}),
	}
	runCmd.Flags().BoolVar(&seed, "seed", false, "Seed indices and equal weights before scoring")
	runCmd.Flags().BoolVar(&skipIngestion, "skip-ingestion", false, "Skip the FRED ingestion stage")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch FRED series and upsert observations",
		RunE: withStages(func(cmd *cobra.Command, s *stages) (any, error) {
			t, err := asOf()
			if err != nil {
				return nil, err
			}
			return s.ingester.Run(cmd.Context(), t)
		}),
	}

	normalizeCmd := &cobra.Command{
		Use:   "normalize",
		Short: "Recompute normalized surprises",
		RunE: withStages(func(cmd *cobra.Command, s *stages) (any, error) {
			t, err := asOf()
			if err != nil {
				return nil, err
			}
			return s.normalizer.Run(cmd.Context(), t)
		}),
	}

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Compute and persist bias scores for every index",
		RunE: withStages(func(cmd *cobra.Command, s *stages) (any, error) {
			t, err := asOf()
			if err != nil {
				return nil, err
			}
			res, err := s.scorer.Run(cmd.Context(), t)
			if err == nil && s.summary != nil {
				if ierr := s.summary.Invalidate(cmd.Context()); ierr != nil {
					log.Warn().Err(ierr).Msg("failed to invalidate bias summary cache")
				}
			}
			return res, err
		}),
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Register indices and equal indicator weights",
		RunE: withStages(func(cmd *cobra.Command, s *stages) (any, error) {
			return s.seeder.Seed(cmd.Context())
		}),
	}

	root.AddCommand(runCmd, ingestCmd, normalizeCmd, scoreCmd, seedCmd)
	return root
}

// withStages builds the stages, runs fn and prints its result as JSON. The
// result is printed even when fn fails so partial summaries are visible.
func withStages(fn func(cmd *cobra.Command, s *stages) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := setupFunc(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, runErr := fn(cmd, s)
		if result != nil {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		}
		return runErr
	}
}

func setup(ctx context.Context) (*stages, func(), error) {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Warn().Err(err).Msg("logger init failed, using defaults")
	}

	tp, tracer, err := tracing.InitTracer(ctx, "pipeline")
	if err != nil {
		return nil, nil, err
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, nil, err
	}

	redisClient, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, summary cache will not be invalidated")
		redisClient = nil
	}

	cleanup := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		pool.Close()
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}

	a, err := app.Build(cfg, app.Deps{Pool: pool, Redis: redisClient, Tracer: tracer})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	s := &stages{
		runner:     a.Runner,
		ingester:   a.Ingestion,
		normalizer: a.Normalizer,
		seeder:     a.Seeder,
		scorer:     a.Scorer,
	}
	if a.Summary != nil {
		s.summary = a.Summary
	}
	return s, cleanup, nil
}
