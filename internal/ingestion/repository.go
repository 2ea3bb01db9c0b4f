package ingestion

import (
	"context"
	"fmt"

	"macroedge/internal/config"
	"macroedge/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Repository struct {
	pool   pool
	tracer trace.Tracer
}

func NewRepository(pool pool, tracer trace.Tracer) *Repository {
	return &Repository{pool: pool, tracer: tracer}
}

func (r *Repository) EnsureDataSource(ctx context.Context, src domain.DataSource) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ingestion-repo.ensure-data-source")
	defer span.End()

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO data_source (code, name, provider, timezone)
VALUES ($1, $2, $3, $4)
ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
RETURNING id`, src.Code, src.Name, src.Provider, src.Timezone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure data source %s: %w", src.Code, err)
	}
	return id, nil
}

// EnsureIndicator inserts the indicator or refreshes its metadata.
func (r *Repository) EnsureIndicator(ctx context.Context, def config.IndicatorDef, sourceID int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ingestion-repo.ensure-indicator")
	defer span.End()
	span.SetAttributes(attribute.String("indicator", def.Code))

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO macro_indicator (code, name, category, unit, source_id, direction)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (code) DO UPDATE SET
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    unit = EXCLUDED.unit,
    direction = EXCLUDED.direction,
    updated_at = NOW()
RETURNING id`,
		def.Code,
		def.Name,
		nullString(def.Category),
		nullString(def.Unit),
		sourceID,
		string(domain.ParseDirection(def.Direction)),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure indicator %s: %w", def.Code, err)
	}
	return id, nil
}

// UpsertObservations writes rows keyed by (time, indicator_id). A refresh
// never touches surprise_normalized, which belongs to the normalizer.
func (r *Repository) UpsertObservations(ctx context.Context, observations []domain.Observation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}
	ctx, span := r.tracer.Start(ctx, "ingestion-repo.upsert-observations")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(observations)))

	batch := &pgx.Batch{}
	for _, o := range observations {
		day := domain.DayUTC(o.ReleaseDate)
		batch.Queue(`
INSERT INTO macro_observation (
    time, indicator_id, release_date, actual, forecast, previous, surprise, data_version
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (time, indicator_id) DO UPDATE SET
    actual = EXCLUDED.actual,
    forecast = EXCLUDED.forecast,
    previous = EXCLUDED.previous,
    surprise = EXCLUDED.surprise,
    data_version = EXCLUDED.data_version`,
			day,
			o.IndicatorID,
			day,
			nullFloat(o.Actual),
			nullFloat(o.Forecast),
			nullFloat(o.Previous),
			nullFloat(o.Surprise),
			o.DataVersion,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range observations {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert observation indicator=%d date=%s: %w",
				observations[i].IndicatorID, observations[i].ReleaseDate.Format("2006-01-02"), err)
		}
	}
	return len(observations), nil
}

// UpsertVolatility writes daily readings keyed by (time, symbol).
func (r *Repository) UpsertVolatility(ctx context.Context, symbol string, readings []domain.VolatilityReading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}
	ctx, span := r.tracer.Start(ctx, "ingestion-repo.upsert-volatility")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("rows", len(readings)))

	batch := &pgx.Batch{}
	for _, v := range readings {
		batch.Queue(`
INSERT INTO volatility_snapshot (time, symbol, value)
VALUES ($1, $2, $3)
ON CONFLICT (time, symbol) DO UPDATE SET value = EXCLUDED.value`,
			domain.DayUTC(v.Time), symbol, v.Value,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range readings {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert volatility %s date=%s: %w", symbol, readings[i].Time.Format("2006-01-02"), err)
		}
	}
	return len(readings), nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
