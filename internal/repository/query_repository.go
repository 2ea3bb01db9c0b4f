package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"macroedge/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// QueryRepository serves the read-only views of the API.
type QueryRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewQueryRepository(pool PgxPool, tracer trace.Tracer) *QueryRepository {
	return &QueryRepository{pool: pool, tracer: tracer}
}

func (r *QueryRepository) Ping(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "query-repo.ping")
	defer span.End()

	return r.pool.Ping(ctx)
}

func (r *QueryRepository) ListIndices(ctx context.Context) ([]domain.Index, error) {
	ctx, span := r.tracer.Start(ctx, "query-repo.list-indices")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
SELECT id, code, COALESCE(name, code), COALESCE(region, ''), COALESCE(currency, ''), COALESCE(timezone, '')
FROM market_index
ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}
	defer rows.Close()

	out := []domain.Index{}
	for rows.Next() {
		var idx domain.Index
		if err := rows.Scan(&idx.ID, &idx.Code, &idx.Name, &idx.Region, &idx.Currency, &idx.Timezone); err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, rows.Err()
}

// LatestSummary returns the scores of the most recent scored day, one row
// per index ordered by code. date is nil when no score exists.
func (r *QueryRepository) LatestSummary(ctx context.Context) (*time.Time, []domain.BiasSummaryRow, error) {
	ctx, span := r.tracer.Start(ctx, "query-repo.latest-summary")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
WITH latest AS (SELECT max(time) AS t FROM bias_score)
SELECT b.time, i.code, COALESCE(i.name, i.code), b.bias_score, b.confidence_pct, b.risk_flag, g.code
FROM bias_score b
JOIN latest ON b.time = latest.t
JOIN market_index i ON i.id = b.index_id
LEFT JOIN market_regime g ON g.id = b.regime_id
ORDER BY i.code`)
	if err != nil {
		return nil, nil, fmt.Errorf("latest summary: %w", err)
	}
	defer rows.Close()

	var date *time.Time
	out := []domain.BiasSummaryRow{}
	for rows.Next() {
		var (
			t   time.Time
			row domain.BiasSummaryRow
		)
		if err := rows.Scan(&t, &row.Index, &row.Name, &row.BiasScore, &row.ConfidencePct, &row.RiskFlag, &row.Regime); err != nil {
			return nil, nil, err
		}
		if date == nil {
			d := t.UTC()
			date = &d
		}
		out = append(out, row)
	}
	return date, out, rows.Err()
}

// History returns scores newest first, filtered by the optional index code
// and inclusive date bounds.
func (r *QueryRepository) History(ctx context.Context, f domain.BiasHistoryFilter) ([]domain.BiasHistoryPoint, error) {
	ctx, span := r.tracer.Start(ctx, "query-repo.history")
	defer span.End()
	span.SetAttributes(attribute.String("index", f.IndexCode), attribute.Int("limit", f.Limit))

	var (
		where []string
		args  []any
	)
	if f.IndexCode != "" {
		args = append(args, f.IndexCode)
		where = append(where, fmt.Sprintf("i.code = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("b.time >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("b.time <= $%d", len(args)))
	}
	args = append(args, f.Limit)

	sql := `
SELECT b.time, i.code, b.bias_score, b.confidence_pct, b.risk_flag
FROM bias_score b
JOIN market_index i ON i.id = b.index_id`
	if len(where) > 0 {
		sql += "\nWHERE " + strings.Join(where, " AND ")
	}
	sql += fmt.Sprintf("\nORDER BY b.time DESC, i.code\nLIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("bias history: %w", err)
	}
	defer rows.Close()

	out := []domain.BiasHistoryPoint{}
	for rows.Next() {
		var p domain.BiasHistoryPoint
		if err := rows.Scan(&p.Time, &p.Index, &p.BiasScore, &p.ConfidencePct, &p.RiskFlag); err != nil {
			return nil, err
		}
		p.Time = p.Time.UTC()
		p.Date = p.Time.Format(time.DateOnly)
		out = append(out, p)
	}
	return out, rows.Err()
}

// MacroLatest returns the newest observation of every indicator released on
// or after since, ordered by indicator code.
func (r *QueryRepository) MacroLatest(ctx context.Context, since time.Time) ([]domain.MacroLatest, error) {
	ctx, span := r.tracer.Start(ctx, "query-repo.macro-latest")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
SELECT DISTINCT ON (m.code)
    m.code, m.name, m.category, m.unit, m.direction,
    o.release_date, o.actual, o.forecast, o.previous, o.surprise, o.surprise_normalized
FROM macro_observation o
JOIN macro_indicator m ON m.id = o.indicator_id
WHERE o.time >= $1
ORDER BY m.code, o.time DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("macro latest: %w", err)
	}
	defer rows.Close()

	out := []domain.MacroLatest{}
	for rows.Next() {
		var (
			m         domain.MacroLatest
			direction *string
		)
		if err := rows.Scan(
			&m.Code, &m.Name, &m.Category, &m.Unit, &direction,
			&m.ReleaseDate, &m.Actual, &m.Forecast, &m.Previous, &m.Surprise, &m.SurpriseNormalized,
		); err != nil {
			return nil, err
		}
		if direction != nil {
			m.Direction = domain.ParseDirection(*direction)
		} else {
			m.Direction = domain.DirectionPositive
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
