package bias

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

// GetRegime returns nil when the code is unknown.
func (r *Repository) GetRegime(ctx context.Context, code string) (*domain.Regime, error) {
	ctx, span := r.tracer.Start(ctx, "bias-repo.get-regime")
	defer span.End()

	var regime domain.Regime
	err := r.pool.QueryRow(ctx, `SELECT id, code FROM market_regime WHERE code = $1`, code).Scan(&regime.ID, &regime.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get regime %s: %w", code, err)
	}
	return &regime, nil
}

// LatestVolatility returns the most recent reading taken on or before the
// end of the as-of day, or nil when there is none.
func (r *Repository) LatestVolatility(ctx context.Context, symbol string, asOf time.Time) (*float64, error) {
	ctx, span := r.tracer.Start(ctx, "bias-repo.latest-volatility")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	var value *float64
	err := r.pool.QueryRow(ctx, `
SELECT value
FROM volatility_snapshot
WHERE symbol = $1 AND time < $2
ORDER BY time DESC
LIMIT 1`, symbol, domain.DayUTC(asOf).AddDate(0, 0, 1)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest volatility %s: %w", symbol, err)
	}
	return value, nil
}

// LatestSurprises returns the newest normalized surprise per indicator
// released in [from, to].
func (r *Repository) LatestSurprises(ctx context.Context, from, to time.Time) ([]domain.LatestSurprise, error) {
	ctx, span := r.tracer.Start(ctx, "bias-repo.latest-surprises")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
SELECT DISTINCT ON (o.indicator_id)
    o.indicator_id, m.direction, o.surprise_normalized, o.release_date
FROM macro_observation o
JOIN macro_indicator m ON m.id = o.indicator_id
WHERE o.release_date >= $1
  AND o.release_date <= $2
  AND o.surprise_normalized IS NOT NULL
ORDER BY o.indicator_id, o.release_date DESC`, domain.DayUTC(from), domain.DayUTC(to))
	if err != nil {
		return nil, fmt.Errorf("latest surprises: %w", err)
	}
	defer rows.Close()

	var out []domain.LatestSurprise
	for rows.Next() {
		var (
			s         domain.LatestSurprise
			direction *string
		)
		if err := rows.Scan(&s.IndicatorID, &direction, &s.SurpriseNormalized, &s.ReleaseDate); err != nil {
			return nil, err
		}
		if direction != nil {
			s.Direction = domain.ParseDirection(*direction)
		} else {
			s.Direction = domain.DirectionPositive
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) ListIndices(ctx context.Context) ([]domain.Index, error) {
	ctx, span := r.tracer.Start(ctx, "bias-repo.list-indices")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
SELECT id, code, name, COALESCE(region, ''), COALESCE(currency, ''), COALESCE(timezone, '')
FROM market_index
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}
	defer rows.Close()

	var out []domain.Index
	for rows.Next() {
		var idx domain.Index
		if err := rows.Scan(&idx.ID, &idx.Code, &idx.Name, &idx.Region, &idx.Currency, &idx.Timezone); err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, rows.Err()
}

func (r *Repository) WeightsForIndex(ctx context.Context, indexID int64) ([]domain.WeightAssignment, error) {
	ctx, span := r.tracer.Start(ctx, "bias-repo.weights-for-index")
	defer span.End()
	span.SetAttributes(attribute.Int64("index_id", indexID))

	rows, err := r.pool.Query(ctx, `
SELECT indicator_id, weight, regime_weights
FROM index_indicator_weight
WHERE index_id = $1
ORDER BY indicator_id`, indexID)
	if err != nil {
		return nil, fmt.Errorf("weights for index %d: %w", indexID, err)
	}
	defer rows.Close()

	var out []domain.WeightAssignment
	for rows.Next() {
		var (
			a   = domain.WeightAssignment{IndexID: indexID}
			raw []byte
		)
		if err := rows.Scan(&a.IndicatorID, &a.Weight, &raw); err != nil {
			return nil, err
		}
		a.RegimeMultipliers = ParseRegimeMultipliers(raw)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertScore writes the full row for (time, index_id) in one statement.
func (r *Repository) UpsertScore(ctx context.Context, score domain.BiasScore) error {
	ctx, span := r.tracer.Start(ctx, "bias-repo.upsert-score")
	defer span.End()
	span.SetAttributes(attribute.String("index", score.IndexCode))

	components, err := json.Marshal(score.Components)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
INSERT INTO bias_score (time, index_id, bias_score, regime_id, confidence_pct, risk_flag, components_json)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (time, index_id) DO UPDATE SET
    bias_score = EXCLUDED.bias_score,
    regime_id = EXCLUDED.regime_id,
    confidence_pct = EXCLUDED.confidence_pct,
    risk_flag = EXCLUDED.risk_flag,
    components_json = EXCLUDED.components_json`,
		domain.DayUTC(score.Time),
		score.IndexID,
		score.BiasScore,
		score.RegimeID,
		score.ConfidencePct,
		string(score.RiskFlag),
		string(components),
	)
	if err != nil {
		return fmt.Errorf("upsert bias score for %s: %w", score.IndexCode, err)
	}
	return nil
}

// UpsertIndex inserts the index if its code is new and returns its id.
func (r *Repository) UpsertIndex(ctx context.Context, def config.IndexDef) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "bias-repo.upsert-index")
	defer span.End()

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO market_index (code, name, region, currency, timezone)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
RETURNING id`, def.Code, def.Name, def.Region, def.Currency, def.Timezone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert index %s: %w", def.Code, err)
	}
	return id, nil
}

func (r *Repository) ListIndicatorIDs(ctx context.Context) ([]int64, error) {
	ctx, span := r.tracer.Start(ctx, "bias-repo.list-indicator-ids")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT id FROM macro_indicator ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertWeights sets the base weight of every pair, leaving regime
// multipliers untouched.
func (r *Repository) UpsertWeights(ctx context.Context, weights []domain.WeightAssignment) (int, error) {
	if len(weights) == 0 {
		return 0, nil
	}
	ctx, span := r.tracer.Start(ctx, "bias-repo.upsert-weights")
	defer span.End()

	batch := &pgx.Batch{}
	for _, w := range weights {
		batch.Queue(`
INSERT INTO index_indicator_weight (indicator_id, index_id, weight)
VALUES ($1, $2, $3)
ON CONFLICT (indicator_id, index_id) DO UPDATE SET weight = EXCLUDED.weight`,
			w.IndicatorID, w.IndexID, w.Weight)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range weights {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert weight index=%d indicator=%d: %w", weights[i].IndexID, weights[i].IndicatorID, err)
		}
	}
	return len(weights), nil
}
