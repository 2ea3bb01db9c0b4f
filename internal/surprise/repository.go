package surprise

import (
	"context"
	"fmt"
	"time"

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

func (r *Repository) ListIndicatorIDs(ctx context.Context) ([]int64, error) {
	ctx, span := r.tracer.Start(ctx, "surprise-repo.list-indicator-ids")
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

// FetchSurprises returns the non-null raw surprises released in [from, to],
// newest first.
func (r *Repository) FetchSurprises(ctx context.Context, indicatorID int64, from, to time.Time) ([]domain.SurprisePoint, error) {
	ctx, span := r.tracer.Start(ctx, "surprise-repo.fetch-surprises")
	defer span.End()
	span.SetAttributes(attribute.Int64("indicator_id", indicatorID))

	rows, err := r.pool.Query(ctx, `
SELECT release_date, surprise
FROM macro_observation
WHERE indicator_id = $1
  AND release_date >= $2
  AND release_date <= $3
  AND surprise IS NOT NULL
ORDER BY release_date DESC`, indicatorID, domain.DayUTC(from), domain.DayUTC(to))
	if err != nil {
		return nil, fmt.Errorf("fetch surprises for indicator %d: %w", indicatorID, err)
	}
	defer rows.Close()

	var out []domain.SurprisePoint
	for rows.Next() {
		var p domain.SurprisePoint
		if err := rows.Scan(&p.ReleaseDate, &p.Surprise); err != nil {
			return nil, err
		}
		p.ReleaseDate = domain.DayUTC(p.ReleaseDate)
		out = append(out, p)
	}
	return out, rows.Err()
}

// WriteNormalized overwrites surprise_normalized for each release date and
// returns the number of rows that existed.
func (r *Repository) WriteNormalized(ctx context.Context, indicatorID int64, values []NormalizedValue) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}
	ctx, span := r.tracer.Start(ctx, "surprise-repo.write-normalized")
	defer span.End()
	span.SetAttributes(attribute.Int64("indicator_id", indicatorID), attribute.Int("rows", len(values)))

	batch := &pgx.Batch{}
	for _, v := range values {
		batch.Queue(`
UPDATE macro_observation
SET surprise_normalized = $3
WHERE time = $1 AND indicator_id = $2`, domain.DayUTC(v.ReleaseDate), indicatorID, v.Value)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	updated := 0
	for range values {
		tag, err := br.Exec()
		if err != nil {
			return updated, fmt.Errorf("write normalized surprise for indicator %d: %w", indicatorID, err)
		}
		updated += int(tag.RowsAffected())
	}
	return updated, nil
}
