package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// AnalystPickStore implements domain.AnalystPickStore using PostgreSQL.
type AnalystPickStore struct {
	pool *pgxpool.Pool
}

// NewAnalystPickStore creates a new AnalystPickStore backed by the given
// connection pool.
func NewAnalystPickStore(pool *pgxpool.Pool) *AnalystPickStore {
	return &AnalystPickStore{pool: pool}
}

const analystPickCols = `id, pick_id, analyst, side, confidence, rationale, correct, evaluated_at, created_at`

func scanAnalystPick(row pgx.Row) (domain.AnalystPick, error) {
	var (
		ap            domain.AnalystPick
		analyst, side string
		evaluatedAt   *time.Time
	)
	if err := row.Scan(&ap.ID, &ap.PickID, &analyst, &side, &ap.Confidence, &ap.Rationale,
		&ap.Correct, &evaluatedAt, &ap.CreatedAt); err != nil {
		return domain.AnalystPick{}, err
	}
	ap.Analyst = domain.Analyst(analyst)
	ap.Side = domain.Direction(side)
	ap.Evaluated = domain.LifecycleAt(evaluatedAt)
	return ap, nil
}

// FindOrCreate inserts ap unless (pick, analyst) exists, then returns the
// stored row. The unique constraint makes concurrent callers converge on
// one row.
func (s *AnalystPickStore) FindOrCreate(ctx context.Context, ap domain.AnalystPick) (domain.AnalystPick, bool, error) {
	if ap.ID == "" {
		ap.ID = uuid.NewString()
	}
	if ap.CreatedAt.IsZero() {
		ap.CreatedAt = time.Now().UTC()
	}
	const insert = `
		INSERT INTO analyst_picks (id, pick_id, analyst, side, confidence, rationale, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (pick_id, analyst) DO NOTHING
		RETURNING ` + analystPickCols
	stored, err := scanAnalystPick(s.pool.QueryRow(ctx, insert,
		ap.ID, ap.PickID, string(ap.Analyst), string(ap.Side), ap.Confidence, ap.Rationale, ap.CreatedAt))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.AnalystPick{}, false, fmt.Errorf("postgres: create analyst pick %s/%s: %w", ap.PickID, ap.Analyst, err)
	}

	stored, err = scanAnalystPick(s.pool.QueryRow(ctx,
		`SELECT `+analystPickCols+` FROM analyst_picks WHERE pick_id = $1 AND analyst = $2`,
		ap.PickID, string(ap.Analyst)))
	if err != nil {
		return domain.AnalystPick{}, false, notFound(err, "analyst pick", ap.PickID+"/"+string(ap.Analyst))
	}
	return stored, false, nil
}

// ListByPick returns the analyst picks for pickID in analyst order.
func (s *AnalystPickStore) ListByPick(ctx context.Context, pickID string) ([]domain.AnalystPick, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+analystPickCols+` FROM analyst_picks WHERE pick_id = $1 ORDER BY analyst`, pickID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list analyst picks for %s: %w", pickID, err)
	}
	defer rows.Close()

	var out []domain.AnalystPick
	for rows.Next() {
		ap, err := scanAnalystPick(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan analyst pick for %s: %w", pickID, err)
		}
		out = append(out, ap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list analyst picks for %s rows: %w", pickID, err)
	}
	return out, nil
}

// MarkEvaluated sets correctness once.
func (s *AnalystPickStore) MarkEvaluated(ctx context.Context, id string, correct bool, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE analyst_picks SET correct = $2, evaluated_at = $3
		WHERE id = $1 AND evaluated_at IS NULL`, id, correct, at)
	if err != nil {
		return false, fmt.Errorf("postgres: evaluate analyst pick %s: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var one int
	err = s.pool.QueryRow(ctx, `SELECT 1 FROM analyst_picks WHERE id = $1`, id).Scan(&one)
	if err != nil {
		return false, notFound(err, "analyst pick", id)
	}
	return false, nil
}

// CountEvaluated counts evaluated picks for analyst whose parent pick was
// published inside the window.
func (s *AnalystPickStore) CountEvaluated(ctx context.Context, analyst domain.Analyst, from, to *time.Time) (int, int, error) {
	q := newBuilder(`SELECT COUNT(*) FILTER (WHERE ap.correct), COUNT(*)
		FROM analyst_picks ap JOIN picks p ON p.id = ap.pick_id
		WHERE ap.evaluated_at IS NOT NULL AND ap.correct IS NOT NULL`)
	q.and("ap.analyst = %s", string(analyst))
	q.window("p.published_at", from, to)

	var correct, total int
	if err := s.pool.QueryRow(ctx, q.String(), q.args...).Scan(&correct, &total); err != nil {
		return 0, 0, fmt.Errorf("postgres: count evaluated picks for %s: %w", analyst, err)
	}
	return correct, total, nil
}

// AnalystWeightStore implements domain.AnalystWeightStore using PostgreSQL.
type AnalystWeightStore struct {
	pool *pgxpool.Pool
}

// NewAnalystWeightStore creates a new AnalystWeightStore backed by the
// given connection pool.
func NewAnalystWeightStore(pool *pgxpool.Pool) *AnalystWeightStore {
	return &AnalystWeightStore{pool: pool}
}

// List returns every weight row ordered by analyst.
func (s *AnalystWeightStore) List(ctx context.Context) ([]domain.AnalystWeight, error) {
	rows, err := s.pool.Query(ctx, `SELECT analyst, accuracy, weight, signal_type, sample_size,
		last_backtest_date, updated_at FROM analyst_weights ORDER BY analyst`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list analyst weights: %w", err)
	}
	defer rows.Close()

	var out []domain.AnalystWeight
	for rows.Next() {
		var (
			w               domain.AnalystWeight
			analyst, signal string
		)
		if err := rows.Scan(&analyst, &w.Accuracy, &w.Weight, &signal, &w.SampleSize,
			&w.LastBacktestDate, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan analyst weight: %w", err)
		}
		w.Analyst = domain.Analyst(analyst)
		w.Signal = domain.SignalType(signal)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list analyst weights rows: %w", err)
	}
	return out, nil
}

// Upsert replaces the row for w.Analyst.
func (s *AnalystWeightStore) Upsert(ctx context.Context, w domain.AnalystWeight) error {
	updated := w.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	const query = `
		INSERT INTO analyst_weights (analyst, accuracy, weight, signal_type, sample_size, last_backtest_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (analyst) DO UPDATE SET
			accuracy           = EXCLUDED.accuracy,
			weight             = EXCLUDED.weight,
			signal_type        = EXCLUDED.signal_type,
			sample_size        = EXCLUDED.sample_size,
			last_backtest_date = EXCLUDED.last_backtest_date,
			updated_at         = EXCLUDED.updated_at`
	_, err := s.pool.Exec(ctx, query,
		string(w.Analyst), w.Accuracy, w.Weight, string(w.Signal), w.SampleSize, w.LastBacktestDate, updated)
	if err != nil {
		return fmt.Errorf("postgres: upsert analyst weight %s: %w", w.Analyst, err)
	}
	return nil
}

var (
	_ domain.AnalystPickStore   = (*AnalystPickStore)(nil)
	_ domain.AnalystWeightStore = (*AnalystWeightStore)(nil)
)
