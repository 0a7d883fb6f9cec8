package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// PickStore implements domain.PickStore using PostgreSQL.
type PickStore struct {
	pool *pgxpool.Pool
}

// NewPickStore creates a new PickStore backed by the given connection pool.
func NewPickStore(pool *pgxpool.Pool) *PickStore {
	return &PickStore{pool: pool}
}

const pickCols = `id, game_id, title, pick_type, pick_side, pick_line, stake, free,
	status, analyst_consensus, result, result_recorded_at,
	home_score, away_score, result_note, published_at, created_at`

const uniqueViolation = "23505"

type pickRow struct {
	p                         domain.Pick
	typ, side, status, result string
	recordedAt                *time.Time
}

func (x *pickRow) dest() []any {
	p := &x.p
	return []any{
		&p.ID, &p.GameID, &p.Title, &x.typ, &x.side, &p.Line, &p.Stake, &p.Free,
		&x.status, &p.Consensus, &x.result, &x.recordedAt,
		&p.HomeScore, &p.AwayScore, &p.ResultNote, &p.PublishedAt, &p.CreatedAt,
	}
}

func (x *pickRow) pick() domain.Pick {
	p := x.p
	p.Type = domain.PickType(x.typ)
	p.Side = domain.PickSide(x.side)
	p.Status = domain.PickStatus(x.status)
	p.Result = domain.PickResult(x.result)
	p.Recorded = domain.LifecycleAt(x.recordedAt)
	return p
}

// Create inserts a new pick. An empty ID is assigned; a duplicate ID
// returns domain.ErrAlreadyExists.
func (s *PickStore) Create(ctx context.Context, p domain.Pick) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.PickDraft
	}
	if p.Result == "" {
		p.Result = domain.ResultPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	const query = `
		INSERT INTO picks (
			id, game_id, title, pick_type, pick_side, pick_line, stake, free,
			status, analyst_consensus, result, published_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.GameID, p.Title, string(p.Type), string(p.Side), p.Line, p.Stake, p.Free,
		string(p.Status), p.Consensus, string(p.Result), p.PublishedAt, p.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("postgres: pick %s: %w", p.ID, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("postgres: create pick %s: %w", p.ID, err)
	}
	return nil
}

// GetByID retrieves a pick by its primary key.
func (s *PickStore) GetByID(ctx context.Context, id string) (domain.Pick, error) {
	var x pickRow
	if err := s.pool.QueryRow(ctx, `SELECT `+pickCols+` FROM picks WHERE id = $1`, id).Scan(x.dest()...); err != nil {
		return domain.Pick{}, notFound(err, "pick", id)
	}
	return x.pick(), nil
}

// Publish moves a draft to published. Published picks keep their
// original publish time.
func (s *PickStore) Publish(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE picks SET status = 'published', published_at = $2
		WHERE id = $1 AND status <> 'published'`, id, at)
	if err != nil {
		return false, fmt.Errorf("postgres: publish pick %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return false, s.exists(ctx, id)
	}
	return true, nil
}

// RecordResult stores the result once; result_recorded_at is the guard.
func (s *PickStore) RecordResult(ctx context.Context, p domain.Pick) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE picks SET
			result = $2, home_score = $3, away_score = $4, result_note = $5, result_recorded_at = $6
		WHERE id = $1 AND result_recorded_at IS NULL`,
		p.ID, string(p.Result), p.HomeScore, p.AwayScore, p.ResultNote, recordedAt(p),
	)
	if err != nil {
		return false, fmt.Errorf("postgres: record result for pick %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, s.exists(ctx, p.ID)
	}
	return true, nil
}

// CorrectResult overwrites the result regardless of the guard.
func (s *PickStore) CorrectResult(ctx context.Context, p domain.Pick) error {
	tag, err := s.pool.Exec(ctx, `UPDATE picks SET
			result = $2, home_score = $3, away_score = $4, result_note = $5, result_recorded_at = $6
		WHERE id = $1`,
		p.ID, string(p.Result), p.HomeScore, p.AwayScore, p.ResultNote, recordedAt(p),
	)
	if err != nil {
		return fmt.Errorf("postgres: correct result for pick %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: pick %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func recordedAt(p domain.Pick) *time.Time {
	if ts := p.Recorded.Timestamp(); ts != nil {
		return ts
	}
	now := time.Now().UTC()
	return &now
}

// ListPendingPublished returns published picks with no recorded result.
func (s *PickStore) ListPendingPublished(ctx context.Context) ([]domain.Pick, error) {
	return s.list(ctx, "list pending picks", `SELECT `+pickCols+` FROM picks
		WHERE status = 'published' AND result_recorded_at IS NULL
		ORDER BY created_at, id`)
}

// ListGraded returns graded picks matching f; the window applies to
// published_at.
func (s *PickStore) ListGraded(ctx context.Context, f domain.PickFilter) ([]domain.Pick, error) {
	q := newBuilder(`SELECT ` + pickCols + ` FROM picks
		WHERE result_recorded_at IS NOT NULL AND result IN ('win', 'loss', 'push')`)
	if f.Type != "" {
		q.and("pick_type = %s", string(f.Type))
	}
	if f.Consensus != "" {
		q.and("analyst_consensus = %s", f.Consensus)
	}
	if f.GameID != "" {
		q.and("game_id = %s", f.GameID)
	}
	q.window("published_at", f.Since, f.Until)
	q.raw(" ORDER BY created_at, id")
	return s.list(ctx, "list graded picks", q.String(), q.args...)
}

func (s *PickStore) list(ctx context.Context, op, query string, args ...any) ([]domain.Pick, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var picks []domain.Pick
	for rows.Next() {
		var x pickRow
		if err := rows.Scan(x.dest()...); err != nil {
			return nil, fmt.Errorf("postgres: scan pick (%s): %w", op, err)
		}
		picks = append(picks, x.pick())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s rows: %w", op, err)
	}
	return picks, nil
}

func (s *PickStore) exists(ctx context.Context, id string) error {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM picks WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("postgres: pick %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("postgres: check pick %s: %w", id, err)
	}
	return nil
}

var _ domain.PickStore = (*PickStore)(nil)
