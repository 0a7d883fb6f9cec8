package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// GameResultStore implements domain.GameResultStore using PostgreSQL. The
// lines_captured_at and result_captured_at columns are the write-once
// guards; every write checks them in its WHERE clause.
type GameResultStore struct {
	pool *pgxpool.Pool
}

// NewGameResultStore creates a new GameResultStore backed by the given
// connection pool.
func NewGameResultStore(pool *pgxpool.Pool) *GameResultStore {
	return &GameResultStore{pool: pool}
}

const resultCols = `id, game_id,
	opening_spread, closing_spread, opening_total, closing_total, lines_captured_at,
	home_score, away_score, margin, total_points,
	spread_result, total_result, spread_covered_home, total_over, result_captured_at`

// resultRow holds the nullable columns of a game_results row while it is
// scanned.
type resultRow struct {
	r                      domain.GameResult
	linesAt, gradedAt      *time.Time
	home, away, margin, tp *int
	spread, total          *string
}

func (x *resultRow) dest() []any {
	return []any{
		&x.r.ID, &x.r.GameID,
		&x.r.Lines.OpeningSpread, &x.r.Lines.ClosingSpread, &x.r.Lines.OpeningTotal, &x.r.Lines.ClosingTotal, &x.linesAt,
		&x.home, &x.away, &x.margin, &x.tp,
		&x.spread, &x.total, &x.r.Outcome.SpreadCoveredHome, &x.r.Outcome.TotalOver, &x.gradedAt,
	}
}

func (x *resultRow) result() domain.GameResult {
	r := x.r
	r.Lines.Captured = domain.LifecycleAt(x.linesAt)
	r.Outcome.Graded = domain.LifecycleAt(x.gradedAt)
	r.Outcome.HomeScore = intOr(x.home)
	r.Outcome.AwayScore = intOr(x.away)
	r.Outcome.Margin = intOr(x.margin)
	r.Outcome.TotalPoints = intOr(x.tp)
	r.Outcome.SpreadResult = domain.SpreadResult(deref(x.spread))
	r.Outcome.TotalResult = domain.TotalResult(deref(x.total))
	return r
}

func scanResult(row pgx.Row) (domain.GameResult, error) {
	var x resultRow
	if err := row.Scan(x.dest()...); err != nil {
		return domain.GameResult{}, err
	}
	return x.result(), nil
}

func intOr(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// Get returns the result row for gameID.
func (s *GameResultStore) Get(ctx context.Context, gameID string) (domain.GameResult, error) {
	r, err := scanResult(s.pool.QueryRow(ctx, `SELECT `+resultCols+` FROM game_results WHERE game_id = $1`, gameID))
	if err != nil {
		return domain.GameResult{}, notFound(err, "game result", gameID)
	}
	return r, nil
}

// ObserveOpening creates the row if needed and fills opening lines that
// are still NULL. Captured rows are left alone.
func (s *GameResultStore) ObserveOpening(ctx context.Context, gameID string, spread, total *float64) error {
	const query = `
		INSERT INTO game_results (id, game_id, opening_spread, opening_total)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id) DO UPDATE SET
			opening_spread = COALESCE(game_results.opening_spread, EXCLUDED.opening_spread),
			opening_total  = COALESCE(game_results.opening_total, EXCLUDED.opening_total)
		WHERE game_results.lines_captured_at IS NULL`
	if _, err := s.pool.Exec(ctx, query, uuid.NewString(), gameID, spread, total); err != nil {
		return fmt.Errorf("postgres: observe opening lines for game %s: %w", gameID, err)
	}
	return nil
}

// CaptureLines writes closing lines once. Opening lines observed earlier
// win over the ones passed in.
func (s *GameResultStore) CaptureLines(ctx context.Context, gameID string, lines domain.LineCapture) (bool, error) {
	at := lines.Captured.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	const query = `
		INSERT INTO game_results (
			id, game_id, opening_spread, closing_spread, opening_total, closing_total, lines_captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id) DO UPDATE SET
			opening_spread    = COALESCE(game_results.opening_spread, EXCLUDED.opening_spread),
			opening_total     = COALESCE(game_results.opening_total, EXCLUDED.opening_total),
			closing_spread    = EXCLUDED.closing_spread,
			closing_total     = EXCLUDED.closing_total,
			lines_captured_at = EXCLUDED.lines_captured_at
		WHERE game_results.lines_captured_at IS NULL`
	tag, err := s.pool.Exec(ctx, query,
		uuid.NewString(), gameID,
		lines.OpeningSpread, lines.ClosingSpread, lines.OpeningTotal, lines.ClosingTotal, at,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: capture lines for game %s: %w", gameID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SaveOutcome writes the graded outcome once. The row must exist, which
// it does once lines were captured.
func (s *GameResultStore) SaveOutcome(ctx context.Context, gameID string, o domain.GradedOutcome) (bool, error) {
	at := o.Graded.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, `UPDATE game_results SET
			home_score = $2, away_score = $3, margin = $4, total_points = $5,
			spread_result = $6, total_result = $7,
			spread_covered_home = $8, total_over = $9,
			result_captured_at = $10
		WHERE game_id = $1 AND result_captured_at IS NULL`,
		gameID, o.HomeScore, o.AwayScore, o.Margin, o.TotalPoints,
		nullString(string(o.SpreadResult)), nullString(string(o.TotalResult)),
		o.SpreadCoveredHome, o.TotalOver, at,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: save outcome for game %s: %w", gameID, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := s.Get(ctx, gameID); err != nil {
		return false, err
	}
	return false, nil
}

// ListGradedForTeam returns graded games where team played either side,
// oldest first.
func (s *GameResultStore) ListGradedForTeam(ctx context.Context, team string) ([]domain.GameWithResult, error) {
	query := `SELECT ` + prefixed("g", gameCols) + `, ` + prefixed("r", resultCols) + `
		FROM game_results r JOIN games g ON g.id = r.game_id
		WHERE r.result_captured_at IS NOT NULL AND (g.home_abbr = $1 OR g.away_abbr = $1)
		ORDER BY g.starts_at`
	rows, err := s.pool.Query(ctx, query, team)
	if err != nil {
		return nil, fmt.Errorf("postgres: list graded games for %s: %w", team, err)
	}
	defer rows.Close()

	var out []domain.GameWithResult
	for rows.Next() {
		gr, err := scanGameWithResult(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan graded game for %s: %w", team, err)
		}
		out = append(out, gr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list graded games for %s rows: %w", team, err)
	}
	return out, nil
}

// scanGameWithResult reads a joined row of gameCols followed by
// resultCols.
func scanGameWithResult(rows pgx.Rows) (domain.GameWithResult, error) {
	var (
		g gameRow
		r resultRow
	)
	if err := rows.Scan(append(g.dest(), r.dest()...)...); err != nil {
		return domain.GameWithResult{}, err
	}
	return domain.GameWithResult{Game: g.game(), Result: r.result()}, nil
}

var _ domain.GameResultStore = (*GameResultStore)(nil)
