package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// GameStore implements domain.GameStore using PostgreSQL.
type GameStore struct {
	pool *pgxpool.Pool
}

// NewGameStore creates a new GameStore backed by the given connection pool.
func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

const gameCols = `id, external_id, home_team, away_team, home_abbr, away_abbr,
	starts_at, home_spread, away_spread, total_line,
	home_edge, away_edge, schedule_note, venue,
	status, home_score, away_score, created_at, updated_at`

// Upsert inserts or refreshes a game. Recorded scores are never replaced
// and the status only moves forward.
func (s *GameStore) Upsert(ctx context.Context, g domain.Game) error {
	const query = `
		INSERT INTO games (
			id, external_id, home_team, away_team, home_abbr, away_abbr,
			starts_at, home_spread, away_spread, total_line,
			home_edge, away_edge, schedule_note, venue, status
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14, $15
		)
		ON CONFLICT (id) DO UPDATE SET
			external_id   = EXCLUDED.external_id,
			home_team     = EXCLUDED.home_team,
			away_team     = EXCLUDED.away_team,
			home_abbr     = EXCLUDED.home_abbr,
			away_abbr     = EXCLUDED.away_abbr,
			starts_at     = EXCLUDED.starts_at,
			home_spread   = EXCLUDED.home_spread,
			away_spread   = EXCLUDED.away_spread,
			total_line    = EXCLUDED.total_line,
			home_edge     = EXCLUDED.home_edge,
			away_edge     = EXCLUDED.away_edge,
			schedule_note = EXCLUDED.schedule_note,
			venue         = EXCLUDED.venue,
			status        = CASE
				WHEN game_status_rank(EXCLUDED.status) > game_status_rank(games.status)
				THEN EXCLUDED.status ELSE games.status END,
			updated_at    = NOW()`

	status := g.Status
	if status == "" {
		status = domain.GameScheduled
	}
	_, err := s.pool.Exec(ctx, query,
		g.ID, g.ExternalID, g.HomeTeam, g.AwayTeam, g.HomeAbbr, g.AwayAbbr,
		g.StartsAt, g.HomeSpread, g.AwaySpread, g.TotalLine,
		g.HomeEdge, g.AwayEdge, g.ScheduleNote, g.Venue, string(status),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert game %s: %w", g.ID, err)
	}
	return nil
}

type gameRow struct {
	g      domain.Game
	status string
}

func (x *gameRow) dest() []any {
	g := &x.g
	return []any{
		&g.ID, &g.ExternalID, &g.HomeTeam, &g.AwayTeam, &g.HomeAbbr, &g.AwayAbbr,
		&g.StartsAt, &g.HomeSpread, &g.AwaySpread, &g.TotalLine,
		&g.HomeEdge, &g.AwayEdge, &g.ScheduleNote, &g.Venue,
		&x.status, &g.HomeScore, &g.AwayScore, &g.CreatedAt, &g.UpdatedAt,
	}
}

func (x *gameRow) game() domain.Game {
	g := x.g
	g.Status = domain.GameStatus(x.status)
	return g
}

func scanGame(row pgx.Row) (domain.Game, error) {
	var x gameRow
	if err := row.Scan(x.dest()...); err != nil {
		return domain.Game{}, err
	}
	return x.game(), nil
}

func (s *GameStore) list(ctx context.Context, op, query string, args ...any) ([]domain.Game, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan game (%s): %w", op, err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s rows: %w", op, err)
	}
	return games, nil
}

// GetByID retrieves a game by its primary key.
func (s *GameStore) GetByID(ctx context.Context, id string) (domain.Game, error) {
	g, err := scanGame(s.pool.QueryRow(ctx, `SELECT `+gameCols+` FROM games WHERE id = $1`, id))
	if err != nil {
		return domain.Game{}, notFound(err, "game", id)
	}
	return g, nil
}

// ListByDate returns games tipping off on date's calendar day in date's
// location.
func (s *GameStore) ListByDate(ctx context.Context, date time.Time) ([]domain.Game, error) {
	from, to := domain.DayBounds(date)
	return s.ListStartingBetween(ctx, from, to)
}

// ListStartingBetween returns games with from <= starts_at < to.
func (s *GameStore) ListStartingBetween(ctx context.Context, from, to time.Time) ([]domain.Game, error) {
	return s.list(ctx, "list games by start", `SELECT `+gameCols+` FROM games
		WHERE starts_at >= $1 AND starts_at < $2
		ORDER BY starts_at, id`, from, to)
}

// ListAwaitingResult returns games that started before the cutoff and
// have no graded outcome yet.
func (s *GameStore) ListAwaitingResult(ctx context.Context, before time.Time) ([]domain.Game, error) {
	return s.list(ctx, "list games awaiting result", `SELECT `+prefixed("g", gameCols)+` FROM games g
		LEFT JOIN game_results r ON r.game_id = g.id
		WHERE g.starts_at < $1 AND r.result_captured_at IS NULL
		ORDER BY g.starts_at, g.id`, before)
}

// AdvanceStatus moves the status forward; regressions change nothing.
func (s *GameStore) AdvanceStatus(ctx context.Context, id string, status domain.GameStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE games SET status = $2, updated_at = NOW()
		WHERE id = $1 AND game_status_rank($2) > game_status_rank(status)`, id, string(status))
	if err != nil {
		return false, fmt.Errorf("postgres: advance game %s to %s: %w", id, status, err)
	}
	if tag.RowsAffected() == 0 {
		return false, s.exists(ctx, id)
	}
	return true, nil
}

// RecordFinalScore sets both scores once and marks the game finished.
func (s *GameStore) RecordFinalScore(ctx context.Context, id string, home, away int) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE games
		SET home_score = $2, away_score = $3, status = 'finished', updated_at = NOW()
		WHERE id = $1 AND home_score IS NULL AND away_score IS NULL`, id, home, away)
	if err != nil {
		return false, fmt.Errorf("postgres: record final score for game %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return false, s.exists(ctx, id)
	}
	return true, nil
}

// exists distinguishes a guard refusal from a missing row.
func (s *GameStore) exists(ctx context.Context, id string) error {
	var ok bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM games WHERE id = $1)`, id).Scan(&ok); err != nil {
		return fmt.Errorf("postgres: check game %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("postgres: game %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

var _ domain.GameStore = (*GameStore)(nil)
