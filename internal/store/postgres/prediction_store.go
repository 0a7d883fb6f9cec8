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

// PredictionStore implements domain.PredictionStore using PostgreSQL.
// (game_id, team, trigger_type) is unique.
type PredictionStore struct {
	pool *pgxpool.Pool
}

// NewPredictionStore creates a new PredictionStore backed by the given
// connection pool.
func NewPredictionStore(pool *pgxpool.Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

const predictionCols = `id, game_id, team, trigger_type, trigger_detail, confidence,
	predicted_outcome, actual_outcome, hit, source, triggered_at, evaluated_at`

func scanPrediction(row pgx.Row) (domain.WeaknessPrediction, error) {
	var (
		p                  domain.WeaknessPrediction
		trigger, predicted string
		actual             *string
		evaluatedAt        *time.Time
	)
	err := row.Scan(&p.ID, &p.GameID, &p.Team, &trigger, &p.Detail, &p.Confidence,
		&predicted, &actual, &p.Hit, &p.Source, &p.TriggeredAt, &evaluatedAt)
	if err != nil {
		return domain.WeaknessPrediction{}, err
	}
	p.Trigger = domain.TriggerType(trigger)
	p.PredictedOutcome = domain.Outcome(predicted)
	p.ActualOutcome = domain.Outcome(deref(actual))
	p.Evaluated = domain.LifecycleAt(evaluatedAt)
	return p, nil
}

// CreateIfAbsent inserts p unless its key exists and returns the stored
// row.
func (s *PredictionStore) CreateIfAbsent(ctx context.Context, p domain.WeaknessPrediction) (domain.WeaknessPrediction, bool, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.TriggeredAt.IsZero() {
		p.TriggeredAt = time.Now().UTC()
	}
	const insert = `
		INSERT INTO weakness_predictions (
			id, game_id, team, trigger_type, trigger_detail, confidence,
			predicted_outcome, source, triggered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id, team, trigger_type) DO NOTHING
		RETURNING ` + predictionCols
	stored, err := scanPrediction(s.pool.QueryRow(ctx, insert,
		p.ID, p.GameID, p.Team, string(p.Trigger), p.Detail, p.Confidence,
		string(p.PredictedOutcome), p.Source, p.TriggeredAt))
	if err == nil {
		return stored, true, nil
	}
	key := p.Key()
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.WeaknessPrediction{}, false, fmt.Errorf("postgres: create prediction %s: %w", key, err)
	}

	stored, err = scanPrediction(s.pool.QueryRow(ctx, `SELECT `+predictionCols+` FROM weakness_predictions
		WHERE game_id = $1 AND team = $2 AND trigger_type = $3`, p.GameID, p.Team, string(p.Trigger)))
	if err != nil {
		return domain.WeaknessPrediction{}, false, notFound(err, "prediction", key)
	}
	return stored, false, nil
}

// ListByGame returns the predictions for gameID.
func (s *PredictionStore) ListByGame(ctx context.Context, gameID string) ([]domain.WeaknessPrediction, error) {
	return s.list(ctx, "list predictions for game "+gameID, `SELECT `+predictionCols+`
		FROM weakness_predictions WHERE game_id = $1 ORDER BY triggered_at, team, trigger_type`, gameID)
}

// MarkEvaluated records the actual outcome once.
func (s *PredictionStore) MarkEvaluated(ctx context.Context, id string, actual domain.Outcome, hit bool, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE weakness_predictions
		SET actual_outcome = $2, hit = $3, evaluated_at = $4
		WHERE id = $1 AND evaluated_at IS NULL`, id, string(actual), hit, at)
	if err != nil {
		return false, fmt.Errorf("postgres: evaluate prediction %s: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var one int
	if err := s.pool.QueryRow(ctx, `SELECT 1 FROM weakness_predictions WHERE id = $1`, id).Scan(&one); err != nil {
		return false, notFound(err, "prediction", id)
	}
	return false, nil
}

// ListAll returns every prediction ordered by trigger time.
func (s *PredictionStore) ListAll(ctx context.Context) ([]domain.WeaknessPrediction, error) {
	return s.list(ctx, "list predictions", `SELECT `+predictionCols+`
		FROM weakness_predictions ORDER BY triggered_at, game_id, team, trigger_type`)
}

func (s *PredictionStore) list(ctx context.Context, op, query string, args ...any) ([]domain.WeaknessPrediction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var out []domain.WeaknessPrediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan prediction (%s): %w", op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s rows: %w", op, err)
	}
	return out, nil
}

var _ domain.PredictionStore = (*PredictionStore)(nil)
