package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// GameStore persists game snapshots.
type GameStore interface {
	Upsert(ctx context.Context, g Game) error
	GetByID(ctx context.Context, id string) (Game, error)
	ListByDate(ctx context.Context, date time.Time) ([]Game, error)
	// ListStartingBetween returns games whose tip-off lies in [from, to).
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]Game, error)
	// ListAwaitingResult returns finished or past-start games with no
	// graded outcome yet.
	ListAwaitingResult(ctx context.Context, before time.Time) ([]Game, error)
	AdvanceStatus(ctx context.Context, id string, status GameStatus) (bool, error)
	// RecordFinalScore sets scores once; false means they were already set.
	RecordFinalScore(ctx context.Context, id string, home, away int) (bool, error)
}

// GameWithResult joins a game with its result row.
type GameWithResult struct {
	Game   Game
	Result GameResult
}

// GameResultStore persists line captures and graded outcomes.
type GameResultStore interface {
	Get(ctx context.Context, gameID string) (GameResult, error)
	// ObserveOpening records opening lines that are still unset.
	ObserveOpening(ctx context.Context, gameID string, spread, total *float64) error
	// CaptureLines writes closing lines once; false means already captured.
	CaptureLines(ctx context.Context, gameID string, lines LineCapture) (bool, error)
	// SaveOutcome writes the graded outcome once; false means already graded.
	SaveOutcome(ctx context.Context, gameID string, outcome GradedOutcome) (bool, error)
	ListGradedForTeam(ctx context.Context, team string) ([]GameWithResult, error)
}

// PickFilter narrows pick listings.
type PickFilter struct {
	Type      PickType
	Consensus string
	GameID    string
	Since     *time.Time
	Until     *time.Time
}

// PickStore persists picks.
type PickStore interface {
	Create(ctx context.Context, p Pick) error
	GetByID(ctx context.Context, id string) (Pick, error)
	Publish(ctx context.Context, id string, at time.Time) (bool, error)
	// RecordResult stores result and scores once; false means the pick
	// already had a recorded result.
	RecordResult(ctx context.Context, p Pick) (bool, error)
	// CorrectResult overwrites a recorded result unconditionally.
	CorrectResult(ctx context.Context, p Pick) error
	ListPendingPublished(ctx context.Context) ([]Pick, error)
	ListGraded(ctx context.Context, f PickFilter) ([]Pick, error)
}

// AnalystPickStore persists analyst picks.
type AnalystPickStore interface {
	// FindOrCreate inserts ap unless a row for (pick, analyst) exists and
	// returns the stored row; created reports whether it was inserted.
	FindOrCreate(ctx context.Context, ap AnalystPick) (stored AnalystPick, created bool, err error)
	ListByPick(ctx context.Context, pickID string) ([]AnalystPick, error)
	MarkEvaluated(ctx context.Context, id string, correct bool, at time.Time) (bool, error)
	// CountEvaluated counts evaluated picks for analyst whose parent pick
	// was published inside the optional window.
	CountEvaluated(ctx context.Context, analyst Analyst, from, to *time.Time) (correct, total int, err error)
}

// AnalystWeightStore persists analyst calibration.
type AnalystWeightStore interface {
	List(ctx context.Context) ([]AnalystWeight, error)
	Upsert(ctx context.Context, w AnalystWeight) error
}

// PredictionStore persists weakness predictions.
type PredictionStore interface {
	// CreateIfAbsent inserts p unless (game, team, trigger) exists and
	// returns the stored row.
	CreateIfAbsent(ctx context.Context, p WeaknessPrediction) (stored WeaknessPrediction, created bool, err error)
	ListByGame(ctx context.Context, gameID string) ([]WeaknessPrediction, error)
	MarkEvaluated(ctx context.Context, id string, actual Outcome, hit bool, at time.Time) (bool, error)
	ListAll(ctx context.Context) ([]WeaknessPrediction, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
