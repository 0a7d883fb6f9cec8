package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

const defaultConcurrency = 8

// Observer receives every scored result. The telemetry collectors
// implement it.
type Observer interface {
	ObserveEdge(res domain.EdgeResult)
}

// Board holds ranked results per model.
type Board map[domain.Model][]domain.EdgeResult

// Actionable returns every actionable result across models, ranked.
func (b Board) Actionable() []domain.EdgeResult {
	var out []domain.EdgeResult
	for _, rs := range b {
		for _, r := range rs {
			if r.Actionable {
				out = append(out, r)
			}
		}
	}
	SortByEdge(out)
	return out
}

// Engine scores games against team metrics. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	games       domain.GameSource
	metrics     domain.MetricLookup
	logger      *slog.Logger
	observer    Observer
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver reports each scored result to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithConcurrency bounds how many games are scored at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine creates a scoring engine.
func NewEngine(games domain.GameSource, metrics domain.MetricLookup, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		games:       games,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "scoring")),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ScoreDate scores every game on date with the requested models (all
// models when none are given).
func (e *Engine) ScoreDate(ctx context.Context, date time.Time, models ...domain.Model) (Board, error) {
	games, err := e.games.ListByDate(ctx, date)
	if err != nil {
		return nil, domain.External("scoring: list games", err)
	}
	return e.score(ctx, games, models)
}

// ScoreGame scores a single game.
func (e *Engine) ScoreGame(ctx context.Context, gameID string, models ...domain.Model) (Board, error) {
	g, err := e.games.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("scoring: game %s: %w", gameID, err)
		}
		return nil, domain.External("scoring: get game "+gameID, err)
	}
	return e.score(ctx, []domain.Game{g}, models)
}

// ScoreAll scores date with every model and merges the results into one
// ranking.
func (e *Engine) ScoreAll(ctx context.Context, date time.Time) ([]domain.EdgeResult, error) {
	board, err := e.ScoreDate(ctx, date)
	if err != nil {
		return nil, err
	}
	var all []domain.EdgeResult
	for _, m := range domain.Models {
		all = append(all, board[m]...)
	}
	SortByEdge(all)
	return all, nil
}

func (e *Engine) score(ctx context.Context, games []domain.Game, models []domain.Model) (Board, error) {
	if len(models) == 0 {
		models = domain.Models
	}
	funcs := make([]ModelFunc, len(models))
	for i, m := range models {
		f, ok := ModelFor(m)
		if !ok {
			return nil, fmt.Errorf("scoring: unknown model %q", m)
		}
		funcs[i] = f
	}

	perGame := make([][]domain.EdgeResult, len(games))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, game := range games {
		g.Go(func() error {
			m, err := e.matchup(gctx, game)
			if err != nil {
				return err
			}
			for _, f := range funcs {
				if res, ok := f(m); ok {
					perGame[i] = append(perGame[i], res)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	board := make(Board, len(models))
	for _, m := range models {
		board[m] = []domain.EdgeResult{}
	}
	for _, rs := range perGame {
		for _, r := range rs {
			board[r.Model] = append(board[r.Model], r)
			if e.observer != nil {
				e.observer.ObserveEdge(r)
			}
		}
	}
	for m := range board {
		SortByEdge(board[m])
	}
	e.logger.DebugContext(ctx, "games scored",
		slog.Int("games", len(games)),
		slog.Int("models", len(models)),
	)
	return board, nil
}

func (e *Engine) matchup(ctx context.Context, g domain.Game) (Matchup, error) {
	home, err := e.metrics.TeamMetrics(ctx, teamKey(g.HomeAbbr, g.HomeTeam))
	if err != nil {
		return Matchup{}, domain.External("scoring: home metrics for game "+g.ID, err)
	}
	away, err := e.metrics.TeamMetrics(ctx, teamKey(g.AwayAbbr, g.AwayTeam))
	if err != nil {
		return Matchup{}, domain.External("scoring: away metrics for game "+g.ID, err)
	}
	if !home.Known || !away.Known {
		e.logger.WarnContext(ctx, "scoring with default metrics",
			slog.String("game_id", g.ID),
			slog.Bool("home_known", home.Known),
			slog.Bool("away_known", away.Known),
		)
	}
	return Matchup{Game: g, Home: home, Away: away}, nil
}

func teamKey(abbr, name string) string {
	if abbr != "" {
		return abbr
	}
	return name
}

// SortByEdge ranks results by edge descending. Ties keep tip-off order.
func SortByEdge(rs []domain.EdgeResult) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Edge != rs[j].Edge {
			return rs[i].Edge > rs[j].Edge
		}
		if !rs[i].StartsAt.Equal(rs[j].StartsAt) {
			return rs[i].StartsAt.Before(rs[j].StartsAt)
		}
		return rs[i].Matchup < rs[j].Matchup
	})
}
