package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// GameStore implements domain.GameStore in memory.
type GameStore struct {
	db *DB
}

// NewGameStore creates a GameStore over db.
func NewGameStore(db *DB) *GameStore {
	return &GameStore{db: db}
}

// Upsert inserts or refreshes a game. Scores are only written through
// RecordFinalScore and the status never moves backwards.
func (s *GameStore) Upsert(_ context.Context, g domain.Game) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.db.games[g.ID]
	if !ok {
		if g.Status == "" {
			g.Status = domain.GameScheduled
		}
		g.HomeScore, g.AwayScore = nil, nil
		g.CreatedAt, g.UpdatedAt = now, now
		s.db.games[g.ID] = g
		return nil
	}

	next := g.Status
	g.Status = existing.Status
	g.AdvanceStatus(next)
	g.HomeScore, g.AwayScore = existing.HomeScore, existing.AwayScore
	g.CreatedAt = existing.CreatedAt
	g.UpdatedAt = now
	s.db.games[g.ID] = g
	return nil
}

// GetByID returns the game with id.
func (s *GameStore) GetByID(_ context.Context, id string) (domain.Game, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	g, ok := s.db.games[id]
	if !ok {
		return domain.Game{}, fmt.Errorf("memory: game %s: %w", id, domain.ErrNotFound)
	}
	return g, nil
}

// ListByDate returns games tipping off on date's calendar day.
func (s *GameStore) ListByDate(ctx context.Context, date time.Time) ([]domain.Game, error) {
	from, to := domain.DayBounds(date)
	return s.ListStartingBetween(ctx, from, to)
}

// ListStartingBetween returns games with from <= starts_at < to.
func (s *GameStore) ListStartingBetween(_ context.Context, from, to time.Time) ([]domain.Game, error) {
	return s.filter(func(g domain.Game) bool {
		return !g.StartsAt.Before(from) && g.StartsAt.Before(to)
	}), nil
}

// ListAwaitingResult returns games that started before the cutoff and
// have no graded outcome.
func (s *GameStore) ListAwaitingResult(_ context.Context, before time.Time) ([]domain.Game, error) {
	return s.filter(func(g domain.Game) bool {
		if !g.StartsAt.Before(before) {
			return false
		}
		r, ok := s.db.results[g.ID]
		return !ok || !r.Outcome.Graded.Finalized()
	}), nil
}

// AdvanceStatus moves the game status forward.
func (s *GameStore) AdvanceStatus(_ context.Context, id string, status domain.GameStatus) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	g, ok := s.db.games[id]
	if !ok {
		return false, fmt.Errorf("memory: game %s: %w", id, domain.ErrNotFound)
	}
	if !g.AdvanceStatus(status) {
		return false, nil
	}
	g.UpdatedAt = time.Now().UTC()
	s.db.games[id] = g
	return true, nil
}

// RecordFinalScore sets the final score once.
func (s *GameStore) RecordFinalScore(_ context.Context, id string, home, away int) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	g, ok := s.db.games[id]
	if !ok {
		return false, fmt.Errorf("memory: game %s: %w", id, domain.ErrNotFound)
	}
	if !g.RecordFinalScore(home, away) {
		return false, nil
	}
	g.UpdatedAt = time.Now().UTC()
	s.db.games[id] = g
	return true, nil
}

func (s *GameStore) filter(keep func(domain.Game) bool) []domain.Game {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []domain.Game
	for _, g := range s.db.games {
		if keep(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

var _ domain.GameStore = (*GameStore)(nil)
