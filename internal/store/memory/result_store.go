package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// GameResultStore implements domain.GameResultStore in memory.
type GameResultStore struct {
	db *DB
}

// NewGameResultStore creates a GameResultStore over db.
func NewGameResultStore(db *DB) *GameResultStore {
	return &GameResultStore{db: db}
}

// Get returns the result row for gameID.
func (s *GameResultStore) Get(_ context.Context, gameID string) (domain.GameResult, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.results[gameID]
	if !ok {
		return domain.GameResult{}, fmt.Errorf("memory: game result %s: %w", gameID, domain.ErrNotFound)
	}
	return r, nil
}

// ObserveOpening records opening lines that are still unset. Captured
// rows are left alone.
func (s *GameResultStore) ObserveOpening(_ context.Context, gameID string, spread, total *float64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, err := s.lockedRow(gameID)
	if err != nil {
		return err
	}
	if r.Lines.Captured.Finalized() {
		return nil
	}
	if r.Lines.OpeningSpread == nil {
		r.Lines.OpeningSpread = spread
	}
	if r.Lines.OpeningTotal == nil {
		r.Lines.OpeningTotal = total
	}
	s.db.results[gameID] = r
	return nil
}

// CaptureLines writes the closing lines once. An opening line observed
// earlier wins over the one passed in.
func (s *GameResultStore) CaptureLines(_ context.Context, gameID string, lines domain.LineCapture) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, err := s.lockedRow(gameID)
	if err != nil {
		return false, err
	}
	if r.Lines.Captured.Finalized() {
		return false, nil
	}
	if r.Lines.OpeningSpread != nil {
		lines.OpeningSpread = r.Lines.OpeningSpread
	}
	if r.Lines.OpeningTotal != nil {
		lines.OpeningTotal = r.Lines.OpeningTotal
	}
	r.Lines = lines
	s.db.results[gameID] = r
	return true, nil
}

// SaveOutcome writes the graded outcome once.
func (s *GameResultStore) SaveOutcome(_ context.Context, gameID string, outcome domain.GradedOutcome) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.results[gameID]
	if !ok {
		return false, fmt.Errorf("memory: game result %s: %w", gameID, domain.ErrNotFound)
	}
	if r.Outcome.Graded.Finalized() {
		return false, nil
	}
	r.Outcome = outcome
	s.db.results[gameID] = r
	return true, nil
}

// ListGradedForTeam returns graded games where team played either side.
func (s *GameResultStore) ListGradedForTeam(_ context.Context, team string) ([]domain.GameWithResult, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []domain.GameWithResult
	for id, r := range s.db.results {
		if !r.Outcome.Graded.Finalized() {
			continue
		}
		g, ok := s.db.games[id]
		if !ok || (g.HomeAbbr != team && g.AwayAbbr != team) {
			continue
		}
		out = append(out, domain.GameWithResult{Game: g, Result: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Game.StartsAt.Before(out[j].Game.StartsAt) })
	return out, nil
}

// lockedRow returns the row for gameID, creating it lazily. The parent
// game must exist. Callers hold the write lock.
func (s *GameResultStore) lockedRow(gameID string) (domain.GameResult, error) {
	if r, ok := s.db.results[gameID]; ok {
		return r, nil
	}
	if _, ok := s.db.games[gameID]; !ok {
		return domain.GameResult{}, fmt.Errorf("memory: game %s: %w", gameID, domain.ErrNotFound)
	}
	return domain.GameResult{ID: uuid.NewString(), GameID: gameID}, nil
}

var _ domain.GameResultStore = (*GameResultStore)(nil)
