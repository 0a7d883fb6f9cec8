package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// PredictionStore implements domain.PredictionStore in memory.
type PredictionStore struct {
	db *DB
}

// NewPredictionStore creates a PredictionStore over db.
func NewPredictionStore(db *DB) *PredictionStore {
	return &PredictionStore{db: db}
}

// CreateIfAbsent inserts p unless its (game, team, trigger) key exists.
func (s *PredictionStore) CreateIfAbsent(_ context.Context, p domain.WeaknessPrediction) (domain.WeaknessPrediction, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.games[p.GameID]; !ok {
		return domain.WeaknessPrediction{}, false, fmt.Errorf("memory: prediction game %s: %w", p.GameID, domain.ErrNotFound)
	}
	if existing, ok := s.db.predictions[p.Key()]; ok {
		return existing, false, nil
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.db.predictions[p.Key()] = p
	return p, true, nil
}

// ListByGame returns the predictions for gameID.
func (s *PredictionStore) ListByGame(_ context.Context, gameID string) ([]domain.WeaknessPrediction, error) {
	return s.filter(func(p domain.WeaknessPrediction) bool { return p.GameID == gameID }), nil
}

// MarkEvaluated records the actual outcome once.
func (s *PredictionStore) MarkEvaluated(_ context.Context, id string, actual domain.Outcome, hit bool, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for key, p := range s.db.predictions {
		if p.ID != id {
			continue
		}
		if !p.Evaluated.Finalize(at) {
			return false, nil
		}
		p.ActualOutcome = actual
		p.Hit = &hit
		s.db.predictions[key] = p
		return true, nil
	}
	return false, fmt.Errorf("memory: prediction %s: %w", id, domain.ErrNotFound)
}

// ListAll returns every prediction ordered by trigger time.
func (s *PredictionStore) ListAll(_ context.Context) ([]domain.WeaknessPrediction, error) {
	return s.filter(func(domain.WeaknessPrediction) bool { return true }), nil
}

func (s *PredictionStore) filter(keep func(domain.WeaknessPrediction) bool) []domain.WeaknessPrediction {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []domain.WeaknessPrediction
	for _, p := range s.db.predictions {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TriggeredAt.Equal(out[j].TriggeredAt) {
			return out[i].TriggeredAt.Before(out[j].TriggeredAt)
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

var _ domain.PredictionStore = (*PredictionStore)(nil)
