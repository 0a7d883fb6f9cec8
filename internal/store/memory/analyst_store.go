package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// AnalystPickStore implements domain.AnalystPickStore in memory.
type AnalystPickStore struct {
	db *DB
}

// NewAnalystPickStore creates an AnalystPickStore over db.
func NewAnalystPickStore(db *DB) *AnalystPickStore {
	return &AnalystPickStore{db: db}
}

func analystKey(pickID string, a domain.Analyst) string {
	return pickID + "|" + string(a)
}

// FindOrCreate returns the existing row for (pick, analyst) or inserts ap.
func (s *AnalystPickStore) FindOrCreate(_ context.Context, ap domain.AnalystPick) (domain.AnalystPick, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.picks[ap.PickID]; !ok {
		return domain.AnalystPick{}, false, fmt.Errorf("memory: analyst pick parent %s: %w", ap.PickID, domain.ErrNotFound)
	}
	key := analystKey(ap.PickID, ap.Analyst)
	if existing, ok := s.db.analystPicks[key]; ok {
		return existing, false, nil
	}
	if ap.ID == "" {
		ap.ID = uuid.NewString()
	}
	if ap.CreatedAt.IsZero() {
		ap.CreatedAt = time.Now().UTC()
	}
	s.db.analystPicks[key] = ap
	return ap, true, nil
}

// ListByPick returns the analyst picks for pickID in analyst order.
func (s *AnalystPickStore) ListByPick(_ context.Context, pickID string) ([]domain.AnalystPick, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []domain.AnalystPick
	for _, ap := range s.db.analystPicks {
		if ap.PickID == pickID {
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Analyst < out[j].Analyst })
	return out, nil
}

// MarkEvaluated sets correctness once.
func (s *AnalystPickStore) MarkEvaluated(_ context.Context, id string, correct bool, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for key, ap := range s.db.analystPicks {
		if ap.ID != id {
			continue
		}
		if !ap.Evaluated.Finalize(at) {
			return false, nil
		}
		ap.Correct = &correct
		s.db.analystPicks[key] = ap
		return true, nil
	}
	return false, fmt.Errorf("memory: analyst pick %s: %w", id, domain.ErrNotFound)
}

// CountEvaluated counts evaluated picks whose parent was published inside
// the window.
func (s *AnalystPickStore) CountEvaluated(_ context.Context, analyst domain.Analyst, from, to *time.Time) (int, int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var correct, total int
	for _, ap := range s.db.analystPicks {
		if ap.Analyst != analyst || !ap.Evaluated.Finalized() || ap.Correct == nil {
			continue
		}
		if !inWindow(s.db.picks[ap.PickID].PublishedAt, from, to) {
			continue
		}
		total++
		if *ap.Correct {
			correct++
		}
	}
	return correct, total, nil
}

// AnalystWeightStore implements domain.AnalystWeightStore in memory.
type AnalystWeightStore struct {
	db *DB
}

// NewAnalystWeightStore creates an AnalystWeightStore over db.
func NewAnalystWeightStore(db *DB) *AnalystWeightStore {
	return &AnalystWeightStore{db: db}
}

// List returns every weight row ordered by analyst.
func (s *AnalystWeightStore) List(_ context.Context) ([]domain.AnalystWeight, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]domain.AnalystWeight, 0, len(s.db.weights))
	for _, w := range s.db.weights {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Analyst < out[j].Analyst })
	return out, nil
}

// Upsert replaces the row for w.Analyst.
func (s *AnalystWeightStore) Upsert(_ context.Context, w domain.AnalystWeight) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = time.Now().UTC()
	}
	s.db.weights[w.Analyst] = w
	return nil
}

var (
	_ domain.AnalystPickStore   = (*AnalystPickStore)(nil)
	_ domain.AnalystWeightStore = (*AnalystWeightStore)(nil)
)
