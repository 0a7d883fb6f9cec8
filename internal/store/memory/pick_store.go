package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// PickStore implements domain.PickStore in memory.
type PickStore struct {
	db *DB
}

// NewPickStore creates a PickStore over db.
func NewPickStore(db *DB) *PickStore {
	return &PickStore{db: db}
}

// Create inserts a new pick. An empty ID is assigned.
func (s *PickStore) Create(_ context.Context, p domain.Pick) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := s.db.picks[p.ID]; ok {
		return fmt.Errorf("memory: pick %s: %w", p.ID, domain.ErrAlreadyExists)
	}
	if _, ok := s.db.games[p.GameID]; !ok {
		return fmt.Errorf("memory: pick %s game %s: %w", p.ID, p.GameID, domain.ErrNotFound)
	}
	if p.Result == "" {
		p.Result = domain.ResultPending
	}
	if p.Status == "" {
		p.Status = domain.PickDraft
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.db.picks[p.ID] = p
	return nil
}

// GetByID returns the pick with id.
func (s *PickStore) GetByID(_ context.Context, id string) (domain.Pick, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	p, ok := s.db.picks[id]
	if !ok {
		return domain.Pick{}, fmt.Errorf("memory: pick %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// Publish moves a draft pick to published.
func (s *PickStore) Publish(_ context.Context, id string, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.picks[id]
	if !ok {
		return false, fmt.Errorf("memory: pick %s: %w", id, domain.ErrNotFound)
	}
	if !p.Publish(at) {
		return false, nil
	}
	s.db.picks[id] = p
	return true, nil
}

// RecordResult stores the graded result once.
func (s *PickStore) RecordResult(_ context.Context, p domain.Pick) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.picks[p.ID]
	if !ok {
		return false, fmt.Errorf("memory: pick %s: %w", p.ID, domain.ErrNotFound)
	}
	if stored.Recorded.Finalized() {
		return false, nil
	}
	s.db.picks[p.ID] = withResult(stored, p)
	return true, nil
}

// CorrectResult overwrites the recorded result.
func (s *PickStore) CorrectResult(_ context.Context, p domain.Pick) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.picks[p.ID]
	if !ok {
		return fmt.Errorf("memory: pick %s: %w", p.ID, domain.ErrNotFound)
	}
	s.db.picks[p.ID] = withResult(stored, p)
	return nil
}

func withResult(stored, p domain.Pick) domain.Pick {
	stored.Result = p.Result
	stored.HomeScore = p.HomeScore
	stored.AwayScore = p.AwayScore
	stored.ResultNote = p.ResultNote
	stored.Recorded = p.Recorded
	return stored
}

// ListPendingPublished returns published picks with no recorded result.
func (s *PickStore) ListPendingPublished(_ context.Context) ([]domain.Pick, error) {
	return s.filter(func(p domain.Pick) bool {
		return p.Status == domain.PickPublished && !p.Recorded.Finalized()
	}), nil
}

// ListGraded returns picks with a final result matching f. The time window
// applies to published_at.
func (s *PickStore) ListGraded(_ context.Context, f domain.PickFilter) ([]domain.Pick, error) {
	return s.filter(func(p domain.Pick) bool {
		if !p.Recorded.Finalized() || !p.Result.Graded() {
			return false
		}
		if f.Type != "" && p.Type != f.Type {
			return false
		}
		if f.Consensus != "" && p.Consensus != f.Consensus {
			return false
		}
		if f.GameID != "" && p.GameID != f.GameID {
			return false
		}
		return inWindow(p.PublishedAt, f.Since, f.Until)
	}), nil
}

func (s *PickStore) filter(keep func(domain.Pick) bool) []domain.Pick {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []domain.Pick
	for _, p := range s.db.picks {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// inWindow reports whether t lies in [since, until]. Without a window any
// t matches; with one, a missing t never does.
func inWindow(t, since, until *time.Time) bool {
	if since == nil && until == nil {
		return true
	}
	if t == nil {
		return false
	}
	if since != nil && t.Before(*since) {
		return false
	}
	if until != nil && t.After(*until) {
		return false
	}
	return true
}

var _ domain.PickStore = (*PickStore)(nil)
