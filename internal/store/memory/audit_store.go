package memory

import (
	"context"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// AuditStore implements domain.AuditStore in memory.
type AuditStore struct {
	db *DB
}

// NewAuditStore creates an AuditStore over db.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// Log appends an audit entry.
func (s *AuditStore) Log(_ context.Context, event string, detail map[string]any) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.audit = append(s.db.audit, domain.AuditEntry{
		ID:        int64(len(s.db.audit) + 1),
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// List returns entries newest first.
func (s *AuditStore) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []domain.AuditEntry
	for i := len(s.db.audit) - 1; i >= 0; i-- {
		e := s.db.audit[i]
		if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.CreatedAt.After(*opts.Until) {
			continue
		}
		out = append(out, e)
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

var _ domain.AuditStore = (*AuditStore)(nil)
