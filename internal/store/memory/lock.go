package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// LockManager is a process-local domain.LockManager used when Redis is not
// configured.
type LockManager struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{held: make(map[string]time.Time), clock: time.Now}
}

// Acquire takes key for ttl or returns domain.ErrLockHeld.
func (l *LockManager) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, fmt.Errorf("memory: lock %s: %w", key, domain.ErrLockHeld)
	}
	exp := now.Add(ttl)
	l.held[key] = exp
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(exp) {
			delete(l.held, key)
		}
	}, nil
}

var _ domain.LockManager = (*LockManager)(nil)
