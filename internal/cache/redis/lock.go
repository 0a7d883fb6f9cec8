package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// unlockLua deletes the lock only while it still holds the caller's token,
// so an expired holder never releases a successor's lock.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

const unlockTimeout = 5 * time.Second

// LockManager implements domain.LockManager with SET NX plus a token
// checked on release. The grading service takes one lock per game so a
// single writer computes each outcome.
type LockManager struct {
	rdb    *redis.Client
	unlock *redis.Script
}

// NewLockManager creates a LockManager backed by c.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{rdb: c.Underlying(), unlock: redis.NewScript(unlockLua)}
}

// Acquire takes key for ttl. It returns domain.ErrLockHeld when another
// holder has it. The returned release func is idempotent.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := lm.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, domain.External("redis: acquire lock "+key, err)
	}
	if !ok {
		return nil, fmt.Errorf("redis: lock %s: %w", key, domain.ErrLockHeld)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done.
			ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
			defer cancel()
			_ = lm.unlock.Run(ctx, lm.rdb, []string{key}, token).Err()
		})
	}, nil
}

var _ domain.LockManager = (*LockManager)(nil)
