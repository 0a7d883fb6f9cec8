package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// RateLimiter implements domain.RateLimiter with fixed windows: one INCR
// counter per key and window, expiring with the window.
type RateLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRateLimiter creates a RateLimiter backed by c.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{rdb: c.Underlying(), now: time.Now}
}

func (rl *RateLimiter) windowKey(key string, window time.Duration) string {
	bucket := rl.now().UnixNano() / int64(window)
	return keyPrefix + "ratelimit:" + key + ":" + strconv.FormatInt(bucket, 10)
}

// Allow counts one request for key and reports whether it is within limit
// for the current window.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window <= 0 || limit <= 0 {
		return true, nil
	}
	k := rl.windowKey(key, window)
	n, err := rl.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, domain.External("redis: rate limit "+key, err)
	}
	if n == 1 {
		if err := rl.rdb.Expire(ctx, k, window).Err(); err != nil {
			return false, domain.External("redis: rate limit expire "+key, err)
		}
	}
	return n <= int64(limit), nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)
