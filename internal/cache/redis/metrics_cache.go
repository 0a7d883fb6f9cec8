package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// DefaultMetricsTTL is how long resolved team metrics stay cached.
const DefaultMetricsTTL = 15 * time.Minute

// MetricsCache implements domain.MetricsCache. Each entry is a hash with a
// JSON "data" field:
//
//	courtedge:team:metrics:{team}
//	courtedge:team:ranks:{team}
type MetricsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMetricsCache creates a MetricsCache backed by c. A non-positive ttl
// uses DefaultMetricsTTL.
func NewMetricsCache(c *Client, ttl time.Duration) *MetricsCache {
	if ttl <= 0 {
		ttl = DefaultMetricsTTL
	}
	return &MetricsCache{rdb: c.Underlying(), ttl: ttl}
}

func metricsKey(team string) string { return keyPrefix + "team:metrics:" + team }
func ranksKey(team string) string   { return keyPrefix + "team:ranks:" + team }

// GetMetrics returns cached metrics or domain.ErrNotFound.
func (mc *MetricsCache) GetMetrics(ctx context.Context, team string) (domain.TeamMetrics, error) {
	var m domain.TeamMetrics
	if err := mc.get(ctx, metricsKey(team), &m); err != nil {
		return domain.TeamMetrics{}, err
	}
	return m, nil
}

// SetMetrics caches m for the configured TTL.
func (mc *MetricsCache) SetMetrics(ctx context.Context, m domain.TeamMetrics) error {
	return mc.set(ctx, metricsKey(m.Team), m)
}

// GetRanks returns cached ranks or domain.ErrNotFound.
func (mc *MetricsCache) GetRanks(ctx context.Context, team string) (domain.TeamRanks, error) {
	var r domain.TeamRanks
	if err := mc.get(ctx, ranksKey(team), &r); err != nil {
		return domain.TeamRanks{}, err
	}
	return r, nil
}

// SetRanks caches r for the configured TTL.
func (mc *MetricsCache) SetRanks(ctx context.Context, r domain.TeamRanks) error {
	return mc.set(ctx, ranksKey(r.Team), r)
}

func (mc *MetricsCache) get(ctx context.Context, key string, v any) error {
	data, err := mc.rdb.HGet(ctx, key, "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis: %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return domain.External("redis: get "+key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return nil
}

func (mc *MetricsCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", key, err)
	}
	pipe := mc.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, mc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.External("redis: set "+key, err)
	}
	return nil
}

var _ domain.MetricsCache = (*MetricsCache)(nil)
