package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Source is a combined metric and rank lookup.
type Source interface {
	domain.MetricLookup
	domain.RankLookup
}

// CachedLookup reads through a domain.MetricsCache. Cache failures are
// logged and fall back to the source; they never fail a lookup.
type CachedLookup struct {
	src    Source
	cache  domain.MetricsCache
	logger *slog.Logger
}

// NewCachedLookup wraps src with cache.
func NewCachedLookup(src Source, cache domain.MetricsCache, logger *slog.Logger) *CachedLookup {
	return &CachedLookup{
		src:    src,
		cache:  cache,
		logger: logger.With(slog.String("component", "metrics_cache")),
	}
}

// TeamMetrics implements domain.MetricLookup.
func (c *CachedLookup) TeamMetrics(ctx context.Context, team string) (domain.TeamMetrics, error) {
	m, err := c.cache.GetMetrics(ctx, team)
	if err == nil {
		return m, nil
	}
	c.cacheMiss(ctx, "get metrics", team, err)

	m, err = c.src.TeamMetrics(ctx, team)
	if err != nil {
		return domain.TeamMetrics{}, err
	}
	// Defaults are not cached so a team added later shows up at once.
	if m.Known {
		if err := c.cache.SetMetrics(ctx, m); err != nil {
			c.cacheMiss(ctx, "set metrics", team, err)
		}
	}
	return m, nil
}

// TeamRanks implements domain.RankLookup.
func (c *CachedLookup) TeamRanks(ctx context.Context, team string) (domain.TeamRanks, error) {
	r, err := c.cache.GetRanks(ctx, team)
	if err == nil {
		return r, nil
	}
	c.cacheMiss(ctx, "get ranks", team, err)

	r, err = c.src.TeamRanks(ctx, team)
	if err != nil {
		return domain.TeamRanks{}, err
	}
	if r.Known {
		if err := c.cache.SetRanks(ctx, r); err != nil {
			c.cacheMiss(ctx, "set ranks", team, err)
		}
	}
	return r, nil
}

func (c *CachedLookup) cacheMiss(ctx context.Context, op, team string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	c.logger.WarnContext(ctx, "metrics cache unavailable",
		slog.String("op", op),
		slog.String("team", team),
		slog.String("error", err.Error()),
	)
}

var _ Source = (*CachedLookup)(nil)
