package domain

import (
	"context"
	"time"
)

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StreamMessage represents a single entry from a Redis stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// EventBus provides pub/sub and durable streams for engine events.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// MetricsCache keeps recently resolved team metrics and ranks.
type MetricsCache interface {
	GetMetrics(ctx context.Context, team string) (TeamMetrics, error)
	SetMetrics(ctx context.Context, m TeamMetrics) error
	GetRanks(ctx context.Context, team string) (TeamRanks, error)
	SetRanks(ctx context.Context, r TeamRanks) error
}

// Event channels published on the EventBus.
const (
	ChannelEdges     = "courtedge:edges"
	ChannelGraded    = "courtedge:graded"
	ChannelTriggers  = "courtedge:triggers"
	ChannelWeights   = "courtedge:weights"
	StreamEngineLogs = "courtedge:stream:events"
)
