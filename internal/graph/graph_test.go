package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		URL:             srv.URL,
		User:            "neo4j",
		Password:        "secret",
		Timeout:         2 * time.Second,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	}, discard())
}

func TestClientQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/db/neo4j/tx/commit", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "neo4j", user)
		assert.Equal(t, "secret", pass)

		var req txRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Statements, 1)
		assert.Equal(t, "BOS", req.Statements[0].Parameters["team"])

		_, _ = io.WriteString(w, `{"results":[{"columns":["abbr","win_pct"],"data":[{"row":["BOS",0.72]}]}],"errors":[]}`)
	})

	rows, err := c.Query(context.Background(), "MATCH (t:Team {abbr: $team}) RETURN t", map[string]any{"team": "BOS"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BOS", rows[0]["abbr"])
	assert.Equal(t, 0.72, rows[0]["win_pct"])
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusServiceUnavailable, "down"},
		{"cypher error", http.StatusOK, `{"results":[],"errors":[{"code":"Neo.ClientError.Statement.SyntaxError","message":"bad"}]}`},
		{"bad json", http.StatusOK, `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Query(context.Background(), "RETURN 1", nil)
			require.Error(t, err)
			assert.True(t, domain.IsRetryable(err))
		})
	}
}

func TestClientBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := c.Query(ctx, "RETURN 1", nil)
		require.Error(t, err)
		assert.True(t, domain.IsRetryable(err))
	}
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, "open", c.State())
}

type fakeQuerier struct {
	rows []Row
	err  error
	last map[string]any
}

func (f *fakeQuerier) Query(_ context.Context, _ string, params map[string]any) ([]Row, error) {
	f.last = params
	return f.rows, f.err
}

func TestLookupTeamMetrics(t *testing.T) {
	t.Run("missing team degrades to defaults", func(t *testing.T) {
		l := NewLookup(&fakeQuerier{})
		m, err := l.TeamMetrics(context.Background(), "XXX")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultTeamMetrics("XXX"), m)
		assert.False(t, m.Known)
	})

	t.Run("partial row fills defaults", func(t *testing.T) {
		q := &fakeQuerier{rows: []Row{{"win_pct": 0.65, "net_rtg": 7.5, "off_rtg": nil, "flow_state": "hot_streak"}}}
		m, err := NewLookup(q).TeamMetrics(context.Background(), "OKC")
		require.NoError(t, err)
		assert.Equal(t, "OKC", q.last["team"])
		assert.True(t, m.Known)
		assert.Equal(t, 0.65, m.WinPct)
		assert.Equal(t, 7.5, m.NetRating)
		assert.Equal(t, domain.DefaultRating, m.OffRating)
		assert.Equal(t, domain.DefaultPace, m.Pace)
		assert.Equal(t, domain.FlowHotStreak, m.Flow)
	})

	t.Run("errors pass through", func(t *testing.T) {
		boom := domain.External("graph: post", errors.New("refused"))
		_, err := NewLookup(&fakeQuerier{err: boom}).TeamMetrics(context.Background(), "BOS")
		assert.ErrorIs(t, err, boom)
	})
}

func TestLookupTeamRanks(t *testing.T) {
	q := &fakeQuerier{rows: []Row{{"off_rank": 27.0, "def_rank": nil, "pace_rank": 3.0}}}
	r, err := NewLookup(q).TeamRanks(context.Background(), "DET")
	require.NoError(t, err)
	assert.True(t, r.Known)
	assert.Equal(t, 27, r.OffRank)
	assert.Equal(t, domain.DefaultRank, r.DefRank)
	assert.Equal(t, 3, r.PaceRank)

	r, err = NewLookup(&fakeQuerier{}).TeamRanks(context.Background(), "DET")
	require.NoError(t, err)
	assert.False(t, r.Known)
}

type memCache struct {
	metrics map[string]domain.TeamMetrics
	ranks   map[string]domain.TeamRanks
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{metrics: map[string]domain.TeamMetrics{}, ranks: map[string]domain.TeamRanks{}}
}

func (c *memCache) GetMetrics(_ context.Context, team string) (domain.TeamMetrics, error) {
	if c.getErr != nil {
		return domain.TeamMetrics{}, c.getErr
	}
	m, ok := c.metrics[team]
	if !ok {
		return domain.TeamMetrics{}, domain.ErrNotFound
	}
	return m, nil
}

func (c *memCache) SetMetrics(_ context.Context, m domain.TeamMetrics) error {
	c.metrics[m.Team] = m
	return nil
}

func (c *memCache) GetRanks(_ context.Context, team string) (domain.TeamRanks, error) {
	if c.getErr != nil {
		return domain.TeamRanks{}, c.getErr
	}
	r, ok := c.ranks[team]
	if !ok {
		return domain.TeamRanks{}, domain.ErrNotFound
	}
	return r, nil
}

func (c *memCache) SetRanks(_ context.Context, r domain.TeamRanks) error {
	c.ranks[r.Team] = r
	return nil
}

type countingSource struct {
	metrics map[string]domain.TeamMetrics
	calls   int
}

func (s *countingSource) TeamMetrics(_ context.Context, team string) (domain.TeamMetrics, error) {
	s.calls++
	if m, ok := s.metrics[team]; ok {
		return m, nil
	}
	return domain.DefaultTeamMetrics(team), nil
}

func (s *countingSource) TeamRanks(_ context.Context, team string) (domain.TeamRanks, error) {
	s.calls++
	return domain.DefaultTeamRanks(team), nil
}

func TestCachedLookup(t *testing.T) {
	ctx := context.Background()
	bos := domain.TeamMetrics{Team: "BOS", WinPct: 0.7, Known: true}

	t.Run("reads through once", func(t *testing.T) {
		src := &countingSource{metrics: map[string]domain.TeamMetrics{"BOS": bos}}
		cl := NewCachedLookup(src, newMemCache(), discard())

		for i := 0; i < 3; i++ {
			m, err := cl.TeamMetrics(ctx, "BOS")
			require.NoError(t, err)
			assert.Equal(t, bos, m)
		}
		assert.Equal(t, 1, src.calls)
	})

	t.Run("defaults are not cached", func(t *testing.T) {
		src := &countingSource{}
		cache := newMemCache()
		cl := NewCachedLookup(src, cache, discard())

		_, err := cl.TeamMetrics(ctx, "NOP")
		require.NoError(t, err)
		_, err = cl.TeamRanks(ctx, "NOP")
		require.NoError(t, err)
		assert.Empty(t, cache.metrics)
		assert.Empty(t, cache.ranks)
	})

	t.Run("cache outage falls back to source", func(t *testing.T) {
		src := &countingSource{metrics: map[string]domain.TeamMetrics{"BOS": bos}}
		cache := newMemCache()
		cache.getErr = domain.External("redis: get", errors.New("down"))
		cl := NewCachedLookup(src, cache, discard())

		m, err := cl.TeamMetrics(ctx, "BOS")
		require.NoError(t, err)
		assert.Equal(t, bos, m)
	})
}
