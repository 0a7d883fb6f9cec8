package consensus

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/store/memory"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	svc          *Service
	picks        *memory.PickStore
	analystPicks *memory.AnalystPickStore
	weights      *memory.AnalystWeightStore
}

func newFixture(t *testing.T, cfg Config) fixture {
	t.Helper()
	db := memory.New()
	require.NoError(t, memory.NewGameStore(db).Upsert(context.Background(), domain.Game{ID: "g1", HomeAbbr: "BOS", AwayAbbr: "NYK"}))
	f := fixture{
		picks:        memory.NewPickStore(db),
		analystPicks: memory.NewAnalystPickStore(db),
		weights:      memory.NewAnalystWeightStore(db),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(f.weights, f.analystPicks, f.picks, memory.NewAuditStore(db), nil, cfg, logger)
	return f
}

// gradedPick stores a published pick with a recorded result.
func (f fixture) gradedPick(t *testing.T, id string, typ domain.PickType, side domain.PickSide, result domain.PickResult, published time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.picks.Create(ctx, domain.Pick{ID: id, GameID: "g1", Type: typ, Side: side, Line: ptr(-2.5)}))
	_, err := f.picks.Publish(ctx, id, published)
	require.NoError(t, err)
	p, err := f.picks.GetByID(ctx, id)
	require.NoError(t, err)
	p.Result = result
	p.Recorded.Finalize(published.Add(4 * time.Hour))
	_, err = f.picks.RecordResult(ctx, p)
	require.NoError(t, err)
}

func calls(sides map[domain.Analyst]domain.Direction) map[domain.Analyst]domain.AnalystCall {
	out := make(map[domain.Analyst]domain.AnalystCall, len(sides))
	for a, s := range sides {
		out[a] = domain.AnalystCall{Side: s}
	}
	return out
}

func TestRecordAnalystPicks_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	require.NoError(t, f.picks.Create(ctx, domain.Pick{ID: "p1", GameID: "g1"}))

	first, err := f.svc.RecordAnalystPicks(ctx, "p1", calls(map[domain.Analyst]domain.Direction{
		domain.AnalystSharp: domain.Home,
		domain.AnalystScout: domain.Away,
	}))
	require.NoError(t, err)
	require.Len(t, first, 2)

	again, err := f.svc.RecordAnalystPicks(ctx, "p1", calls(map[domain.Analyst]domain.Direction{
		domain.AnalystSharp: domain.Away,
	}))
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, domain.Home, again[0].Side)

	_, err = f.svc.RecordAnalystPicks(ctx, "p1", map[domain.Analyst]domain.AnalystCall{
		domain.AnalystSystem: {Side: "OVER"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPick)

	_, err = f.svc.RecordAnalystPicks(ctx, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvaluateAnalystPicks(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	f := newFixture(t, Config{})
	sides := map[domain.Analyst]domain.Direction{
		domain.AnalystSharp:      domain.Home,
		domain.AnalystContrarian: domain.Away,
	}

	tests := []struct {
		name        string
		side        domain.PickSide
		result      domain.PickResult
		typ         domain.PickType
		wantCount   int
		wantCorrect map[domain.Analyst]bool
	}{
		{"home win", domain.SideHome, domain.ResultWin, domain.PickSpread, 2,
			map[domain.Analyst]bool{domain.AnalystSharp: true, domain.AnalystContrarian: false}},
		{"home loss", domain.SideHome, domain.ResultLoss, domain.PickSpread, 2,
			map[domain.Analyst]bool{domain.AnalystSharp: false, domain.AnalystContrarian: true}},
		{"away loss", domain.SideAway, domain.ResultLoss, domain.PickMoneyline, 2,
			map[domain.Analyst]bool{domain.AnalystSharp: true, domain.AnalystContrarian: false}},
		{"push", domain.SideHome, domain.ResultPush, domain.PickSpread, 0, nil},
		{"total pick", domain.SideOver, domain.ResultWin, domain.PickTotal, 0, nil},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := string(rune('a' + i))
			f.gradedPick(t, id, tt.typ, tt.side, tt.result, now)
			_, err := f.svc.RecordAnalystPicks(ctx, id, calls(sides))
			require.NoError(t, err)

			n, err := f.svc.EvaluateAnalystPicks(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, n)

			aps, err := f.analystPicks.ListByPick(ctx, id)
			require.NoError(t, err)
			for _, ap := range aps {
				want, ok := tt.wantCorrect[ap.Analyst]
				if !ok {
					assert.Nil(t, ap.Correct)
					continue
				}
				require.NotNil(t, ap.Correct)
				assert.Equal(t, want, *ap.Correct)
			}

			n, err = f.svc.EvaluateAnalystPicks(ctx, id)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestEvaluateAnalystPicks_NotRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	require.NoError(t, f.picks.Create(ctx, domain.Pick{ID: "p1", GameID: "g1", Side: domain.SideHome}))

	_, err := f.svc.EvaluateAnalystPicks(ctx, "p1")
	assert.True(t, domain.IsNotReady(err))
}

func TestAccuracyAndRecalibrate(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	f := newFixture(t, Config{MinSample: 3, Window: 30 * 24 * time.Hour})

	// SHARP: 3 of 4 correct inside the window, one miss long ago.
	// SCOUT: 1 of 2, below the minimum sample.
	for i, res := range []domain.PickResult{domain.ResultWin, domain.ResultWin, domain.ResultWin, domain.ResultLoss} {
		id := "recent" + string(rune('0'+i))
		f.gradedPick(t, id, domain.PickSpread, domain.SideHome, res, now.Add(-time.Duration(i+1)*24*time.Hour))
		picked := map[domain.Analyst]domain.Direction{domain.AnalystSharp: domain.Home}
		if i < 2 {
			picked[domain.AnalystScout] = domain.Away
		}
		_, err := f.svc.RecordAnalystPicks(ctx, id, calls(picked))
		require.NoError(t, err)
		_, err = f.svc.EvaluateAnalystPicks(ctx, id)
		require.NoError(t, err)
	}
	f.gradedPick(t, "old", domain.PickSpread, domain.SideHome, domain.ResultLoss, now.Add(-90*24*time.Hour))
	_, err := f.svc.RecordAnalystPicks(ctx, "old", calls(map[domain.Analyst]domain.Direction{domain.AnalystSharp: domain.Home}))
	require.NoError(t, err)
	_, err = f.svc.EvaluateAnalystPicks(ctx, "old")
	require.NoError(t, err)

	all, err := f.svc.Accuracy(ctx, domain.AnalystSharp, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, all)
	assert.Equal(t, 5, all.Total)
	assert.Equal(t, 0.6, all.Accuracy)

	none, err := f.svc.Accuracy(ctx, domain.AnalystSystem, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = f.svc.EnsureSeeded(ctx)
	require.NoError(t, err)

	updated, err := f.svc.Recalibrate(ctx)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, domain.AnalystSharp, updated[0].Analyst)
	assert.Equal(t, 0.75, *updated[0].Accuracy)
	assert.Equal(t, 1.0, *updated[0].Weight)
	assert.Equal(t, domain.SignalMain, updated[0].Signal)
	assert.Equal(t, 4, updated[0].SampleSize)

	ws, err := f.svc.Weights(ctx)
	require.NoError(t, err)
	for _, w := range ws {
		if w.Analyst == domain.AnalystScout {
			assert.Equal(t, 0.0, *w.Weight, "below min sample keeps the seed")
		}
	}
}

func TestRecommend_FallsBackToSeeds(t *testing.T) {
	f := newFixture(t, Config{})
	rec, err := f.svc.Recommend(context.Background(), map[domain.Analyst]domain.Direction{
		domain.AnalystContrarian: domain.Away,
		domain.AnalystSharp:      domain.Home,
	})
	require.NoError(t, err)
	assert.Equal(t, RecommendAway, rec.Recommendation)
	assert.Equal(t, -1.5, rec.Diff)
	assert.Equal(t, ConfidenceMedium, rec.Confidence)
}
