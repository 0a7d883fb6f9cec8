package performance

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

func pick(t domain.PickType, r domain.PickResult, stake *float64) domain.Pick {
	return domain.Pick{Type: t, Result: r, Stake: stake}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		picks []domain.Pick
		want  Stats
	}{
		{
			name:  "empty",
			picks: nil,
			want:  Stats{},
		},
		{
			name: "pending only",
			picks: []domain.Pick{
				pick(domain.PickSpread, domain.ResultPending, nil),
			},
			want: Stats{},
		},
		{
			name: "default stakes",
			picks: []domain.Pick{
				pick(domain.PickSpread, domain.ResultWin, nil),
				pick(domain.PickSpread, domain.ResultWin, nil),
				pick(domain.PickTotal, domain.ResultLoss, nil),
				pick(domain.PickTotal, domain.ResultPush, nil),
			},
			want: Stats{
				Total: 4, Wins: 2, Losses: 1, Pushes: 1,
				WinRate: 66.7, NetUnits: 1, ROI: 25,
				Staked: 4, UnitsWon: 2, UnitsLost: 1,
			},
		},
		{
			name: "weighted stakes",
			picks: []domain.Pick{
				pick(domain.PickSpread, domain.ResultWin, ptr(2.0)),
				pick(domain.PickSpread, domain.ResultLoss, ptr(0.5)),
				pick(domain.PickSpread, domain.ResultLoss, nil),
			},
			want: Stats{
				Total: 3, Wins: 1, Losses: 2,
				WinRate: 33.3, NetUnits: 0.5, ROI: 14.3,
				Staked: 3.5, UnitsWon: 2, UnitsLost: 1.5,
			},
		},
		{
			name: "all pushes",
			picks: []domain.Pick{
				pick(domain.PickTotal, domain.ResultPush, nil),
				pick(domain.PickTotal, domain.ResultPush, nil),
			},
			want: Stats{Total: 2, Pushes: 2, Staked: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.picks))
		})
	}
}

func TestByPickType(t *testing.T) {
	got := ByPickType([]domain.Pick{
		pick(domain.PickSpread, domain.ResultWin, nil),
		pick(domain.PickMoneyline, domain.ResultLoss, nil),
	})
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[domain.PickSpread].Wins)
	assert.Equal(t, 1, got[domain.PickMoneyline].Losses)
	assert.Equal(t, Stats{}, got[domain.PickTotal])
}

func TestByConsensus(t *testing.T) {
	a := pick(domain.PickSpread, domain.ResultWin, nil)
	a.Consensus = "4/5"
	b := pick(domain.PickSpread, domain.ResultLoss, nil)
	b.Consensus = "3/5"
	c := pick(domain.PickSpread, domain.ResultWin, nil)
	c.Consensus = "4/5"
	unlabeled := pick(domain.PickSpread, domain.ResultWin, nil)

	got := ByConsensus([]domain.Pick{a, b, c, unlabeled})
	assert.Equal(t, []string{"3/5", "4/5"}, Keys(got))
	assert.Equal(t, 2, got["4/5"].Wins)
	assert.InDelta(t, 100.0, got["4/5"].WinRate, 1e-9)
	assert.Equal(t, 1, got["3/5"].Losses)
}

func TestByMonth(t *testing.T) {
	jan := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 1, 0, 0, 0, time.UTC)
	a := pick(domain.PickTotal, domain.ResultWin, nil)
	a.PublishedAt = &jan
	b := pick(domain.PickTotal, domain.ResultLoss, nil)
	b.PublishedAt = &feb
	draft := pick(domain.PickTotal, domain.ResultWin, nil)

	got := ByMonth([]domain.Pick{a, b, draft})
	assert.Equal(t, []string{"2026-01", "2026-02"}, Keys(got))
	assert.Equal(t, 1, got["2026-01"].Wins)
	assert.Equal(t, 1, got["2026-02"].Losses)
}

func graded(home, away string, spread domain.SpreadResult, total domain.TotalResult) domain.GameWithResult {
	return domain.GameWithResult{
		Game:   domain.Game{HomeAbbr: home, AwayAbbr: away},
		Result: domain.GameResult{Outcome: domain.GradedOutcome{SpreadResult: spread, TotalResult: total}},
	}
}

func TestATSRecord(t *testing.T) {
	games := []domain.GameWithResult{
		graded("BOS", "NYK", domain.SpreadHomeCovered, domain.TotalOver),
		graded("MIA", "BOS", domain.SpreadHomeCovered, domain.TotalUnder),
		graded("BOS", "DET", domain.SpreadPush, domain.TotalPush),
		graded("PHI", "BOS", domain.SpreadAwayCovered, domain.TotalOver),
		graded("LAL", "GSW", domain.SpreadHomeCovered, domain.TotalOver),
	}

	ats := ATSRecord("BOS", games)
	assert.Equal(t, ATS{Wins: 2, Losses: 1, Pushes: 1, Record: "2-1-1"}, ats)

	ou := OURecord("BOS", games)
	assert.Equal(t, OU{Overs: 2, Unders: 1, Pushes: 1, Record: "2-1-1"}, ou)

	assert.Equal(t, "0-0-0", ATSRecord("SAC", games).Record)
}

func TestService(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	games := memory.NewGameStore(db)
	results := memory.NewGameResultStore(db)
	picks := memory.NewPickStore(db)
	svc := NewService(picks, results, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, games.Upsert(ctx, domain.Game{ID: "g1", HomeAbbr: "BOS", AwayAbbr: "NYK", StartsAt: time.Now()}))
	_, err := results.CaptureLines(ctx, "g1", domain.LineCapture{ClosingSpread: ptr(-3.0), ClosingTotal: ptr(210.0)})
	require.NoError(t, err)
	outcome := domain.GradedOutcome{SpreadResult: domain.SpreadAwayCovered, TotalResult: domain.TotalOver}
	outcome.Graded.Finalize(time.Now())
	_, err = results.SaveOutcome(ctx, "g1", outcome)
	require.NoError(t, err)

	require.NoError(t, picks.Create(ctx, domain.Pick{ID: "p1", GameID: "g1", Type: domain.PickSpread, Side: domain.SideAway, Line: ptr(3.0), Consensus: "4/5"}))
	_, err = picks.Publish(ctx, "p1", time.Now())
	require.NoError(t, err)
	res := domain.Pick{ID: "p1", Result: domain.ResultWin}
	res.Recorded.Finalize(time.Now())
	_, err = picks.RecordResult(ctx, res)
	require.NoError(t, err)

	rep, err := svc.Report(ctx, domain.PickFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Overall.Wins)
	assert.Equal(t, 1, rep.ByType[domain.PickSpread].Total)
	assert.Contains(t, rep.ByConsensus, "4/5")
	assert.Len(t, rep.ByMonth, 1)

	recs, err := svc.TeamRecords(ctx, "NYK")
	require.NoError(t, err)
	assert.Equal(t, "1-0-0", recs.ATS.Record)
	assert.Equal(t, "1-0-0", recs.OU.Record)
}
