package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/notify"
	"github.com/alanyoungcy/courtedge/internal/scoring"
	"github.com/alanyoungcy/courtedge/internal/store/memory"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeScorer struct {
	board scoring.Board
	err   error
	date  time.Time
}

func (f *fakeScorer) ScoreDate(_ context.Context, date time.Time, _ ...domain.Model) (scoring.Board, error) {
	f.date = date
	return f.board, f.err
}

type memArchiver struct {
	reports map[string]string
	graded  map[string][]domain.Pick
	err     error
}

func newMemArchiver() *memArchiver {
	return &memArchiver{reports: map[string]string{}, graded: map[string][]domain.Pick{}}
}

func (a *memArchiver) ArchiveReport(_ context.Context, date time.Time, md string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	path := "reports/" + date.Format("2006/01/02") + ".md"
	a.reports[path] = md
	return path, nil
}

func (a *memArchiver) ArchiveGraded(_ context.Context, date time.Time, picks []domain.Pick) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	if len(picks) == 0 {
		return "", nil
	}
	path := "graded/" + date.Format("2006-01-02") + ".jsonl"
	a.graded[path] = picks
	return path, nil
}

type recordingBus struct {
	mu        sync.Mutex
	published map[string][][]byte
	stream    [][]byte
}

func newRecordingBus() *recordingBus { return &recordingBus{published: map[string][][]byte{}} }

func (b *recordingBus) Publish(_ context.Context, ch string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[ch] = append(b.published[ch], payload)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }

func (b *recordingBus) StreamAppend(_ context.Context, _ string, payload []byte) error {
	b.stream = append(b.stream, payload)
	return nil
}

func (b *recordingBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type recordingSender struct{ titles []string }

func (s *recordingSender) Send(_ context.Context, title, _ string) error {
	s.titles = append(s.titles, title)
	return nil
}

func (s *recordingSender) Name() string { return "rec" }

var slate = time.Date(2025, 1, 15, 19, 30, 0, 0, time.UTC)

func board() scoring.Board {
	return scoring.Board{
		domain.ModelMoneyline: {
			{Model: domain.ModelMoneyline, GameID: "g1", Home: "BOS", Away: "DET", Matchup: "DET @ BOS",
				Edge: 86, RawEdge: 86, Side: "HOME", Recommended: "BOS", Tier: domain.TierStrongBet,
				Signal: "STRONG BET", Actionable: true, Status: domain.GameScheduled},
			{Model: domain.ModelMoneyline, GameID: "g2", Home: "NYK", Away: "MIA", Matchup: "MIA @ NYK",
				Edge: 58, RawEdge: 42, Side: "AWAY", Recommended: "MIA", Tier: domain.TierPass,
				Signal: "PASS", Status: domain.GameScheduled},
		},
		domain.ModelTotal: {
			{Model: domain.ModelTotal, GameID: "g1", Home: "BOS", Away: "DET", Matchup: "DET @ BOS",
				Edge: 74, Side: "OVER", Recommended: "OVER", Tier: domain.TierBet,
				Signal: "OVER BET", Actionable: true, MarketTotal: 220.5, ExpectedTotal: 228},
		},
	}
}

func TestDailyRun(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	picks := memory.NewPickStore(db)

	yesterday := slate.AddDate(0, 0, -1)
	require.NoError(t, memory.NewGameStore(db).Upsert(ctx, domain.Game{
		ID: "g0", HomeAbbr: "LAL", AwayAbbr: "PHX", StartsAt: yesterday, Status: domain.GameScheduled,
	}))
	p := domain.Pick{ID: "p1", GameID: "g0", Type: domain.PickSpread, Side: domain.SideHome, Result: domain.ResultPending, CreatedAt: yesterday}
	require.NoError(t, picks.Create(ctx, p))
	_, err := picks.Publish(ctx, "p1", yesterday)
	require.NoError(t, err)
	p.Result = domain.ResultWin
	p.Recorded.Finalize(yesterday.Add(4 * time.Hour))
	_, err = picks.RecordResult(ctx, p)
	require.NoError(t, err)

	scorer := &fakeScorer{board: board()}
	archiver := newMemArchiver()
	bus := newRecordingBus()
	sender := &recordingSender{}
	notifier := notify.NewNotifier([]notify.Sender{sender}, nil, notify.NewDedup(time.Hour), discard())

	runner := NewDailyRunner(scorer, picks, archiver, bus, notifier, discard())
	sum, err := runner.Run(ctx, slate)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), scorer.date)
	assert.Equal(t, "2025-01-15", sum.Date)
	assert.Equal(t, 2, sum.Games)
	assert.Equal(t, 2, sum.Actionable)
	assert.Equal(t, "reports/2025/01/15.md", sum.ReportPath)
	assert.Equal(t, "graded/2025-01-14.jsonl", sum.GradedPath)
	assert.Contains(t, archiver.reports[sum.ReportPath], "DET @ BOS")
	require.Len(t, archiver.graded[sum.GradedPath], 1)

	assert.Len(t, bus.published[domain.ChannelEdges], 3)
	assert.Len(t, bus.stream, 1)

	assert.Equal(t, 2, sum.Notified)
	assert.Len(t, sender.titles, 3)
	assert.Equal(t, "CourtEdge 2025-01-15", sender.titles[2])

	// A rerun does not repeat edge alerts, only the digest.
	sum, err = runner.Run(ctx, slate)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Notified)
	assert.Len(t, sender.titles, 4)
}

func TestDailyRunScoringFailure(t *testing.T) {
	boom := domain.External("scoring: list games", errors.New("db down"))
	runner := NewDailyRunner(&fakeScorer{err: boom}, nil, nil, nil, nil, discard())

	_, err := runner.Run(context.Background(), slate)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestDailyRunArchiveFailureStillAlerts(t *testing.T) {
	archiver := newMemArchiver()
	archiver.err = domain.External("s3blob: put", errors.New("503"))
	sender := &recordingSender{}
	notifier := notify.NewNotifier([]notify.Sender{sender}, []string{notify.EventActionableEdge}, nil, discard())

	runner := NewDailyRunner(&fakeScorer{board: board()}, nil, archiver, nil, notifier, discard())
	sum, err := runner.Run(context.Background(), slate)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Empty(t, sum.ReportPath)
	assert.Equal(t, 2, sum.Notified)
	for _, title := range sender.titles {
		assert.False(t, strings.HasPrefix(title, "CourtEdge"))
	}
}

func TestDailyRunMinimal(t *testing.T) {
	runner := NewDailyRunner(&fakeScorer{board: scoring.Board{}}, nil, nil, nil, nil, discard())
	sum, err := runner.Run(context.Background(), slate)
	require.NoError(t, err)
	assert.Zero(t, sum.Games)
	assert.Contains(t, sum.Report, "No Edge 80+ games")
}
