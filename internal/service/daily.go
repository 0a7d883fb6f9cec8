// Package service holds the orchestration that spans several engines.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/notify"
	"github.com/alanyoungcy/courtedge/internal/report"
	"github.com/alanyoungcy/courtedge/internal/scoring"
)

// Scorer produces the per-model board for a date. *scoring.Engine
// satisfies it.
type Scorer interface {
	ScoreDate(ctx context.Context, date time.Time, models ...domain.Model) (scoring.Board, error)
}

// Summary describes one daily run.
type Summary struct {
	Date       string `json:"date"`
	Games      int    `json:"games"`
	Actionable int    `json:"actionable"`
	ReportPath string `json:"report_path,omitempty"`
	GradedPath string `json:"graded_path,omitempty"`
	Notified   int    `json:"notified"`
	Report     string `json:"-"`
}

// DailyRunner scores a slate, renders the daily report, archives it with
// the previous day's graded picks, publishes edge events and alerts on
// actionable edges. Archive, bus and notifier are optional.
type DailyRunner struct {
	scorer   Scorer
	picks    domain.PickStore
	archiver domain.ReportArchiver
	bus      domain.EventBus
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewDailyRunner creates a DailyRunner. Any dependency but scorer may be
// nil.
func NewDailyRunner(
	scorer Scorer,
	picks domain.PickStore,
	archiver domain.ReportArchiver,
	bus domain.EventBus,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *DailyRunner {
	return &DailyRunner{
		scorer:   scorer,
		picks:    picks,
		archiver: archiver,
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "daily")),
	}
}

// Run executes the daily pipeline for date. A scoring failure aborts the
// run. Later stages are attempted independently and their failures are
// joined into the returned error alongside a populated Summary.
func (d *DailyRunner) Run(ctx context.Context, date time.Time) (Summary, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	sum := Summary{Date: day.Format("2006-01-02")}

	board, err := d.scorer.ScoreDate(ctx, day)
	if err != nil {
		return sum, fmt.Errorf("daily: score %s: %w", sum.Date, err)
	}
	actionable := board.Actionable()
	sum.Games = countGames(board)
	sum.Actionable = len(actionable)
	sum.Report = report.RenderDaily(day, board)

	var errs []error
	if d.archiver != nil {
		if sum.ReportPath, err = d.archiver.ArchiveReport(ctx, day, sum.Report); err != nil {
			errs = append(errs, err)
		}
		if sum.GradedPath, err = d.archiveGraded(ctx, day.AddDate(0, 0, -1)); err != nil {
			errs = append(errs, err)
		}
	}

	for _, r := range actionable {
		ev := domain.Event{Kind: "edge_actionable", GameID: r.GameID, Payload: r, At: time.Now().UTC()}
		if err := domain.PublishEvent(ctx, d.bus, domain.ChannelEdges, ev); err != nil {
			errs = append(errs, err)
			break
		}
	}
	if err := d.appendLog(ctx, sum); err != nil {
		errs = append(errs, err)
	}

	notified, err := d.alert(ctx, sum, actionable)
	sum.Notified = notified
	if err != nil {
		errs = append(errs, err)
	}

	d.logger.InfoContext(ctx, "daily run complete",
		slog.String("date", sum.Date),
		slog.Int("games", sum.Games),
		slog.Int("actionable", sum.Actionable),
		slog.Int("notified", sum.Notified),
		slog.String("report_path", sum.ReportPath),
	)
	return sum, errors.Join(errs...)
}

func (d *DailyRunner) archiveGraded(ctx context.Context, day time.Time) (string, error) {
	if d.picks == nil {
		return "", nil
	}
	from, to := day, day.AddDate(0, 0, 1)
	picks, err := d.picks.ListGraded(ctx, domain.PickFilter{Since: &from, Until: &to})
	if err != nil {
		return "", domain.External("daily: list graded picks", err)
	}
	return d.archiver.ArchiveGraded(ctx, day, picks)
}

func (d *DailyRunner) appendLog(ctx context.Context, sum Summary) error {
	if d.bus == nil {
		return nil
	}
	ev := domain.Event{Kind: "daily_report", Payload: sum, At: time.Now().UTC()}
	if err := domain.PublishEvent(ctx, d.bus, domain.ChannelEdges, ev); err != nil {
		return err
	}
	data := fmt.Sprintf(`{"kind":"daily_report","date":%q,"games":%d,"actionable":%d}`, sum.Date, sum.Games, sum.Actionable)
	if err := d.bus.StreamAppend(ctx, domain.StreamEngineLogs, []byte(data)); err != nil {
		return domain.External("daily: stream append", err)
	}
	return nil
}

// alert sends one deduplicated message per actionable edge and a daily
// digest.
func (d *DailyRunner) alert(ctx context.Context, sum Summary, actionable []domain.EdgeResult) (int, error) {
	if !d.notifier.Enabled() {
		return 0, nil
	}
	var sent int
	var errs []error
	for _, r := range actionable {
		key := sum.Date + ":" + r.GameID + ":" + string(r.Model)
		ok, err := d.notifier.NotifyOnce(ctx, notify.EventActionableEdge, key,
			fmt.Sprintf("%s %s", r.Signal, r.Matchup),
			fmt.Sprintf("%s: %s (Edge %.1f)", strings.ToUpper(string(r.Model)), r.Recommended, r.Edge))
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			sent++
		}
	}

	digest := fmt.Sprintf("%d games, %d actionable", sum.Games, sum.Actionable)
	if sum.ReportPath != "" {
		digest += "\n" + sum.ReportPath
	}
	if err := d.notifier.Notify(ctx, notify.EventDailyReport, "CourtEdge "+sum.Date, digest); err != nil {
		errs = append(errs, err)
	}
	return sent, errors.Join(errs...)
}

func countGames(b scoring.Board) int {
	seen := make(map[string]struct{})
	for _, rs := range b {
		for _, r := range rs {
			seen[r.GameID] = struct{}{}
		}
	}
	return len(seen)
}
