package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/grading"
	"github.com/alanyoungcy/courtedge/internal/service"
)

// Job names.
const (
	CaptureLines     = "capture_lines"
	GradeResults     = "grade_results"
	DetectTriggers   = "detect_triggers"
	EvaluateTriggers = "evaluate_triggers"
	DailyReport      = "daily_report"
	Recalibrate      = "recalibrate"
	DedupCleanup     = "dedup_cleanup"
)

// Schedules maps job names to cron specs. An empty spec disables the cron
// trigger but keeps the job runnable on demand.
type Schedules map[string]string

// DefaultSchedules returns the standard cadence.
func DefaultSchedules() Schedules {
	return Schedules{
		CaptureLines:     "*/15 * * * *",
		GradeResults:     "*/10 * * * *",
		DetectTriggers:   "0 9 * * *",
		EvaluateTriggers: "20 * * * *",
		DailyReport:      "0 10 * * *",
		Recalibrate:      "0 6 * * 1",
		DedupCleanup:     "0 * * * *",
	}
}

// Collaborators the standard jobs drive.
type (
	LineCapturer interface {
		CaptureUpcoming(ctx context.Context, window time.Duration) (int, error)
	}
	Grader interface {
		SyncFinished(ctx context.Context) (grading.SyncReport, error)
	}
	TriggerEngine interface {
		DetectUpcoming(ctx context.Context, window time.Duration) (int, error)
		EvaluatePending(ctx context.Context) (int, error)
	}
	Recalibrator interface {
		Recalibrate(ctx context.Context) ([]domain.AnalystWeight, error)
	}
	DailyRunner interface {
		Run(ctx context.Context, date time.Time) (service.Summary, error)
	}
	Cleaner interface {
		Cleanup() int
	}
)

// Deps wires the standard jobs. A nil collaborator leaves its job out.
type Deps struct {
	Lines        LineCapturer
	Grader       Grader
	Triggers     TriggerEngine
	Recalibrator Recalibrator
	Daily        DailyRunner
	Dedup        Cleaner
	// CaptureWindow is how far before tip-off closing lines are taken.
	CaptureWindow time.Duration
	// DetectWindow is how far ahead triggers are detected.
	DetectWindow time.Duration
	Location     *time.Location
	Now          func() time.Time
}

// Standard builds the job set for deps using sched.
func Standard(deps Deps, sched Schedules, logger *slog.Logger) []Job {
	if deps.CaptureWindow <= 0 {
		deps.CaptureWindow = 45 * time.Minute
	}
	if deps.DetectWindow <= 0 {
		deps.DetectWindow = 36 * time.Hour
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger = logger.With(slog.String("component", "jobs"))

	var out []Job
	add := func(name string, run func(ctx context.Context) error) {
		out = append(out, Job{Name: name, Schedule: sched[name], Run: run})
	}

	if deps.Lines != nil {
		add(CaptureLines, func(ctx context.Context) error {
			n, err := deps.Lines.CaptureUpcoming(ctx, deps.CaptureWindow)
			logger.InfoContext(ctx, "lines captured", slog.Int("games", n))
			return err
		})
	}
	if deps.Grader != nil {
		add(GradeResults, func(ctx context.Context) error {
			_, err := deps.Grader.SyncFinished(ctx)
			return err
		})
	}
	if deps.Triggers != nil {
		add(DetectTriggers, func(ctx context.Context) error {
			n, err := deps.Triggers.DetectUpcoming(ctx, deps.DetectWindow)
			logger.InfoContext(ctx, "triggers detected", slog.Int("predictions", n))
			return err
		})
		add(EvaluateTriggers, func(ctx context.Context) error {
			n, err := deps.Triggers.EvaluatePending(ctx)
			logger.InfoContext(ctx, "triggers evaluated", slog.Int("predictions", n))
			return err
		})
	}
	if deps.Daily != nil {
		add(DailyReport, func(ctx context.Context) error {
			_, err := deps.Daily.Run(ctx, deps.Now().In(deps.Location))
			return err
		})
	}
	if deps.Recalibrator != nil {
		add(Recalibrate, func(ctx context.Context) error {
			ws, err := deps.Recalibrator.Recalibrate(ctx)
			logger.InfoContext(ctx, "analyst weights recalibrated", slog.Int("analysts", len(ws)))
			return err
		})
	}
	if deps.Dedup != nil {
		add(DedupCleanup, func(ctx context.Context) error {
			logger.DebugContext(ctx, "dedup cleaned", slog.Int("removed", deps.Dedup.Cleanup()))
			return nil
		})
	}
	return out
}

// Register adds jobs to s.
func Register(s *Scheduler, jobs []Job) error {
	for _, j := range jobs {
		if err := s.Add(j); err != nil {
			return err
		}
	}
	return nil
}
