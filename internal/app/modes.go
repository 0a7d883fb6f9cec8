package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/courtedge/internal/jobs"
	"github.com/alanyoungcy/courtedge/internal/notify"
	"github.com/alanyoungcy/courtedge/internal/server"
	"github.com/alanyoungcy/courtedge/internal/server/handler"
	"github.com/alanyoungcy/courtedge/internal/server/ws"
	"github.com/alanyoungcy/courtedge/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// ScoreMode runs the daily pipeline once for the requested slate and writes
// the rendered report to stdout.
func (a *App) ScoreMode(ctx context.Context, deps *Dependencies) error {
	date := a.opts.Date
	if date.IsZero() {
		date = time.Now().In(deps.Location)
	}
	a.logger.InfoContext(ctx, "starting score mode", slog.String("date", date.Format(time.DateOnly)))

	sum, err := deps.Daily.Run(ctx, date)
	a.logger.InfoContext(ctx, "daily run finished",
		slog.String("date", sum.Date),
		slog.Int("games", sum.Games),
		slog.Int("actionable", sum.Actionable),
		slog.Int("notified", sum.Notified),
		slog.String("report_path", sum.ReportPath),
	)
	if sum.Report != "" {
		fmt.Fprint(os.Stdout, sum.Report)
	}
	if err != nil {
		return fmt.Errorf("score mode: %w", err)
	}
	return nil
}

// GradeMode grades every finished game and pick once.
func (a *App) GradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting grade mode")

	rep, err := deps.Grading.SyncFinished(ctx)
	a.logger.InfoContext(ctx, "grading sync finished",
		slog.Int("statuses_advanced", rep.StatusesAdvanced),
		slog.Int("games_graded", rep.GamesGraded),
		slog.Int("picks_graded", rep.PicksGraded),
		slog.Int("skipped", rep.Skipped),
		slog.Int("failed", rep.Failed),
	)
	if err != nil {
		return fmt.Errorf("grade mode: %w", err)
	}
	return nil
}

// RecalibrateMode recomputes analyst weights from graded history once.
func (a *App) RecalibrateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting recalibrate mode")

	weights, err := deps.Consensus.Recalibrate(ctx)
	if err != nil {
		return fmt.Errorf("recalibrate mode: %w", err)
	}
	for _, w := range weights {
		attrs := []any{
			slog.String("analyst", string(w.Analyst)),
			slog.String("signal", string(w.Signal)),
			slog.Int("sample", w.SampleSize),
		}
		if w.Weight != nil {
			attrs = append(attrs, slog.Float64("weight", *w.Weight))
		}
		a.logger.InfoContext(ctx, "analyst weight", attrs...)
	}
	return nil
}

// ServerMode serves the HTTP and WebSocket API until ctx is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// SchedulerMode runs the recurring jobs until ctx is cancelled.
func (a *App) SchedulerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scheduler mode")

	sched, err := a.newScheduler(deps)
	if err != nil {
		return fmt.Errorf("scheduler mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(ctx)
	})
	return g.Wait()
}

// FullMode runs the scheduler and the API server together. The server's job
// endpoints drive the same scheduler.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	sched, err := a.newScheduler(deps)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(ctx)
	})
	a.startHTTPServer(ctx, g, deps, sched)
	return g.Wait()
}

func (a *App) newScheduler(deps *Dependencies) (*jobs.Scheduler, error) {
	schedules := jobs.DefaultSchedules()
	for name, spec := range a.cfg.Jobs.Schedules {
		schedules[name] = spec
	}

	sched := jobs.NewScheduler(jobs.Config{
		Location: deps.Location,
		Attempts: a.cfg.Jobs.Attempts,
		Backoff:  a.cfg.Jobs.Backoff.Duration,
		Timeout:  a.cfg.Jobs.Timeout.Duration,
	}, &jobObserver{metrics: deps.Metrics, notifier: deps.Notifier, logger: a.logger}, a.logger)

	standard := jobs.Standard(jobs.Deps{
		Lines:         deps.Grading,
		Grader:        deps.Grading,
		Triggers:      deps.Weakness,
		Recalibrator:  deps.Consensus,
		Daily:         deps.Daily,
		Dedup:         deps.Dedup,
		CaptureWindow: a.cfg.Jobs.CaptureWindow.Duration,
		DetectWindow:  a.cfg.Jobs.DetectWindow.Duration,
		Location:      deps.Location,
	}, schedules, a.logger)
	if err := jobs.Register(sched, standard); err != nil {
		return nil, err
	}
	return sched, nil
}

// startHTTPServer adds the hub, the API server and its shutdown watcher to
// g. runner is nil when no scheduler runs in this process.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, runner handler.JobRunner) {
	hub := ws.NewHub(deps.Bus, a.logger, ws.Config{
		Mode:           a.cfg.Mode,
		StartedAt:      time.Now().UTC(),
		AllowedOrigins: a.cfg.Server.CORSOrigins,
		Clients:        deps.Metrics.WSClients,
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	var loader handler.ReportLoader
	if deps.Archiver != nil {
		loader = deps.Archiver
	}
	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(a.cfg.Mode, deps.Health, a.logger),
		Edges:       handler.NewEdgeHandler(deps.Scoring, deps.Location, a.logger),
		Grading:     handler.NewGradingHandler(deps.Grading, a.logger),
		Consensus:   handler.NewConsensusHandler(deps.Consensus, deps.Location, a.logger),
		Triggers:    handler.NewTriggerHandler(deps.Weakness, a.logger),
		Performance: handler.NewPerformanceHandler(deps.Performance, deps.Location, a.logger),
		Reports:     handler.NewReportHandler(loader, deps.Scoring, deps.Location, a.logger),
		Metrics:     deps.Metrics.Handler(),
	}
	if runner != nil {
		handlers.Jobs = handler.NewJobHandler(runner, a.logger)
	}

	srv := server.NewServer(server.Config{
		Host:            a.cfg.Server.Host,
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, server.Deps{
		Hub:      hub,
		Limiter:  deps.Limiter,
		Observer: deps.Metrics,
	}, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// jobObserver records job outcomes and alerts on failures.
type jobObserver struct {
	metrics  *telemetry.Metrics
	notifier *notify.Notifier
	logger   *slog.Logger
}

func (o *jobObserver) ObserveJob(job string, err error, d time.Duration) {
	o.metrics.ObserveJob(job, err, d)
	if err == nil || !o.notifier.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	title := "Job failed: " + job
	if _, nerr := o.notifier.NotifyOnce(ctx, notify.EventJobFailed, "job:"+job, title, err.Error()); nerr != nil {
		o.logger.WarnContext(ctx, "job failure alert not sent",
			slog.String("job", job),
			slog.String("error", nerr.Error()),
		)
	}
}
