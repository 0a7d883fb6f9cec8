// Package jobs runs the engine's batch work on cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Job is one named unit of scheduled work.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Observer receives job outcomes. The telemetry collectors implement it.
type Observer interface {
	ObserveJob(job string, err error, d time.Duration)
}

// Info is the runtime state of a registered job.
type Info struct {
	Name       string    `json:"name"`
	Schedule   string    `json:"schedule"`
	LastRun    time.Time `json:"last_run,omitempty"`
	NextRun    time.Time `json:"next_run,omitempty"`
	Status     string    `json:"status"`
	RunCount   int       `json:"run_count"`
	ErrorCount int       `json:"error_count"`
	LastError  string    `json:"last_error,omitempty"`
}

// Config tunes the scheduler.
type Config struct {
	Location *time.Location
	// Attempts is how many times a job with a retryable error is run
	// before giving up.
	Attempts int
	Backoff  time.Duration
	Timeout  time.Duration
}

// Scheduler wraps a cron runner. A job never overlaps with itself and a
// panic is recovered and reported as a failure.
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	observer Observer
	logger   *slog.Logger

	mu      sync.Mutex
	jobs    map[string]*entry
	baseCtx context.Context
}

type entry struct {
	job  Job
	id   cron.EntryID
	info Info
	busy sync.Mutex
}

// NewScheduler creates a Scheduler. observer may be nil.
func NewScheduler(cfg Config, observer Observer, logger *slog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	logger = logger.With(slog.String("component", "scheduler"))
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(cfg.Location), cron.WithLogger(cronLogger{logger})),
		cfg:      cfg,
		observer: observer,
		logger:   logger,
		jobs:     make(map[string]*entry),
		baseCtx:  context.Background(),
	}
}

// Add registers job. An empty schedule registers the job for RunNow only.
func (s *Scheduler) Add(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("jobs: %s already registered", job.Name)
	}
	e := &entry{job: job, info: Info{Name: job.Name, Schedule: job.Schedule, Status: "idle"}}
	if job.Schedule != "" {
		id, err := s.cron.AddFunc(job.Schedule, func() { s.run(s.context(), e) })
		if err != nil {
			return fmt.Errorf("jobs: schedule %s %q: %w", job.Name, job.Schedule, err)
		}
		e.id = id
	}
	s.jobs[job.Name] = e
	s.logger.Info("job registered",
		slog.String("job", job.Name),
		slog.String("schedule", job.Schedule),
	)
	return nil
}

// Run starts the cron loop and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.InfoContext(ctx, "scheduler started", slog.Int("jobs", len(s.Jobs())))
	<-ctx.Done()

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info("scheduler stopped")
	case <-time.After(30 * time.Second):
		s.logger.Warn("scheduler stop timed out")
	}
	return nil
}

// RunNow runs the named job synchronously. It fails with an error when
// the job is already running.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("jobs: %s: %w", name, domain.ErrNotFound)
	}
	if !e.busy.TryLock() {
		return fmt.Errorf("jobs: %s: %w", name, domain.ErrLockHeld)
	}
	defer e.busy.Unlock()
	return s.execute(ctx, e)
}

// Jobs returns the state of every job ordered by name.
func (s *Scheduler) Jobs() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Info, 0, len(s.jobs))
	for _, e := range s.jobs {
		info := e.info
		if e.id != 0 {
			info.NextRun = s.cron.Entry(e.id).Next
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

// run is the cron callback. Overlapping ticks are skipped.
func (s *Scheduler) run(ctx context.Context, e *entry) {
	if !e.busy.TryLock() {
		s.logger.WarnContext(ctx, "job still running, tick skipped", slog.String("job", e.job.Name))
		return
	}
	defer e.busy.Unlock()
	_ = s.execute(ctx, e)
}

func (s *Scheduler) execute(ctx context.Context, e *entry) (err error) {
	name := e.job.Name
	start := time.Now()
	s.setState(e, func(i *Info) {
		i.Status = "running"
		i.LastRun = start
		i.RunCount++
	})

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jobs: %s panicked: %v", name, r)
		}
		d := time.Since(start)
		s.finish(ctx, e, err, d)
		if s.observer != nil {
			s.observer.ObserveJob(name, err, d)
		}
	}()

	backoff := s.cfg.Backoff
	for attempt := 1; ; attempt++ {
		err = s.attempt(ctx, e)
		if err == nil || !domain.IsRetryable(err) || attempt >= s.cfg.Attempts {
			return err
		}
		s.logger.WarnContext(ctx, "job failed, retrying",
			slog.String("job", name),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (s *Scheduler) attempt(ctx context.Context, e *entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return e.job.Run(ctx)
}

func (s *Scheduler) finish(ctx context.Context, e *entry, err error, d time.Duration) {
	s.setState(e, func(i *Info) {
		if err != nil {
			i.Status = "failed"
			i.ErrorCount++
			i.LastError = err.Error()
			return
		}
		i.Status = "completed"
		i.LastError = ""
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "job failed",
			slog.String("job", e.job.Name),
			slog.Duration("duration", d),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.InfoContext(ctx, "job completed",
		slog.String("job", e.job.Name),
		slog.Duration("duration", d),
	)
}

func (s *Scheduler) setState(e *entry, fn func(*Info)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&e.info)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err.Error())...)
}
