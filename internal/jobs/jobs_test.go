package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/grading"
	"github.com/alanyoungcy/courtedge/internal/service"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type observed struct {
	job string
	err error
}

type recordingObserver struct{ runs []observed }

func (o *recordingObserver) ObserveJob(job string, err error, _ time.Duration) {
	o.runs = append(o.runs, observed{job, err})
}

func newTestScheduler(obs Observer) *Scheduler {
	return NewScheduler(Config{Attempts: 3, Backoff: time.Millisecond, Timeout: time.Second}, obs, discard())
}

func TestSchedulerAdd(t *testing.T) {
	s := newTestScheduler(nil)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add(Job{Name: "a", Schedule: "*/5 * * * *", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "b", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "a", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "c", Schedule: "not a spec", Run: noop}))

	infos := s.Jobs()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "idle", infos[0].Status)
	assert.Equal(t, "b", infos[1].Name)
	assert.True(t, infos[1].NextRun.IsZero())
}

func TestRunNowRetriesRetryable(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestScheduler(obs)

	calls := 0
	require.NoError(t, s.Add(Job{Name: "flaky", Run: func(context.Context) error {
		calls++
		if calls < 3 {
			return domain.External("postgres: list", errors.New("conn reset"))
		}
		return nil
	}}))

	require.NoError(t, s.RunNow(context.Background(), "flaky"))
	assert.Equal(t, 3, calls)
	require.Len(t, obs.runs, 1)
	assert.NoError(t, obs.runs[0].err)

	info := s.Jobs()[0]
	assert.Equal(t, "completed", info.Status)
	assert.Equal(t, 1, info.RunCount)
}

func TestRunNowGivesUp(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"retryable exhausts attempts", domain.External("redis: get", errors.New("down")), 3},
		{"logic error is not retried", errors.New("bad input"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(nil)
			calls := 0
			require.NoError(t, s.Add(Job{Name: "j", Run: func(context.Context) error {
				calls++
				return tt.err
			}}))

			err := s.RunNow(context.Background(), "j")
			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, calls)

			info := s.Jobs()[0]
			assert.Equal(t, "failed", info.Status)
			assert.Equal(t, 1, info.ErrorCount)
			assert.NotEmpty(t, info.LastError)
		})
	}
}

func TestRunNowRecoversPanic(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestScheduler(obs)
	require.NoError(t, s.Add(Job{Name: "boom", Run: func(context.Context) error { panic("nil map") }}))

	err := s.RunNow(context.Background(), "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	require.Len(t, obs.runs, 1)
	assert.Error(t, obs.runs[0].err)
}

func TestRunNowUnknown(t *testing.T) {
	err := newTestScheduler(nil).RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunNowRejectsOverlap(t *testing.T) {
	s := newTestScheduler(nil)
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Add(Job{Name: "slow", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "slow") }()
	<-started

	assert.ErrorIs(t, s.RunNow(context.Background(), "slow"), domain.ErrLockHeld)
	close(release)
	assert.NoError(t, <-done)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	s := newTestScheduler(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

type fakeEngines struct {
	captureWindow time.Duration
	detectWindow  time.Duration
	dailyDate     time.Time
	calls         []string
}

func (f *fakeEngines) CaptureUpcoming(_ context.Context, w time.Duration) (int, error) {
	f.captureWindow = w
	f.calls = append(f.calls, CaptureLines)
	return 2, nil
}

func (f *fakeEngines) SyncFinished(context.Context) (grading.SyncReport, error) {
	f.calls = append(f.calls, GradeResults)
	return grading.SyncReport{GamesGraded: 1}, nil
}

func (f *fakeEngines) DetectUpcoming(_ context.Context, w time.Duration) (int, error) {
	f.detectWindow = w
	f.calls = append(f.calls, DetectTriggers)
	return 0, nil
}

func (f *fakeEngines) EvaluatePending(context.Context) (int, error) {
	f.calls = append(f.calls, EvaluateTriggers)
	return 0, nil
}

func (f *fakeEngines) Recalibrate(context.Context) ([]domain.AnalystWeight, error) {
	f.calls = append(f.calls, Recalibrate)
	return nil, nil
}

func (f *fakeEngines) Run(_ context.Context, date time.Time) (service.Summary, error) {
	f.dailyDate = date
	f.calls = append(f.calls, DailyReport)
	return service.Summary{}, nil
}

func TestStandardJobs(t *testing.T) {
	f := &fakeEngines{}
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2025, 1, 16, 3, 0, 0, 0, time.UTC)

	jobs := Standard(Deps{
		Lines: f, Grader: f, Triggers: f, Recalibrator: f, Daily: f,
		Location: ny,
		Now:      func() time.Time { return now },
	}, DefaultSchedules(), discard())

	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name)
		assert.NotEmpty(t, j.Schedule, j.Name)
	}
	assert.ElementsMatch(t, []string{CaptureLines, GradeResults, DetectTriggers, EvaluateTriggers, DailyReport, Recalibrate}, names)

	s := newTestScheduler(nil)
	require.NoError(t, Register(s, jobs))
	for _, name := range names {
		require.NoError(t, s.RunNow(context.Background(), name))
	}
	assert.Equal(t, names, f.calls)
	assert.Equal(t, 45*time.Minute, f.captureWindow)
	assert.Equal(t, 36*time.Hour, f.detectWindow)
	assert.Equal(t, 15, f.dailyDate.Day())
}

func TestStandardSkipsMissingDeps(t *testing.T) {
	jobs := Standard(Deps{}, DefaultSchedules(), discard())
	assert.Empty(t, jobs)
}
