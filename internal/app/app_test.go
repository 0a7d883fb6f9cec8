package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/config"
	"github.com/alanyoungcy/courtedge/internal/jobs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryConfig(mode string) *config.Config {
	cfg := config.Defaults()
	cfg.Storage = "memory"
	cfg.Redis.Enabled = false
	cfg.S3.Enabled = false
	cfg.Mode = mode
	return &cfg
}

func TestWireMemory(t *testing.T) {
	ctx := context.Background()
	deps, cleanup, err := Wire(ctx, memoryConfig("score"), testLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.Scoring)
	assert.NotNil(t, deps.Grading)
	assert.NotNil(t, deps.Consensus)
	assert.NotNil(t, deps.Weakness)
	assert.NotNil(t, deps.Performance)
	assert.NotNil(t, deps.Daily)
	assert.NotNil(t, deps.Locks)
	assert.Nil(t, deps.Bus)
	assert.Nil(t, deps.Limiter)
	assert.Nil(t, deps.Archiver)
	assert.Equal(t, "America/New_York", deps.Location.String())

	_, ok := deps.Health["graph"]
	assert.True(t, ok)
	_, ok = deps.Health["postgres"]
	assert.False(t, ok)

	weights, err := deps.Consensus.Weights(ctx)
	require.NoError(t, err)
	assert.Len(t, weights, 5)
}

func TestWireBadTimezone(t *testing.T) {
	cfg := memoryConfig("score")
	cfg.Timezone = "Nowhere/Special"
	_, _, err := Wire(context.Background(), cfg, testLogger())
	require.Error(t, err)
}

func TestScoreModeEmptySlate(t *testing.T) {
	a := New(memoryConfig("score"), Options{Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)}, testLogger())
	defer a.Close()
	require.NoError(t, a.Run(context.Background()))
}

func TestRunUnsupportedMode(t *testing.T) {
	a := New(memoryConfig("trade"), Options{}, testLogger())
	defer a.Close()
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mode")
}

func TestNewSchedulerRegistersStandardJobs(t *testing.T) {
	cfg := memoryConfig("scheduler")
	cfg.Jobs.Schedules = map[string]string{jobs.Recalibrate: ""}
	deps, cleanup, err := Wire(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer cleanup()

	a := New(cfg, Options{}, testLogger())
	sched, err := a.newScheduler(deps)
	require.NoError(t, err)

	infos := sched.Jobs()
	require.Len(t, infos, 7)
	byName := make(map[string]jobs.Info, len(infos))
	for _, in := range infos {
		byName[in.Name] = in
	}
	assert.Equal(t, "", byName[jobs.Recalibrate].Schedule)
	assert.Equal(t, "*/10 * * * *", byName[jobs.GradeResults].Schedule)
}

func TestGradeAndRecalibrateModes(t *testing.T) {
	ctx := context.Background()
	for _, mode := range []string{"grade", "recalibrate"} {
		t.Run(mode, func(t *testing.T) {
			a := New(memoryConfig(mode), Options{}, testLogger())
			defer a.Close()
			require.NoError(t, a.Run(ctx))
		})
	}
}
