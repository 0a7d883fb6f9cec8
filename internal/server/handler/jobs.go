package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/jobs"
)

// JobRunner exposes the scheduler's manual trigger.
type JobRunner interface {
	Jobs() []jobs.Info
	RunNow(ctx context.Context, name string) error
}

// JobHandler lists scheduled jobs and runs them on demand.
type JobHandler struct {
	runner JobRunner
	logger *slog.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(runner JobRunner, logger *slog.Logger) *JobHandler {
	return &JobHandler{runner: runner, logger: logger}
}

// ListJobs returns every registered job with its last run state.
// GET /api/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.Jobs())
}

// RunJob triggers a job. By default the request waits for the run to
// finish; ?async=true returns 202 immediately.
// POST /api/jobs/{name}/run
func (h *JobHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing job name")
		return
	}
	h.logger.InfoContext(r.Context(), "handler: job run requested", slog.String("job", name))

	if r.URL.Query().Get("async") == "true" {
		if !h.known(name) {
			writeError(w, http.StatusNotFound, "unknown job "+name)
			return
		}
		ctx := context.WithoutCancel(r.Context())
		go func() {
			if err := h.runner.RunNow(ctx, name); err != nil && !errors.Is(err, domain.ErrLockHeld) {
				h.logger.ErrorContext(ctx, "handler: async job failed",
					slog.String("job", name),
					slog.String("error", err.Error()),
				)
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]any{
			"job":          name,
			"status":       "accepted",
			"requested_at": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	start := time.Now()
	if err := h.runner.RunNow(r.Context(), name); err != nil {
		fail(w, r, h.logger, "run job", err, slog.String("job", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":         name,
		"status":      "completed",
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (h *JobHandler) known(name string) bool {
	for _, info := range h.runner.Jobs() {
		if info.Name == name {
			return true
		}
	}
	return false
}
