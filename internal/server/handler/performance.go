package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/performance"
)

// PerformanceService aggregates graded picks.
type PerformanceService interface {
	Report(ctx context.Context, f domain.PickFilter) (performance.Report, error)
	TeamRecords(ctx context.Context, team string) (performance.TeamRecords, error)
}

// PerformanceHandler serves record and ROI summaries.
type PerformanceHandler struct {
	perf   PerformanceService
	loc    *time.Location
	logger *slog.Logger
}

// NewPerformanceHandler creates a PerformanceHandler.
func NewPerformanceHandler(svc PerformanceService, loc *time.Location, logger *slog.Logger) *PerformanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PerformanceHandler{perf: svc, loc: loc, logger: logger}
}

// Performance returns the graded-pick report.
// GET /api/performance?type=spread&consensus=4/5&since=2026-01-01&until=2026-01-31
func (h *PerformanceHandler) Performance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.PickFilter{Consensus: q.Get("consensus")}
	if v := q.Get("type"); v != "" {
		t := domain.PickType(strings.ToLower(v))
		if !t.Valid() {
			writeError(w, http.StatusBadRequest, "unknown pick type "+v)
			return
		}
		f.Type = t
	}
	since, until, err := parseWindow(r, h.loc, "since", "until")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Since, f.Until = since, until

	rep, err := h.perf.Report(r.Context(), f)
	if err != nil {
		fail(w, r, h.logger, "performance report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// TeamRecords returns a team's ATS and over/under records.
// GET /api/teams/{abbr}/records
func (h *PerformanceHandler) TeamRecords(w http.ResponseWriter, r *http.Request) {
	team := strings.ToUpper(pathParam(r, "abbr"))
	if team == "" {
		writeError(w, http.StatusBadRequest, "missing team")
		return
	}
	rec, err := h.perf.TeamRecords(r.Context(), team)
	if err != nil {
		fail(w, r, h.logger, "team records", err, slog.String("team", team))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
