package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/report"
)

// ReportLoader reads archived daily reports.
type ReportLoader interface {
	LoadReport(ctx context.Context, date time.Time) (string, error)
	ListReports(ctx context.Context) ([]domain.ArchivedReport, error)
}

type archivedReportDTO struct {
	Date      string    `json:"date"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// ReportHandler serves the markdown daily report.
type ReportHandler struct {
	loader ReportLoader
	scorer EdgeScorer
	loc    *time.Location
	logger *slog.Logger
}

// NewReportHandler creates a ReportHandler. loader may be nil, in which case
// every report is rendered live.
func NewReportHandler(loader ReportLoader, scorer EdgeScorer, loc *time.Location, logger *slog.Logger) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{loader: loader, scorer: scorer, loc: loc, logger: logger}
}

// DailyReport returns the archived report for a date, rendering it from a
// fresh board when none was archived. ?live=true skips the archive.
// GET /api/reports/{date}
func (h *ReportHandler) DailyReport(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(pathParam(r, "date"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	source := "archive"
	body, err := h.archived(r, date)
	if err != nil {
		fail(w, r, h.logger, "load report", err, slog.String("date", date.Format(dateLayout)))
		return
	}
	if body == "" {
		source = "live"
		board, err := h.scorer.ScoreDate(r.Context(), date)
		if err != nil {
			fail(w, r, h.logger, "render report", err, slog.String("date", date.Format(dateLayout)))
			return
		}
		body = report.RenderDaily(date, board)
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("X-Report-Source", source)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// ListReports lists the archived report dates, newest first. Without an
// archive the list is empty.
// GET /api/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	out := []archivedReportDTO{}
	if h.loader != nil {
		reports, err := h.loader.ListReports(r.Context())
		if err != nil {
			fail(w, r, h.logger, "list reports", err)
			return
		}
		for _, rep := range reports {
			out = append(out, archivedReportDTO{
				Date:      rep.Date.Format(dateLayout),
				Path:      rep.Path,
				Size:      rep.Size,
				UpdatedAt: rep.UpdatedAt,
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

// archived returns "" when there is no archive or no report for date.
func (h *ReportHandler) archived(r *http.Request, date time.Time) (string, error) {
	if h.loader == nil || r.URL.Query().Get("live") == "true" {
		return "", nil
	}
	body, err := h.loader.LoadReport(r.Context(), date)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "", nil
	case err != nil && domain.IsRetryable(err):
		h.logger.WarnContext(r.Context(), "handler: report archive unavailable, rendering live",
			slog.String("error", err.Error()),
		)
		return "", nil
	case err != nil:
		return "", err
	}
	return body, nil
}
