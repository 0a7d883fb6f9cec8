package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/grading"
)

// GradingService is the grading surface exposed over HTTP.
type GradingService interface {
	CaptureLines(ctx context.Context, gameID string) (bool, error)
	RecordFinalScore(ctx context.Context, gameID string, home, away int) (bool, error)
	CaptureResult(ctx context.Context, gameID string) (domain.GradedOutcome, bool, error)
	RecordPickResult(ctx context.Context, pickID string) (domain.Pick, bool, error)
	CorrectPickResult(ctx context.Context, pickID string, result domain.PickResult, note string) (domain.Pick, error)
	SyncFinished(ctx context.Context) (grading.SyncReport, error)
}

// GradingHandler serves line capture and grading endpoints.
type GradingHandler struct {
	grading GradingService
	logger  *slog.Logger
}

// NewGradingHandler creates a GradingHandler.
func NewGradingHandler(svc GradingService, logger *slog.Logger) *GradingHandler {
	return &GradingHandler{grading: svc, logger: logger}
}

// CaptureLines snapshots closing lines for a game. Repeat calls report
// captured=false.
// POST /api/games/{id}/capture-lines
func (h *GradingHandler) CaptureLines(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}
	captured, err := h.grading.CaptureLines(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, "capture lines", err, slog.String("game_id", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game_id": id, "captured": captured})
}

type finalScoreRequest struct {
	HomeScore *int `json:"home_score"`
	AwayScore *int `json:"away_score"`
}

type gameResultResponse struct {
	GameID        string     `json:"game_id"`
	ScoreRecorded bool       `json:"score_recorded"`
	Graded        bool       `json:"graded"`
	Outcome       outcomeDTO `json:"outcome"`
}

// RecordResult stores a final score and grades the game against its
// captured lines.
// POST /api/games/{id}/result
func (h *GradingHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}
	var req finalScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.HomeScore == nil || req.AwayScore == nil || *req.HomeScore < 0 || *req.AwayScore < 0 {
		writeError(w, http.StatusBadRequest, "home_score and away_score are required and must be non-negative")
		return
	}

	recorded, err := h.grading.RecordFinalScore(r.Context(), id, *req.HomeScore, *req.AwayScore)
	if err != nil {
		fail(w, r, h.logger, "record final score", err, slog.String("game_id", id))
		return
	}
	outcome, graded, err := h.grading.CaptureResult(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, "capture result", err, slog.String("game_id", id))
		return
	}
	writeJSON(w, http.StatusOK, gameResultResponse{
		GameID:        id,
		ScoreRecorded: recorded,
		Graded:        graded,
		Outcome:       toOutcomeDTO(outcome),
	})
}

// GradePick records the result of a pick from its game's final score.
// POST /api/picks/{id}/grade
func (h *GradingHandler) GradePick(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing pick id")
		return
	}
	pick, graded, err := h.grading.RecordPickResult(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, "grade pick", err, slog.String("pick_id", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"graded": graded, "pick": toPickDTO(pick)})
}

type correctionRequest struct {
	Result string `json:"result"`
	Note   string `json:"note"`
}

// CorrectPick overrides a recorded result.
// POST /api/picks/{id}/correct
func (h *GradingHandler) CorrectPick(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing pick id")
		return
	}
	var req correctionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result := domain.PickResult(req.Result)
	if !result.Graded() {
		writeError(w, http.StatusBadRequest, "result must be win, loss or push")
		return
	}
	pick, err := h.grading.CorrectPickResult(r.Context(), id, result, req.Note)
	if err != nil {
		fail(w, r, h.logger, "correct pick", err, slog.String("pick_id", id))
		return
	}
	writeJSON(w, http.StatusOK, toPickDTO(pick))
}

// Sync advances finished games and grades everything that is due.
// POST /api/grading/sync
func (h *GradingHandler) Sync(w http.ResponseWriter, r *http.Request) {
	rep, err := h.grading.SyncFinished(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: grading sync finished with errors",
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusMultiStatus, map[string]any{"report": rep, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
