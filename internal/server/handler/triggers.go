package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/weakness"
)

// TriggerService is the weakness trigger surface exposed over HTTP.
type TriggerService interface {
	DetectForGame(ctx context.Context, gameID string) ([]domain.WeaknessPrediction, error)
	EvaluateGame(ctx context.Context, gameID string) (int, error)
	Statistics(ctx context.Context) (weakness.Stats, error)
	TeamHitRate(ctx context.Context, team string) (weakness.TeamHitRate, bool, error)
}

// TriggerHandler serves weakness trigger detection and statistics.
type TriggerHandler struct {
	triggers TriggerService
	logger   *slog.Logger
}

// NewTriggerHandler creates a TriggerHandler.
func NewTriggerHandler(svc TriggerService, logger *slog.Logger) *TriggerHandler {
	return &TriggerHandler{triggers: svc, logger: logger}
}

// Detect runs every trigger rule for both teams of a game.
// POST /api/games/{id}/triggers
func (h *TriggerHandler) Detect(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}
	preds, err := h.triggers.DetectForGame(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, "detect triggers", err, slog.String("game_id", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":     id,
		"predictions": toPredictionDTOs(preds),
	})
}

// Evaluate scores stored predictions against the game's final result.
// POST /api/games/{id}/triggers/evaluate
func (h *TriggerHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}
	n, err := h.triggers.EvaluateGame(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, "evaluate triggers", err, slog.String("game_id", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game_id": id, "evaluated": n})
}

// Stats returns overall and per-trigger hit rates.
// GET /api/triggers/stats
func (h *TriggerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.triggers.Statistics(r.Context())
	if err != nil {
		fail(w, r, h.logger, "trigger stats", err)
		return
	}
	if stats.ByTrigger == nil {
		stats.ByTrigger = []weakness.HitRate{}
	}
	writeJSON(w, http.StatusOK, stats)
}

// TeamStats returns one team's trigger record. Teams below the minimum
// sample respond 404.
// GET /api/teams/{abbr}/triggers
func (h *TriggerHandler) TeamStats(w http.ResponseWriter, r *http.Request) {
	team := strings.ToUpper(pathParam(r, "abbr"))
	if team == "" {
		writeError(w, http.StatusBadRequest, "missing team")
		return
	}
	rate, ok, err := h.triggers.TeamHitRate(r.Context(), team)
	if err != nil {
		fail(w, r, h.logger, "team trigger stats", err, slog.String("team", team))
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not enough evaluated predictions for "+team)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}
