package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/scoring"
)

// EdgeScorer is the slice of the scoring engine the edge endpoints use.
type EdgeScorer interface {
	ScoreDate(ctx context.Context, date time.Time, models ...domain.Model) (scoring.Board, error)
	ScoreGame(ctx context.Context, gameID string, models ...domain.Model) (scoring.Board, error)
}

// EdgeHandler serves model edge boards.
type EdgeHandler struct {
	scorer EdgeScorer
	loc    *time.Location
	logger *slog.Logger
}

// NewEdgeHandler creates an EdgeHandler. Dates without a zone are read in loc.
func NewEdgeHandler(scorer EdgeScorer, loc *time.Location, logger *slog.Logger) *EdgeHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EdgeHandler{scorer: scorer, loc: loc, logger: logger}
}

type boardResponse struct {
	Date       string                               `json:"date,omitempty"`
	GameID     string                               `json:"game_id,omitempty"`
	Models     map[domain.Model][]domain.EdgeResult `json:"models"`
	Actionable []domain.EdgeResult                  `json:"actionable"`
}

func newBoardResponse(b scoring.Board) boardResponse {
	resp := boardResponse{Models: b, Actionable: b.Actionable()}
	if resp.Models == nil {
		resp.Models = map[domain.Model][]domain.EdgeResult{}
	}
	if resp.Actionable == nil {
		resp.Actionable = []domain.EdgeResult{}
	}
	return resp
}

func parseModels(r *http.Request) ([]domain.Model, bool) {
	var models []domain.Model
	for _, v := range r.URL.Query()["model"] {
		m, ok := parseModel(v)
		if !ok {
			return nil, false
		}
		models = append(models, m)
	}
	return models, true
}

// ListEdges scores every game on a date.
// GET /api/edges?date=2026-01-15&model=spread
func (h *EdgeHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	models, ok := parseModels(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown model")
		return
	}

	board, err := h.scorer.ScoreDate(r.Context(), date, models...)
	if err != nil {
		fail(w, r, h.logger, "score date", err, slog.String("date", date.Format(dateLayout)))
		return
	}
	resp := newBoardResponse(board)
	resp.Date = date.Format(dateLayout)
	writeJSON(w, http.StatusOK, resp)
}

// GameEdges scores a single game.
// GET /api/games/{id}/edges
func (h *EdgeHandler) GameEdges(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}
	models, ok := parseModels(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown model")
		return
	}

	board, err := h.scorer.ScoreGame(r.Context(), id, models...)
	if err != nil {
		fail(w, r, h.logger, "score game", err, slog.String("game_id", id))
		return
	}
	resp := newBoardResponse(board)
	resp.GameID = id
	writeJSON(w, http.StatusOK, resp)
}
