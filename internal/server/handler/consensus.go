package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/courtedge/internal/consensus"
	"github.com/alanyoungcy/courtedge/internal/domain"
)

// ConsensusService is the analyst consensus surface exposed over HTTP.
type ConsensusService interface {
	Weights(ctx context.Context) ([]domain.AnalystWeight, error)
	Recommend(ctx context.Context, picks map[domain.Analyst]domain.Direction) (consensus.Recommendation, error)
	RecordAnalystPicks(ctx context.Context, pickID string, calls map[domain.Analyst]domain.AnalystCall) ([]domain.AnalystPick, error)
	Accuracy(ctx context.Context, analyst domain.Analyst, from, to *time.Time) (*consensus.AccuracyReport, error)
	AccuracyAll(ctx context.Context, from, to *time.Time) (map[domain.Analyst]consensus.AccuracyReport, error)
	Recalibrate(ctx context.Context) ([]domain.AnalystWeight, error)
}

// ConsensusHandler serves analyst weights, consensus and accuracy.
type ConsensusHandler struct {
	consensus ConsensusService
	loc       *time.Location
	logger    *slog.Logger
}

// NewConsensusHandler creates a ConsensusHandler.
func NewConsensusHandler(svc ConsensusService, loc *time.Location, logger *slog.Logger) *ConsensusHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ConsensusHandler{consensus: svc, loc: loc, logger: logger}
}

// parseCalls validates analyst names and sides.
func parseCalls(raw map[string]string) (map[domain.Analyst]domain.Direction, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("picks must not be empty")
	}
	out := make(map[domain.Analyst]domain.Direction, len(raw))
	for name, side := range raw {
		a, ok := domain.ParseAnalyst(name)
		if !ok {
			return nil, fmt.Errorf("unknown analyst %q", name)
		}
		d, ok := domain.ParseDirection(side)
		if !ok {
			return nil, fmt.Errorf("invalid side %q for %s", side, a)
		}
		out[a] = d
	}
	return out, nil
}

type consensusRequest struct {
	Picks map[string]string `json:"picks"`
}

// Consensus computes the weighted recommendation for a set of analyst calls.
// POST /api/consensus  {"picks": {"SHARP": "home", "SCOUT": "away"}}
func (h *ConsensusHandler) Consensus(w http.ResponseWriter, r *http.Request) {
	var req consensusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	picks, err := parseCalls(req.Picks)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := h.consensus.Recommend(r.Context(), picks)
	if err != nil {
		fail(w, r, h.logger, "consensus", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type analystCallRequest struct {
	Side       string `json:"side"`
	Confidence string `json:"confidence"`
	Rationale  string `json:"rationale"`
}

type analystPickDTO struct {
	ID          string     `json:"id"`
	PickID      string     `json:"pick_id"`
	Analyst     string     `json:"analyst"`
	Side        string     `json:"side"`
	Confidence  string     `json:"confidence,omitempty"`
	Rationale   string     `json:"rationale,omitempty"`
	Correct     *bool      `json:"correct,omitempty"`
	EvaluatedAt *time.Time `json:"evaluated_at,omitempty"`
}

// RecordAnalystPicks stores analyst calls for a pick. Existing calls for an
// analyst are returned unchanged.
// POST /api/picks/{id}/analyst-picks
func (h *ConsensusHandler) RecordAnalystPicks(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing pick id")
		return
	}
	var req map[string]analystCallRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "no analyst calls")
		return
	}
	calls := make(map[domain.Analyst]domain.AnalystCall, len(req))
	for name, c := range req {
		a, ok := domain.ParseAnalyst(name)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown analyst %q", name))
			return
		}
		side, ok := domain.ParseDirection(c.Side)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid side %q for %s", c.Side, a))
			return
		}
		calls[a] = domain.AnalystCall{Side: side, Confidence: c.Confidence, Rationale: c.Rationale}
	}

	stored, err := h.consensus.RecordAnalystPicks(r.Context(), id, calls)
	if err != nil {
		fail(w, r, h.logger, "record analyst picks", err, slog.String("pick_id", id))
		return
	}
	out := make([]analystPickDTO, 0, len(stored))
	for _, ap := range stored {
		out = append(out, analystPickDTO{
			ID:          ap.ID,
			PickID:      ap.PickID,
			Analyst:     string(ap.Analyst),
			Side:        string(ap.Side),
			Confidence:  ap.Confidence,
			Rationale:   ap.Rationale,
			Correct:     ap.Correct,
			EvaluatedAt: ap.Evaluated.Timestamp(),
		})
	}
	writeJSON(w, http.StatusCreated, out)
}

// Weights lists the current analyst calibration.
// GET /api/analysts/weights
func (h *ConsensusHandler) Weights(w http.ResponseWriter, r *http.Request) {
	ws, err := h.consensus.Weights(r.Context())
	if err != nil {
		fail(w, r, h.logger, "list weights", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeightDTOs(ws))
}

// Accuracy reports analyst accuracy, optionally for one analyst and window.
// GET /api/analysts/accuracy?analyst=SHARP&from=2026-01-01&to=2026-01-31
func (h *ConsensusHandler) Accuracy(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r, h.loc, "from", "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if name := r.URL.Query().Get("analyst"); name != "" {
		a, ok := domain.ParseAnalyst(name)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown analyst %q", name))
			return
		}
		rep, err := h.consensus.Accuracy(r.Context(), a, from, to)
		if err != nil {
			fail(w, r, h.logger, "analyst accuracy", err, slog.String("analyst", string(a)))
			return
		}
		if rep == nil {
			writeJSON(w, http.StatusOK, map[string]any{"analyst": a, "total": 0})
			return
		}
		writeJSON(w, http.StatusOK, rep)
		return
	}

	all, err := h.consensus.AccuracyAll(r.Context(), from, to)
	if err != nil {
		fail(w, r, h.logger, "analyst accuracy", err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// Recalibrate recomputes every analyst weight from its evaluated record.
// POST /api/analysts/recalibrate
func (h *ConsensusHandler) Recalibrate(w http.ResponseWriter, r *http.Request) {
	ws, err := h.consensus.Recalibrate(r.Context())
	if err != nil {
		fail(w, r, h.logger, "recalibrate", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeightDTOs(ws))
}
