package consensus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Config holds the recalibration parameters.
type Config struct {
	// MinSample is the smallest evaluated sample that may move a weight.
	MinSample int
	// Window is how far back recalibration reads graded history. Zero
	// means all history.
	Window time.Duration
}

// AccuracyReport is one analyst's evaluated record.
type AccuracyReport struct {
	Analyst  domain.Analyst `json:"analyst"`
	Correct  int            `json:"correct"`
	Total    int            `json:"total"`
	Accuracy float64        `json:"accuracy"`
	From     *time.Time     `json:"from,omitempty"`
	To       *time.Time     `json:"to,omitempty"`
}

// Service runs consensus, analyst pick bookkeeping and recalibration.
type Service struct {
	weights      domain.AnalystWeightStore
	analystPicks domain.AnalystPickStore
	picks        domain.PickStore
	audit        domain.AuditStore
	bus          domain.EventBus
	cfg          Config
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates a consensus Service. bus may be nil.
func NewService(
	weights domain.AnalystWeightStore,
	analystPicks domain.AnalystPickStore,
	picks domain.PickStore,
	audit domain.AuditStore,
	bus domain.EventBus,
	cfg Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		weights:      weights,
		analystPicks: analystPicks,
		picks:        picks,
		audit:        audit,
		bus:          bus,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "consensus")),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// EnsureSeeded writes the seed weight table when no weights exist yet.
func (s *Service) EnsureSeeded(ctx context.Context) (bool, error) {
	existing, err := s.weights.List(ctx)
	if err != nil {
		return false, domain.External("consensus: list weights", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	for _, w := range SeedWeights(s.now()) {
		if err := s.weights.Upsert(ctx, w); err != nil {
			return false, domain.External("consensus: seed weight "+string(w.Analyst), err)
		}
	}
	s.logger.InfoContext(ctx, "analyst weights seeded")
	return true, nil
}

// Weights returns the current weight table, falling back to the seed
// table when nothing is stored.
func (s *Service) Weights(ctx context.Context) ([]domain.AnalystWeight, error) {
	ws, err := s.weights.List(ctx)
	if err != nil {
		return nil, domain.External("consensus: list weights", err)
	}
	if len(ws) == 0 {
		return SeedWeights(s.now()), nil
	}
	return ws, nil
}

// Recommend aggregates the analyst picks for one game against the current
// weights.
func (s *Service) Recommend(ctx context.Context, picks map[domain.Analyst]domain.Direction) (Recommendation, error) {
	ws, err := s.Weights(ctx)
	if err != nil {
		return Recommendation{}, err
	}
	return Aggregate(picks, ws), nil
}

// RecordAnalystPicks stores each analyst's call for the pick. Existing
// rows for (pick, analyst) are kept as they are.
func (s *Service) RecordAnalystPicks(ctx context.Context, pickID string, calls map[domain.Analyst]domain.AnalystCall) ([]domain.AnalystPick, error) {
	if _, err := s.pick(ctx, pickID); err != nil {
		return nil, err
	}

	out := make([]domain.AnalystPick, 0, len(calls))
	for _, analyst := range domain.Analysts {
		call, ok := calls[analyst]
		if !ok {
			continue
		}
		side, ok := domain.ParseDirection(string(call.Side))
		if !ok {
			return out, fmt.Errorf("consensus: %s side %q on pick %s: %w", analyst, call.Side, pickID, domain.ErrInvalidPick)
		}
		stored, created, err := s.analystPicks.FindOrCreate(ctx, domain.AnalystPick{
			PickID:     pickID,
			Analyst:    analyst,
			Side:       side,
			Confidence: call.Confidence,
			Rationale:  call.Rationale,
			CreatedAt:  s.now(),
		})
		if err != nil {
			return out, domain.External("consensus: record "+string(analyst)+" pick for "+pickID, err)
		}
		if !created {
			s.logger.DebugContext(ctx, "analyst pick exists",
				slog.String("pick_id", pickID),
				slog.String("analyst", string(analyst)),
			)
		}
		out = append(out, stored)
	}
	return out, nil
}

// EvaluateAnalystPicks marks each unevaluated analyst pick correct or not
// from the parent pick's recorded result. Pushes and pending results
// evaluate nothing, as do total picks which have no HOME/AWAY side.
func (s *Service) EvaluateAnalystPicks(ctx context.Context, pickID string) (int, error) {
	p, err := s.pick(ctx, pickID)
	if err != nil {
		return 0, err
	}
	if !p.Recorded.Finalized() {
		return 0, domain.NotReady("pick", p.ID, "result not recorded")
	}
	winner, ok := winningSide(p)
	if !ok {
		return 0, nil
	}

	aps, err := s.analystPicks.ListByPick(ctx, p.ID)
	if err != nil {
		return 0, domain.External("consensus: list analyst picks for "+p.ID, err)
	}
	now := s.now()
	var evaluated int
	for _, ap := range aps {
		if ap.Evaluated.Finalized() {
			continue
		}
		changed, err := s.analystPicks.MarkEvaluated(ctx, ap.ID, ap.Side == winner, now)
		if err != nil {
			return evaluated, domain.External("consensus: evaluate analyst pick "+ap.ID, err)
		}
		if changed {
			evaluated++
		}
	}
	if evaluated > 0 {
		s.logger.InfoContext(ctx, "analyst picks evaluated",
			slog.String("pick_id", p.ID),
			slog.String("winning_side", string(winner)),
			slog.Int("count", evaluated),
		)
	}
	return evaluated, nil
}

// winningSide is the side that would have been right: the pick side on a
// win, the other side on a loss.
func winningSide(p domain.Pick) (domain.Direction, bool) {
	side, ok := domain.ParseDirection(string(p.Side))
	if !ok {
		return "", false
	}
	switch p.Result {
	case domain.ResultWin:
		return side, true
	case domain.ResultLoss:
		return side.Opposite(), true
	default:
		return "", false
	}
}

// Accuracy returns the analyst's evaluated record inside the optional
// published_at window, or nil when there is nothing evaluated.
func (s *Service) Accuracy(ctx context.Context, analyst domain.Analyst, from, to *time.Time) (*AccuracyReport, error) {
	correct, total, err := s.analystPicks.CountEvaluated(ctx, analyst, from, to)
	if err != nil {
		return nil, domain.External("consensus: count "+string(analyst)+" picks", err)
	}
	if total == 0 {
		return nil, nil
	}
	return &AccuracyReport{
		Analyst:  analyst,
		Correct:  correct,
		Total:    total,
		Accuracy: roundTo(float64(correct)/float64(total), 3),
		From:     from,
		To:       to,
	}, nil
}

// AccuracyAll returns the record of every analyst with evaluated picks.
func (s *Service) AccuracyAll(ctx context.Context, from, to *time.Time) (map[domain.Analyst]AccuracyReport, error) {
	out := make(map[domain.Analyst]AccuracyReport, len(domain.Analysts))
	for _, a := range domain.Analysts {
		rep, err := s.Accuracy(ctx, a, from, to)
		if err != nil {
			return nil, err
		}
		if rep != nil {
			out[a] = *rep
		}
	}
	return out, nil
}

// Recalibrate recomputes weights from evaluated history over the
// configured window. Analysts below the minimum sample keep their current
// row.
func (s *Service) Recalibrate(ctx context.Context) ([]domain.AnalystWeight, error) {
	now := s.now()
	var from *time.Time
	if s.cfg.Window > 0 {
		f := now.Add(-s.cfg.Window)
		from = &f
	}
	reports, err := s.AccuracyAll(ctx, from, &now)
	if err != nil {
		return nil, err
	}

	var updated []domain.AnalystWeight
	for _, a := range domain.Analysts {
		rep, ok := reports[a]
		if !ok || rep.Total < s.cfg.MinSample {
			s.logger.DebugContext(ctx, "insufficient sample for recalibration",
				slog.String("analyst", string(a)),
				slog.Int("sample", rep.Total),
				slog.Int("min_sample", s.cfg.MinSample),
			)
			continue
		}
		w := Calibrate(a, rep.Accuracy, rep.Total, now)
		if err := s.weights.Upsert(ctx, w); err != nil {
			return updated, domain.External("consensus: upsert weight "+string(a), err)
		}
		updated = append(updated, w)
		s.logger.InfoContext(ctx, "analyst recalibrated",
			slog.String("analyst", string(a)),
			slog.Float64("accuracy", rep.Accuracy),
			slog.Float64("weight", *w.Weight),
			slog.String("signal", string(w.Signal)),
			slog.Int("sample", rep.Total),
		)
	}

	if len(updated) > 0 {
		s.record(ctx, updated)
		if err := domain.PublishEvent(ctx, s.bus, domain.ChannelWeights, domain.Event{
			Kind: "weights_recalibrated", Payload: updated, At: now,
		}); err != nil {
			s.logger.WarnContext(ctx, "publish failed", slog.String("error", err.Error()))
		}
	}
	return updated, nil
}

func (s *Service) record(ctx context.Context, ws []domain.AnalystWeight) {
	if s.audit == nil {
		return
	}
	detail := make(map[string]any, len(ws))
	for _, w := range ws {
		detail[string(w.Analyst)] = map[string]any{
			"accuracy": *w.Accuracy,
			"weight":   *w.Weight,
			"signal":   w.Signal,
			"sample":   w.SampleSize,
		}
	}
	if err := s.audit.Log(ctx, "weights_recalibrated", detail); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}
}

func (s *Service) pick(ctx context.Context, id string) (domain.Pick, error) {
	p, err := s.picks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Pick{}, fmt.Errorf("consensus: pick %s: %w", id, err)
		}
		return domain.Pick{}, domain.External("consensus: get pick "+id, err)
	}
	return p, nil
}
