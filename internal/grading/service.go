package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

const lockTTL = 30 * time.Second

// Observer receives grading activity. The telemetry collectors implement
// it.
type Observer interface {
	ObserveGrade(kind, result string)
}

// PickEvaluator settles the analyst picks hanging off a graded pick.
type PickEvaluator interface {
	EvaluateAnalystPicks(ctx context.Context, pickID string) (int, error)
}

// SyncReport summarizes one SyncFinished pass.
type SyncReport struct {
	StatusesAdvanced int `json:"statuses_advanced"`
	GamesGraded      int `json:"games_graded"`
	PicksGraded      int `json:"picks_graded"`
	Skipped          int `json:"skipped"`
	Failed           int `json:"failed"`
}

// Service persists line captures, game outcomes and pick results. Every
// write goes through a store guard so repeated or concurrent calls
// converge on the first stored value.
type Service struct {
	games     domain.GameStore
	results   domain.GameResultStore
	picks     domain.PickStore
	audit     domain.AuditStore
	locks     domain.LockManager
	bus       domain.EventBus
	evaluator PickEvaluator
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a grading Service. locks and bus may be nil.
func NewService(
	games domain.GameStore,
	results domain.GameResultStore,
	picks domain.PickStore,
	audit domain.AuditStore,
	locks domain.LockManager,
	bus domain.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		games:   games,
		results: results,
		picks:   picks,
		audit:   audit,
		locks:   locks,
		bus:     bus,
		logger:  logger.With(slog.String("component", "grading")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetEvaluator registers the analyst pick evaluator run after each newly
// graded pick.
func (s *Service) SetEvaluator(e PickEvaluator) { s.evaluator = e }

// SetObserver registers a telemetry observer.
func (s *Service) SetObserver(o Observer) { s.observer = o }

// ObserveLines records the game's current lines as opening lines if none
// were seen before.
func (s *Service) ObserveLines(ctx context.Context, gameID string) error {
	g, err := s.game(ctx, gameID)
	if err != nil {
		return err
	}
	if err := s.results.ObserveOpening(ctx, g.ID, g.HomeSpread, g.TotalLine); err != nil {
		return domain.External("grading: observe lines for game "+g.ID, err)
	}
	return nil
}

// CaptureLines freezes the game's current lines as closing lines. It is a
// no-op returning false once lines were captured.
func (s *Service) CaptureLines(ctx context.Context, gameID string) (bool, error) {
	g, err := s.game(ctx, gameID)
	if err != nil {
		return false, err
	}
	if g.HomeSpread == nil && g.TotalLine == nil {
		return false, domain.NotReady("game", g.ID, "no market lines to capture")
	}

	lines := domain.LineCapture{
		OpeningSpread: g.HomeSpread,
		ClosingSpread: g.HomeSpread,
		OpeningTotal:  g.TotalLine,
		ClosingTotal:  g.TotalLine,
	}
	lines.Captured.Finalize(s.now())

	changed, err := s.results.CaptureLines(ctx, g.ID, lines)
	if err != nil {
		return false, domain.External("grading: capture lines for game "+g.ID, err)
	}
	if !changed {
		s.logger.DebugContext(ctx, "lines already captured", slog.String("game_id", g.ID))
		return false, nil
	}

	s.logger.InfoContext(ctx, "lines captured",
		slog.String("game_id", g.ID),
		slog.Any("closing_spread", g.HomeSpread),
		slog.Any("closing_total", g.TotalLine),
	)
	s.record(ctx, "lines_captured", map[string]any{"game_id": g.ID})
	return true, nil
}

// CaptureUpcoming captures lines for every game tipping off within the
// next window and observes opening lines for games later that day.
func (s *Service) CaptureUpcoming(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()
	games, err := s.games.ListStartingBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return 0, domain.External("grading: list upcoming games", err)
	}

	var captured int
	var errs []error
	for _, g := range games {
		if g.StartsAt.After(now.Add(window)) {
			if err := s.ObserveLines(ctx, g.ID); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		changed, err := s.CaptureLines(ctx, g.ID)
		switch {
		case domain.IsNotReady(err):
			s.logger.WarnContext(ctx, "skipping line capture",
				slog.String("game_id", g.ID),
				slog.String("error", err.Error()),
			)
		case err != nil:
			errs = append(errs, err)
		case changed:
			captured++
		}
	}
	return captured, errors.Join(errs...)
}

// RecordFinalScore stores the final score once and marks the game
// finished.
func (s *Service) RecordFinalScore(ctx context.Context, gameID string, home, away int) (bool, error) {
	if home < 0 || away < 0 {
		return false, fmt.Errorf("grading: negative score for game %s: %w", gameID, domain.ErrInvalidPick)
	}
	changed, err := s.games.RecordFinalScore(ctx, gameID, home, away)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, err
		}
		return false, domain.External("grading: record score for game "+gameID, err)
	}
	if _, err := s.games.AdvanceStatus(ctx, gameID, domain.GameFinished); err != nil {
		return changed, domain.External("grading: finish game "+gameID, err)
	}
	return changed, nil
}

// CaptureResult grades the game against its closing lines. It requires
// final scores and captured lines; a game already graded returns the
// stored outcome with changed=false. While another writer holds the
// game's grading lock it returns that writer's stored outcome once it
// exists, and a NotReadyError until then.
func (s *Service) CaptureResult(ctx context.Context, gameID string) (domain.GradedOutcome, bool, error) {
	g, err := s.game(ctx, gameID)
	if err != nil {
		return domain.GradedOutcome{}, false, err
	}
	if !g.HasFinalScore() {
		return domain.GradedOutcome{}, false, domain.NotReady("game", g.ID, "final score not recorded")
	}
	res, err := s.results.Get(ctx, g.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.GradedOutcome{}, false, domain.NotReady("game", g.ID, "closing lines not captured")
	}
	if err != nil {
		return domain.GradedOutcome{}, false, domain.External("grading: get result for game "+g.ID, err)
	}
	if !res.Lines.Captured.Finalized() {
		return domain.GradedOutcome{}, false, domain.NotReady("game", g.ID, "closing lines not captured")
	}
	if res.Outcome.Graded.Finalized() {
		return res.Outcome, false, nil
	}

	unlock, err := s.lock(ctx, "courtedge:lock:grade:"+g.ID)
	if errors.Is(err, domain.ErrLockHeld) {
		s.logger.DebugContext(ctx, "game grading in progress elsewhere", slog.String("game_id", g.ID))
		stored, err := s.results.Get(ctx, g.ID)
		if err != nil {
			return domain.GradedOutcome{}, false, domain.External("grading: reload result for game "+g.ID, err)
		}
		if stored.Outcome.Graded.Finalized() {
			return stored.Outcome, false, nil
		}
		return domain.GradedOutcome{}, false, domain.NotReady("game", g.ID, "grading in progress")
	}
	if err != nil {
		return domain.GradedOutcome{}, false, domain.External("grading: lock game "+g.ID, err)
	}
	defer unlock()

	outcome := GradeOutcome(res.Lines, *g.HomeScore, *g.AwayScore, s.now())
	changed, err := s.results.SaveOutcome(ctx, g.ID, outcome)
	if err != nil {
		return domain.GradedOutcome{}, false, domain.External("grading: save outcome for game "+g.ID, err)
	}
	if !changed {
		stored, err := s.results.Get(ctx, g.ID)
		if err != nil {
			return domain.GradedOutcome{}, false, domain.External("grading: reload result for game "+g.ID, err)
		}
		return stored.Outcome, false, nil
	}

	s.logger.InfoContext(ctx, "game graded",
		slog.String("game_id", g.ID),
		slog.Int("margin", outcome.Margin),
		slog.String("spread_result", string(outcome.SpreadResult)),
		slog.String("total_result", string(outcome.TotalResult)),
	)
	s.observe("game", string(outcome.SpreadResult))
	s.record(ctx, "game_graded", map[string]any{
		"game_id":       g.ID,
		"spread_result": outcome.SpreadResult,
		"total_result":  outcome.TotalResult,
	})
	s.publish(ctx, domain.Event{Kind: "game_graded", GameID: g.ID, Payload: outcome, At: s.now()})
	return outcome, true, nil
}

// RecordPickResult grades a pick against its game's final score and
// stores the result exactly once. An already recorded pick is returned
// unchanged with changed=false.
func (s *Service) RecordPickResult(ctx context.Context, pickID string) (domain.Pick, bool, error) {
	p, err := s.pick(ctx, pickID)
	if err != nil {
		return domain.Pick{}, false, err
	}
	if p.Recorded.Finalized() {
		return p, false, nil
	}
	g, err := s.game(ctx, p.GameID)
	if err != nil {
		return domain.Pick{}, false, err
	}
	if !g.HasFinalScore() {
		return domain.Pick{}, false, domain.NotReady("pick", p.ID, "final score for game "+g.ID+" not recorded")
	}

	result, err := GradePick(p.Type, p.Side, p.Line, *g.HomeScore, *g.AwayScore)
	if err != nil {
		return domain.Pick{}, false, fmt.Errorf("grading: pick %s: %w", p.ID, err)
	}
	p.Result = result
	p.HomeScore, p.AwayScore = g.HomeScore, g.AwayScore
	p.ResultNote = fmt.Sprintf("Final: %s %d, %s %d", g.AwayAbbr, *g.AwayScore, g.HomeAbbr, *g.HomeScore)
	p.Recorded.Finalize(s.now())

	changed, err := s.picks.RecordResult(ctx, p)
	if err != nil {
		return domain.Pick{}, false, domain.External("grading: record result for pick "+p.ID, err)
	}
	if !changed {
		stored, err := s.pick(ctx, p.ID)
		return stored, false, err
	}

	s.logger.InfoContext(ctx, "pick graded",
		slog.String("pick_id", p.ID),
		slog.String("game_id", g.ID),
		slog.String("type", string(p.Type)),
		slog.String("result", string(result)),
	)
	s.observe("pick", string(result))
	s.record(ctx, "pick_graded", map[string]any{"pick_id": p.ID, "game_id": g.ID, "result": result})
	s.publish(ctx, domain.Event{Kind: "pick_graded", GameID: g.ID, PickID: p.ID, Payload: map[string]any{"result": result}, At: s.now()})

	if s.evaluator != nil {
		if _, err := s.evaluator.EvaluateAnalystPicks(ctx, p.ID); err != nil {
			s.logger.WarnContext(ctx, "analyst pick evaluation failed",
				slog.String("pick_id", p.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return p, true, nil
}

// CorrectPickResult overwrites a pick's result. It is the only path that
// can change a recorded result and always leaves an audit entry.
func (s *Service) CorrectPickResult(ctx context.Context, pickID string, result domain.PickResult, note string) (domain.Pick, error) {
	if !result.Graded() {
		return domain.Pick{}, fmt.Errorf("grading: correct pick %s to %q: %w", pickID, result, domain.ErrInvalidPick)
	}
	p, err := s.pick(ctx, pickID)
	if err != nil {
		return domain.Pick{}, err
	}
	previous := p.Result
	p.Result = result
	if note != "" {
		p.ResultNote = note
	}
	p.Recorded.Finalize(s.now())

	if err := s.picks.CorrectResult(ctx, p); err != nil {
		return domain.Pick{}, domain.External("grading: correct result for pick "+p.ID, err)
	}
	s.logger.WarnContext(ctx, "pick result corrected",
		slog.String("pick_id", p.ID),
		slog.String("from", string(previous)),
		slog.String("to", string(result)),
	)
	s.record(ctx, "pick_result_corrected", map[string]any{
		"pick_id": p.ID,
		"from":    previous,
		"to":      result,
		"note":    note,
	})
	return p, nil
}

// SyncFinished advances game statuses, grades every finished game with
// captured lines, then grades every published pending pick whose game has
// a final score. Games and picks that are not ready are skipped; the
// returned error joins collaborator failures only.
func (s *Service) SyncFinished(ctx context.Context) (SyncReport, error) {
	var rep SyncReport
	var errs []error
	now := s.now()

	games, err := s.games.ListAwaitingResult(ctx, now)
	if err != nil {
		return rep, domain.External("grading: list games awaiting result", err)
	}
	for _, g := range games {
		if next := domain.EstimateStatus("", g.StartsAt, now); next != g.Status {
			advanced, err := s.games.AdvanceStatus(ctx, g.ID, next)
			if err != nil {
				errs = append(errs, domain.External("grading: advance status for game "+g.ID, err))
				rep.Failed++
				continue
			}
			if advanced {
				rep.StatusesAdvanced++
			}
		}
		if !g.HasFinalScore() {
			continue
		}
		_, changed, err := s.CaptureResult(ctx, g.ID)
		s.tally(ctx, &rep, &errs, err, "game_id", g.ID)
		if err == nil && changed {
			rep.GamesGraded++
		}
	}

	pending, err := s.picks.ListPendingPublished(ctx)
	if err != nil {
		errs = append(errs, domain.External("grading: list pending picks", err))
		return rep, errors.Join(errs...)
	}
	for _, p := range pending {
		_, changed, err := s.RecordPickResult(ctx, p.ID)
		s.tally(ctx, &rep, &errs, err, "pick_id", p.ID)
		if err == nil && changed {
			rep.PicksGraded++
		}
	}

	s.logger.InfoContext(ctx, "grading sync complete",
		slog.Int("statuses_advanced", rep.StatusesAdvanced),
		slog.Int("games_graded", rep.GamesGraded),
		slog.Int("picks_graded", rep.PicksGraded),
		slog.Int("skipped", rep.Skipped),
		slog.Int("failed", rep.Failed),
	)
	return rep, errors.Join(errs...)
}

func (s *Service) tally(ctx context.Context, rep *SyncReport, errs *[]error, err error, key, id string) {
	switch {
	case err == nil:
	case domain.IsNotReady(err):
		rep.Skipped++
		s.logger.DebugContext(ctx, "not ready", slog.String(key, id), slog.String("error", err.Error()))
	case domain.IsRetryable(err):
		rep.Failed++
		*errs = append(*errs, err)
	default:
		// Logic errors such as a malformed pick are reported but do not
		// fail the batch.
		rep.Skipped++
		s.logger.ErrorContext(ctx, "cannot grade", slog.String(key, id), slog.String("error", err.Error()))
	}
}

func (s *Service) game(ctx context.Context, id string) (domain.Game, error) {
	g, err := s.games.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Game{}, fmt.Errorf("grading: game %s: %w", id, err)
		}
		return domain.Game{}, domain.External("grading: get game "+id, err)
	}
	return g, nil
}

func (s *Service) pick(ctx context.Context, id string) (domain.Pick, error) {
	p, err := s.picks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Pick{}, fmt.Errorf("grading: pick %s: %w", id, err)
		}
		return domain.Pick{}, domain.External("grading: get pick "+id, err)
	}
	return p, nil
}

func (s *Service) lock(ctx context.Context, key string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}
	return s.locks.Acquire(ctx, key, lockTTL)
}

func (s *Service) observe(kind, result string) {
	if s.observer != nil {
		s.observer.ObserveGrade(kind, result)
	}
}

func (s *Service) record(ctx context.Context, event string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) publish(ctx context.Context, ev domain.Event) {
	if err := domain.PublishEvent(ctx, s.bus, domain.ChannelGraded, ev); err != nil {
		s.logger.WarnContext(ctx, "publish failed",
			slog.String("kind", ev.Kind),
			slog.String("error", err.Error()),
		)
	}
}
