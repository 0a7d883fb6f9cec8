package weakness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Config holds trigger engine parameters.
type Config struct {
	TriggerMinSample int
	TeamMinSample    int
	// Source is stamped on every prediction this process creates.
	Source string
}

// Observer receives trigger activity. The telemetry collectors implement
// it.
type Observer interface {
	ObserveTrigger(trigger domain.TriggerType, event string)
}

// Service detects and evaluates weakness predictions.
type Service struct {
	games    domain.GameStore
	results  domain.GameResultStore
	preds    domain.PredictionStore
	ranks    domain.RankLookup
	bus      domain.EventBus
	observer Observer
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a weakness Service. bus may be nil.
func NewService(
	games domain.GameStore,
	results domain.GameResultStore,
	preds domain.PredictionStore,
	ranks domain.RankLookup,
	bus domain.EventBus,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.TriggerMinSample <= 0 {
		cfg.TriggerMinSample = DefaultTriggerMinSample
	}
	if cfg.TeamMinSample <= 0 {
		cfg.TeamMinSample = DefaultTeamMinSample
	}
	if cfg.Source == "" {
		cfg.Source = "courtedge"
	}
	return &Service{
		games:   games,
		results: results,
		preds:   preds,
		ranks:   ranks,
		bus:     bus,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "weakness")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetObserver registers a telemetry observer.
func (s *Service) SetObserver(o Observer) { s.observer = o }

// DetectForGame runs every trigger rule for the game and returns the
// stored predictions, newly created or already present.
func (s *Service) DetectForGame(ctx context.Context, gameID string) ([]domain.WeaknessPrediction, error) {
	g, err := s.game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	home, err := s.ranks.TeamRanks(ctx, teamLabel(g.HomeAbbr, g.HomeTeam))
	if err != nil {
		return nil, domain.External("weakness: home ranks for game "+g.ID, err)
	}
	away, err := s.ranks.TeamRanks(ctx, teamLabel(g.AwayAbbr, g.AwayTeam))
	if err != nil {
		return nil, domain.External("weakness: away ranks for game "+g.ID, err)
	}

	now := s.now()
	var out []domain.WeaknessPrediction
	for _, d := range Detect(g, home, away) {
		stored, created, err := s.preds.CreateIfAbsent(ctx, domain.WeaknessPrediction{
			GameID:           g.ID,
			Team:             d.Team,
			Trigger:          d.Type,
			Detail:           d.Detail,
			Confidence:       d.Confidence,
			PredictedOutcome: d.Predicted,
			Source:           s.cfg.Source,
			TriggeredAt:      now,
		})
		if err != nil {
			return out, domain.External(fmt.Sprintf("weakness: store %s for %s in game %s", d.Type, d.Team, g.ID), err)
		}
		out = append(out, stored)
		if !created {
			continue
		}
		s.logger.InfoContext(ctx, "trigger detected",
			slog.String("game_id", g.ID),
			slog.String("team", d.Team),
			slog.String("trigger_type", string(d.Type)),
			slog.String("detail", d.Detail),
		)
		s.observe(d.Type, "detected")
		s.publish(ctx, domain.Event{Kind: "trigger_detected", GameID: g.ID, Payload: stored, At: now})
	}
	return out, nil
}

// DetectUpcoming runs detection for every game tipping off within window.
func (s *Service) DetectUpcoming(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()
	games, err := s.games.ListStartingBetween(ctx, now, now.Add(window))
	if err != nil {
		return 0, domain.External("weakness: list upcoming games", err)
	}
	var n int
	var errs []error
	for _, g := range games {
		preds, err := s.DetectForGame(ctx, g.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n += len(preds)
	}
	return n, errors.Join(errs...)
}

// EvaluateGame scores every unevaluated prediction for a finished game.
// It returns how many predictions were evaluated by this call.
func (s *Service) EvaluateGame(ctx context.Context, gameID string) (int, error) {
	g, err := s.game(ctx, gameID)
	if err != nil {
		return 0, err
	}
	if g.Status != domain.GameFinished {
		return 0, domain.NotReady("game", g.ID, "game not finished")
	}
	res, err := s.results.Get(ctx, g.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, domain.NotReady("game", g.ID, "no graded outcome")
	}
	if err != nil {
		return 0, domain.External("weakness: get result for game "+g.ID, err)
	}
	if !res.Outcome.Graded.Finalized() {
		return 0, domain.NotReady("game", g.ID, "no graded outcome")
	}

	preds, err := s.preds.ListByGame(ctx, g.ID)
	if err != nil {
		return 0, domain.External("weakness: list predictions for game "+g.ID, err)
	}
	now := s.now()
	var n int
	for _, p := range preds {
		if p.Evaluated.Finalized() {
			continue
		}
		actual, hit := Evaluate(p, g, res.Outcome)
		changed, err := s.preds.MarkEvaluated(ctx, p.ID, actual, hit, now)
		if err != nil {
			return n, domain.External(fmt.Sprintf("weakness: evaluate %s for %s in game %s", p.Trigger, p.Team, g.ID), err)
		}
		if !changed {
			continue
		}
		n++
		event := "miss"
		if hit {
			event = "hit"
		}
		s.observe(p.Trigger, event)
		s.logger.InfoContext(ctx, "trigger evaluated",
			slog.String("game_id", g.ID),
			slog.String("team", p.Team),
			slog.String("trigger_type", string(p.Trigger)),
			slog.String("actual", string(actual)),
			slog.Bool("hit", hit),
		)
	}
	if n > 0 {
		s.publish(ctx, domain.Event{Kind: "triggers_evaluated", GameID: g.ID, Payload: map[string]int{"evaluated": n}, At: now})
	}
	return n, nil
}

// EvaluatePending evaluates every game that still has unevaluated
// predictions. Games that are not ready are skipped.
func (s *Service) EvaluatePending(ctx context.Context) (int, error) {
	all, err := s.preds.ListAll(ctx)
	if err != nil {
		return 0, domain.External("weakness: list predictions", err)
	}
	seen := make(map[string]bool)
	var n int
	var errs []error
	for _, p := range all {
		if p.Evaluated.Finalized() || seen[p.GameID] {
			continue
		}
		seen[p.GameID] = true
		count, err := s.EvaluateGame(ctx, p.GameID)
		switch {
		case domain.IsNotReady(err):
			s.logger.DebugContext(ctx, "evaluation not ready",
				slog.String("game_id", p.GameID),
				slog.String("error", err.Error()),
			)
		case err != nil:
			errs = append(errs, err)
		}
		n += count
	}
	return n, errors.Join(errs...)
}

// Statistics summarizes every stored prediction.
func (s *Service) Statistics(ctx context.Context) (Stats, error) {
	all, err := s.preds.ListAll(ctx)
	if err != nil {
		return Stats{}, domain.External("weakness: list predictions", err)
	}
	return Statistics(all, s.cfg.TriggerMinSample), nil
}

// TeamHitRate returns the team record; ok is false on insufficient data.
func (s *Service) TeamHitRate(ctx context.Context, team string) (TeamHitRate, bool, error) {
	all, err := s.preds.ListAll(ctx)
	if err != nil {
		return TeamHitRate{}, false, domain.External("weakness: list predictions", err)
	}
	rec, ok := HitRateByTeam(all, team, s.cfg.TeamMinSample)
	return rec, ok, nil
}

func (s *Service) game(ctx context.Context, id string) (domain.Game, error) {
	g, err := s.games.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Game{}, fmt.Errorf("weakness: game %s: %w", id, err)
		}
		return domain.Game{}, domain.External("weakness: get game "+id, err)
	}
	return g, nil
}

func (s *Service) observe(t domain.TriggerType, event string) {
	if s.observer != nil {
		s.observer.ObserveTrigger(t, event)
	}
}

func (s *Service) publish(ctx context.Context, ev domain.Event) {
	if err := domain.PublishEvent(ctx, s.bus, domain.ChannelTriggers, ev); err != nil {
		s.logger.WarnContext(ctx, "publish failed",
			slog.String("kind", ev.Kind),
			slog.String("error", err.Error()),
		)
	}
}
