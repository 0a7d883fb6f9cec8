package weakness

import "github.com/alanyoungcy/courtedge/internal/domain"

// ActualOutcome is what happened to team against the spread. A push is a
// push for either side.
func ActualOutcome(g domain.Game, team string, spread domain.SpreadResult) domain.Outcome {
	isHome := g.IsHomeTeam(team)
	switch spread {
	case domain.SpreadHomeCovered:
		if isHome {
			return domain.OutcomeCovered
		}
		return domain.OutcomeCoverFail
	case domain.SpreadAwayCovered:
		if isHome {
			return domain.OutcomeCoverFail
		}
		return domain.OutcomeCovered
	case domain.SpreadPush:
		return domain.OutcomePush
	default:
		return domain.OutcomeUnknown
	}
}

// Evaluate scores p against the graded outcome of its game.
func Evaluate(p domain.WeaknessPrediction, g domain.Game, outcome domain.GradedOutcome) (domain.Outcome, bool) {
	actual := ActualOutcome(g, p.Team, outcome.SpreadResult)
	return actual, actual == p.PredictedOutcome
}
