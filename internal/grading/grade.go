// Package grading settles picks and games once final scores are known.
//
// GradePick and GradeOutcome are pure and share one sign convention: a
// spread line is added to the picked side's margin and the sign of the
// result decides it. Service persists both with write-once guards.
package grading

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// GradePick grades a pick of type t on side at line against the final
// score. Moneyline picks ignore the line.
func GradePick(t domain.PickType, side domain.PickSide, line *float64, home, away int) (domain.PickResult, error) {
	if !t.Valid() || !side.ValidFor(t) {
		return "", fmt.Errorf("grading: %s pick on side %q: %w", t, side, domain.ErrInvalidPick)
	}
	if t != domain.PickMoneyline && line == nil {
		return "", fmt.Errorf("grading: %s pick without a line: %w", t, domain.ErrInvalidPick)
	}

	switch t {
	case domain.PickSpread:
		margin := float64(home - away)
		if side == domain.SideAway {
			margin = -margin
		}
		return bySign(margin + *line), nil

	case domain.PickTotal:
		diff := float64(home+away) - *line
		if side == domain.SideUnder {
			diff = -diff
		}
		return bySign(diff), nil

	default:
		homeWon := home > away
		if (side == domain.SideHome) == homeWon {
			return domain.ResultWin, nil
		}
		return domain.ResultLoss, nil
	}
}

func bySign(x float64) domain.PickResult {
	switch {
	case x > 0:
		return domain.ResultWin
	case x < 0:
		return domain.ResultLoss
	default:
		return domain.ResultPush
	}
}

// GradeOutcome derives the canonical game outcome from the captured
// closing lines. A missing closing spread or total leaves that result
// empty.
func GradeOutcome(lines domain.LineCapture, home, away int, at time.Time) domain.GradedOutcome {
	out := domain.GradedOutcome{
		HomeScore:   home,
		AwayScore:   away,
		Margin:      home - away,
		TotalPoints: home + away,
	}

	if lines.ClosingSpread != nil {
		switch bySign(float64(out.Margin) + *lines.ClosingSpread) {
		case domain.ResultWin:
			out.SpreadResult = domain.SpreadHomeCovered
		case domain.ResultLoss:
			out.SpreadResult = domain.SpreadAwayCovered
		default:
			out.SpreadResult = domain.SpreadPush
		}
		covered := out.SpreadResult == domain.SpreadHomeCovered
		out.SpreadCoveredHome = &covered
	}

	if lines.ClosingTotal != nil {
		switch bySign(float64(out.TotalPoints) - *lines.ClosingTotal) {
		case domain.ResultWin:
			out.TotalResult = domain.TotalOver
		case domain.ResultLoss:
			out.TotalResult = domain.TotalUnder
		default:
			out.TotalResult = domain.TotalPush
		}
		over := out.TotalResult == domain.TotalOver
		out.TotalOver = &over
	}

	out.Graded.Finalize(at)
	return out
}
