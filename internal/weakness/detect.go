// Package weakness detects schedule and matchup triggers that predict a
// team will fail to cover, and scores those predictions once games end.
package weakness

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Trigger is one rule firing for one team.
type Trigger struct {
	Type       domain.TriggerType
	Detail     string
	Confidence float64
	Predicted  domain.Outcome
}

// Detection ties a fired trigger to the team it applies to.
type Detection struct {
	Team string
	Side domain.Direction
	Trigger
}

var restPattern = regexp.MustCompile(`REST-?(\d+)`)

const minRestDeficit = 2

// ScheduleTriggers parses a team's schedule annotation such as "B2B",
// "3in4" or "REST-2".
func ScheduleTriggers(edge string) []Trigger {
	var out []Trigger
	if edge == "" {
		return out
	}
	if strings.Contains(edge, "B2B") {
		out = append(out, Trigger{domain.TriggerB2B, "2nd game of back-to-back", 0.65, domain.OutcomeCoverFail})
	}
	if strings.Contains(edge, "3in4") || strings.Contains(edge, "3IN4") {
		out = append(out, Trigger{domain.Trigger3In4, "3rd game in 4 days", 0.60, domain.OutcomeCoverFail})
	}
	if m := restPattern.FindStringSubmatch(edge); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil && days >= minRestDeficit {
			out = append(out, Trigger{
				domain.TriggerRestDisadvantage,
				fmt.Sprintf("%d fewer rest days", days),
				0.55,
				domain.OutcomeCoverFail,
			})
		}
	}
	return out
}

// Rank cutoffs; rank 1 is best.
const (
	weakRank  = 20
	eliteRank = 5
	slowRank  = 25
)

// MatchupTriggers compares a team's ranks to its opponent's. Both rank
// rows must come from real data; a defaulted row on either side yields
// nothing.
func MatchupTriggers(team, opp domain.TeamRanks, oppLabel string) []Trigger {
	var out []Trigger
	if !team.Known || !opp.Known {
		return out
	}
	if team.OffRank > weakRank && opp.DefRank <= eliteRank {
		out = append(out, Trigger{
			domain.TriggerBadMatchupOffense,
			fmt.Sprintf("Weak OFF (#%d) vs Elite DEF (#%d %s)", team.OffRank, opp.DefRank, oppLabel),
			0.60,
			domain.OutcomeCoverFail,
		})
	}
	if team.DefRank > weakRank && opp.OffRank <= eliteRank {
		out = append(out, Trigger{
			domain.TriggerBadMatchupDefense,
			fmt.Sprintf("Weak DEF (#%d) vs Elite OFF (#%d %s)", team.DefRank, opp.OffRank, oppLabel),
			0.58,
			domain.OutcomeCoverFail,
		})
	}
	if team.PaceRank > slowRank && opp.PaceRank <= eliteRank {
		out = append(out, Trigger{
			domain.TriggerPaceMismatchSlow,
			fmt.Sprintf("Slow pace (#%d) vs Fast (#%d %s)", team.PaceRank, opp.PaceRank, oppLabel),
			0.55,
			domain.OutcomeCoverFail,
		})
	}
	if team.PaceRank <= eliteRank && opp.PaceRank > slowRank {
		out = append(out, Trigger{
			domain.TriggerPaceMismatchFast,
			fmt.Sprintf("Fast pace (#%d) vs Slow (#%d %s)", team.PaceRank, opp.PaceRank, oppLabel),
			0.52,
			domain.OutcomeUnder,
		})
	}
	return out
}

// Detect runs every rule for both sides of g. Schedule and matchup rules
// are independent, so missing ranks never suppress schedule triggers.
func Detect(g domain.Game, home, away domain.TeamRanks) []Detection {
	homeTeam, awayTeam := teamLabel(g.HomeAbbr, g.HomeTeam), teamLabel(g.AwayAbbr, g.AwayTeam)

	var out []Detection
	add := func(team string, side domain.Direction, ts []Trigger) {
		for _, t := range ts {
			out = append(out, Detection{Team: team, Side: side, Trigger: t})
		}
	}
	add(homeTeam, domain.Home, ScheduleTriggers(g.HomeEdge))
	add(homeTeam, domain.Home, MatchupTriggers(home, away, awayTeam))
	add(awayTeam, domain.Away, ScheduleTriggers(g.AwayEdge))
	add(awayTeam, domain.Away, MatchupTriggers(away, home, homeTeam))
	return out
}

func teamLabel(abbr, name string) string {
	if abbr != "" {
		return abbr
	}
	return name
}
