package performance

import (
	"fmt"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// ATS is a team's record against the spread.
type ATS struct {
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Pushes int    `json:"pushes"`
	Record string `json:"record"`
}

// OU is the over/under record of a team's games.
type OU struct {
	Overs  int    `json:"overs"`
	Unders int    `json:"unders"`
	Pushes int    `json:"pushes"`
	Record string `json:"record"`
}

// ATSRecord counts covers from team's side of each graded game. Games
// the team did not play in are ignored.
func ATSRecord(team string, games []domain.GameWithResult) ATS {
	var rec ATS
	for _, gr := range games {
		home := gr.Game.HomeAbbr == team
		if !home && gr.Game.AwayAbbr != team {
			continue
		}
		switch gr.Result.Outcome.SpreadResult {
		case domain.SpreadHomeCovered:
			if home {
				rec.Wins++
			} else {
				rec.Losses++
			}
		case domain.SpreadAwayCovered:
			if home {
				rec.Losses++
			} else {
				rec.Wins++
			}
		case domain.SpreadPush:
			rec.Pushes++
		}
	}
	rec.Record = fmt.Sprintf("%d-%d-%d", rec.Wins, rec.Losses, rec.Pushes)
	return rec
}

// OURecord counts overs and unders across team's graded games.
func OURecord(team string, games []domain.GameWithResult) OU {
	var rec OU
	for _, gr := range games {
		if gr.Game.HomeAbbr != team && gr.Game.AwayAbbr != team {
			continue
		}
		switch gr.Result.Outcome.TotalResult {
		case domain.TotalOver:
			rec.Overs++
		case domain.TotalUnder:
			rec.Unders++
		case domain.TotalPush:
			rec.Pushes++
		}
	}
	rec.Record = fmt.Sprintf("%d-%d-%d", rec.Overs, rec.Unders, rec.Pushes)
	return rec
}
