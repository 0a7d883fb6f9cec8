package scoring

import "github.com/alanyoungcy/courtedge/internal/domain"

// Matchup is the full input to a scoring model: the game snapshot with its
// market lines and both teams' resolved metrics.
type Matchup struct {
	Game domain.Game
	Home domain.TeamMetrics
	Away domain.TeamMetrics
}

func (m Matchup) homeLabel() string {
	if m.Game.HomeAbbr != "" {
		return m.Game.HomeAbbr
	}
	return m.Game.HomeTeam
}

func (m Matchup) awayLabel() string {
	if m.Game.AwayAbbr != "" {
		return m.Game.AwayAbbr
	}
	return m.Game.AwayTeam
}

// base fills the fields every model reports.
func (m Matchup) base(model domain.Model) domain.EdgeResult {
	return domain.EdgeResult{
		Model:         model,
		GameID:        m.Game.ID,
		StartsAt:      m.Game.StartsAt,
		Home:          m.homeLabel(),
		Away:          m.awayLabel(),
		Matchup:       m.Game.Matchup(),
		Status:        m.Game.Status,
		HomeScore:     m.Game.HomeScore,
		AwayScore:     m.Game.AwayScore,
		HomeWinPct:    roundTo(m.Home.WinPct*100, 0),
		AwayWinPct:    roundTo(m.Away.WinPct*100, 0),
		HomeNetRating: round1(m.Home.NetRating),
		AwayNetRating: round1(m.Away.NetRating),
	}
}

// ModelFunc scores one matchup. ok is false when the model does not apply
// to the game, which only happens for the pickem filter.
type ModelFunc func(Matchup) (res domain.EdgeResult, ok bool)

// ModelFor returns the scoring function for model.
func ModelFor(model domain.Model) (ModelFunc, bool) {
	switch model {
	case domain.ModelMoneyline:
		return always(Moneyline), true
	case domain.ModelSpread:
		return always(Spread), true
	case domain.ModelTotal:
		return always(Total), true
	case domain.ModelPickem:
		return Pickem, true
	}
	return nil, false
}

func always(f func(Matchup) domain.EdgeResult) ModelFunc {
	return func(m Matchup) (domain.EdgeResult, bool) { return f(m), true }
}
