package scoring

import "github.com/alanyoungcy/courtedge/internal/domain"

// Pickem window: the home team is favored by at most this many points.
const (
	pickemMaxFavorite = -1.5
	pickemBase        = 60.0
)

// Pickem types by how close the spread is to even.
const (
	PickemTight  = "TIGHT"
	PickemMedium = "MEDIUM"
	PickemWide   = "WIDE"
)

// PickemEligible reports whether the game falls in the pickem window: a
// market spread in [-1.5, 0] with the away team rated better.
func PickemEligible(m Matchup) bool {
	s := m.Game.HomeSpread
	if s == nil {
		return false
	}
	return *s >= pickemMaxFavorite && *s <= 0 && m.Away.NetRating > m.Home.NetRating
}

// Pickem scores the underdog-by-line away team in a near-even game. The
// pick is always the away side. ok is false for ineligible games.
func Pickem(m Matchup) (domain.EdgeResult, bool) {
	if !PickemEligible(m) {
		return domain.EdgeResult{}, false
	}
	spread := *m.Game.HomeSpread
	netEdge := m.Away.NetRating - m.Home.NetRating

	raw := pickemBase +
		PickemNetBands.Lookup(netEdge) +
		PickemSpreadBands.Lookup(spread) +
		PickemWinPctBands.Lookup(m.Away.WinPct-m.Home.WinPct)

	edge, _ := fold(raw)
	res := m.base(domain.ModelPickem)
	res.MarketSpread = m.Game.HomeSpread
	res.PickemType = pickemType(spread)
	res.NetEdge = round1(netEdge)
	res.PickemSpread = -spread
	res.RawEdge = round1(raw)
	res.Edge = round1(edge)
	res.Side = string(domain.Away)
	res.Recommended = res.Away
	res.Flow = m.Away.Flow
	res.Tier = PickemTiers.Classify(res.Edge)
	res.Signal = pickemSignal(res.Tier)
	res.Actionable = res.Edge >= PickemTiers.BetThreshold
	return res, true
}

func pickemType(spread float64) string {
	switch {
	case spread >= -0.5:
		return PickemTight
	case spread >= -1.0:
		return PickemMedium
	default:
		return PickemWide
	}
}

func pickemSignal(t domain.Tier) string {
	switch t {
	case domain.TierElite:
		return "ELITE PICKEM"
	case domain.TierStrongBet:
		return "STRONG PICKEM"
	case domain.TierBet:
		return "PICKEM BET"
	case domain.TierLean:
		return "PICKEM LEAN"
	case domain.TierWatch:
		return "PICKEM WATCH"
	default:
		return "PICKEM PASS"
	}
}
