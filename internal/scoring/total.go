package scoring

import "github.com/alanyoungcy/courtedge/internal/domain"

// DefaultMarketTotal is used when the game has no total line.
const DefaultMarketTotal = 230.0

const (
	highOffense = 118.0
	lowOffense  = 110.0
	// Defensive rating is points allowed, so high means a poor defense.
	poorDefense  = 116.0
	stoutDefense = 108.0
	styleBonus   = 5.0
	overBonus    = 3.0

	Over  = "OVER"
	Under = "UNDER"
)

// Total scores the over/under against a pace-adjusted expected total.
func Total(m Matchup) domain.EdgeResult {
	market := DefaultMarketTotal
	if m.Game.TotalLine != nil {
		market = *m.Game.TotalLine
	}
	expected := (m.Home.OffRating + m.Away.OffRating) * ((m.Home.Pace + m.Away.Pace) / 200)
	diff := expected - market

	raw := 50 + TotalDiffSteps.Lookup(diff)
	raw += bothAdjust(m.Home.OffRating, m.Away.OffRating, highOffense, lowOffense, styleBonus)
	raw += bothAdjust(m.Home.DefRating, m.Away.DefRating, poorDefense, stoutDefense, styleBonus)
	raw += bothAdjust(m.Home.OverPct, m.Away.OverPct, atsStrong, atsWeak, overBonus)

	edge, over := fold(raw)
	res := m.base(domain.ModelTotal)
	res.MarketTotal = market
	res.ExpectedTotal = round1(expected)
	res.TotalDiff = round1(diff)
	res.RawEdge = round1(raw)
	res.Edge = round1(edge)
	res.Side = Under
	if over {
		res.Side = Over
	}
	res.Recommended = res.Side
	res.Tier = TotalTiers.Classify(res.Edge)
	res.Signal = totalSignal(res.Tier, res.Side)
	res.Actionable = res.Edge >= TotalTiers.BetThreshold
	return res
}

// bothAdjust applies +bonus only when both teams exceed hi and -bonus only
// when both fall below lo.
func bothAdjust(a, b, hi, lo, bonus float64) float64 {
	switch {
	case a > hi && b > hi:
		return bonus
	case a < lo && b < lo:
		return -bonus
	}
	return 0
}

func totalSignal(t domain.Tier, side string) string {
	switch t {
	case domain.TierStrongBet:
		return "STRONG " + side
	case domain.TierBet:
		return side + " BET"
	case domain.TierCaution:
		return side + " LEAN"
	case domain.TierLean:
		return side + " WATCH"
	default:
		return "TOTAL PASS"
	}
}
