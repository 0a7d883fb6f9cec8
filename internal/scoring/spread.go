package scoring

import (
	"fmt"
	"math"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

const (
	spreadHomeCourt = 3.5
	// Line differences at least this large are called out in the signal.
	spreadValueCallout = 5.0

	atsStrong   = 0.55
	atsWeak     = 0.45
	atsBonus    = 3.0
	spreadFlowB = 2.0
)

// Spread scores the market spread against the margin implied by net
// ratings. A missing market spread is treated as a pick'em (0).
func Spread(m Matchup) domain.EdgeResult {
	market := 0.0
	if m.Game.HomeSpread != nil {
		market = *m.Game.HomeSpread
	}
	expected := (m.Home.NetRating - m.Away.NetRating) + spreadHomeCourt
	lineDiff := expected - market

	raw := 50 + SpreadLineSteps.Lookup(lineDiff)
	raw += trendAdjust(m.Home.ATSHomePct, atsBonus)
	raw -= trendAdjust(m.Away.ATSAwayPct, atsBonus)
	raw += flowAdjust(m.Home.Flow, spreadFlowB)
	raw -= flowAdjust(m.Away.Flow, spreadFlowB)

	edge, homeFavored := fold(raw)
	res := m.base(domain.ModelSpread)
	res.MarketSpread = m.Game.HomeSpread
	res.ExpectedMargin = round1(expected)
	res.LineDiff = round1(lineDiff)
	res.RawEdge = round1(raw)
	res.Edge = round1(edge)
	if homeFavored {
		res.Side, res.Recommended, res.Flow = string(domain.Home), res.Home, m.Home.Flow
	} else {
		res.Side, res.Recommended, res.Flow = string(domain.Away), res.Away, m.Away.Flow
	}
	res.Tier = SpreadTiers.Classify(res.Edge)
	res.Signal = spreadSignal(res.Tier, res.LineDiff)
	res.Actionable = res.Edge >= SpreadTiers.BetThreshold
	return res
}

// trendAdjust returns +bonus for a strong trend, -bonus for a weak one.
func trendAdjust(pct, bonus float64) float64 {
	switch {
	case pct > atsStrong:
		return bonus
	case pct < atsWeak:
		return -bonus
	}
	return 0
}

func flowAdjust(f domain.FlowState, bonus float64) float64 {
	switch {
	case f.Hot():
		return bonus
	case f.Cold():
		return -bonus
	}
	return 0
}

// spreadSignal labels a spread tier. Bet tiers carry the signed line
// difference once it reaches spreadValueCallout.
func spreadSignal(t domain.Tier, lineDiff float64) string {
	var value string
	if math.Abs(lineDiff) >= spreadValueCallout {
		value = fmt.Sprintf(" (%+.1fpt)", lineDiff)
	}
	switch t {
	case domain.TierStrongBet:
		return "STRONG SPREAD" + value
	case domain.TierBet:
		return "SPREAD BET" + value
	case domain.TierCaution:
		return "SPREAD LEAN"
	case domain.TierLean:
		return "SPREAD WATCH"
	default:
		return "SPREAD PASS"
	}
}
