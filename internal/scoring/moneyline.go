package scoring

import (
	"math"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

const (
	mlHomeCourt    = 5.0
	mlWinPctWeight = 30.0
	mlNetWeight    = 2.0
	mlNetCap       = 10.0
	mlNetCapValue  = 20.0

	// A favored side that is only warming up is flagged in this edge range.
	riskyLow  = 65.0
	riskyHigh = 80.0
)

// Moneyline scores the straight-up winner. The home side starts from the
// coin flip plus home court; win percentage and net rating gaps move it.
func Moneyline(m Matchup) domain.EdgeResult {
	netDiff := m.Home.NetRating - m.Away.NetRating
	netTerm := netDiff * mlNetWeight
	if math.Abs(netDiff) >= mlNetCap {
		netTerm = math.Copysign(mlNetCapValue, netDiff)
	}
	raw := 50 + (m.Home.WinPct-m.Away.WinPct)*mlWinPctWeight + netTerm + mlHomeCourt

	edge, homeFavored := fold(raw)
	res := m.base(domain.ModelMoneyline)
	res.RawEdge = round1(raw)
	res.Edge = round1(edge)
	if homeFavored {
		res.Side, res.Recommended, res.Flow = string(domain.Home), res.Home, m.Home.Flow
	} else {
		res.Side, res.Recommended, res.Flow = string(domain.Away), res.Away, m.Away.Flow
	}

	res.Risky = edge >= riskyLow && edge < riskyHigh && res.Flow == domain.FlowWarming
	res.Tier = MoneylineTiers.Classify(res.Edge)
	res.Signal = moneylineSignal(res.Tier, res.Risky)
	res.Actionable = res.Edge >= MoneylineTiers.BetThreshold && !res.Risky
	return res
}

func moneylineSignal(t domain.Tier, risky bool) string {
	if risky {
		return "RISKY"
	}
	switch t {
	case domain.TierStrongBet:
		return "STRONG BET"
	case domain.TierBet:
		return "BET"
	case domain.TierCaution:
		return "CAUTION"
	case domain.TierLean:
		return "LEAN"
	default:
		return "PASS"
	}
}
