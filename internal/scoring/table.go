// Package scoring implements the edge scoring models. Each model turns a
// game's market line and the two teams' metrics into a normalized edge in
// [50,100] for the side it favors, plus a tier and signal label.
package scoring

import (
	"math"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// step maps inputs strictly above Above to Value.
type step struct {
	Above float64
	Value float64
}

// StepTable is an ordered boundary table. Rows are checked top-down and
// the first row whose boundary the input exceeds wins; Floor applies when
// none match.
type StepTable struct {
	rows  []step
	floor float64
}

// Lookup returns the adjustment for x.
func (t StepTable) Lookup(x float64) float64 {
	x = roundTo(x, 6)
	for _, r := range t.rows {
		if x > r.Above {
			return r.Value
		}
	}
	return t.floor
}

// band maps inputs at or above Min to Value.
type band struct {
	Min   float64
	Value float64
}

// BandTable is like StepTable with inclusive lower bounds.
type BandTable struct {
	rows  []band
	floor float64
}

// Lookup returns the bonus for x.
func (t BandTable) Lookup(x float64) float64 {
	x = roundTo(x, 6)
	for _, r := range t.rows {
		if x >= r.Min {
			return r.Value
		}
	}
	return t.floor
}

// SpreadLineSteps maps line_diff (expected margin minus market spread) to
// an edge adjustment. Positive favors the home side.
var SpreadLineSteps = StepTable{
	rows: []step{
		{8, 20}, {5, 15}, {3, 10}, {1, 5},
		{-1, 0}, {-3, -5}, {-5, -10}, {-8, -15},
	},
	floor: -20,
}

// TotalDiffSteps maps expected minus market total to an edge adjustment.
// Positive favors the over.
var TotalDiffSteps = StepTable{
	rows: []step{
		{10, 15}, {5, 10}, {2, 5},
		{-2, 0}, {-5, -5}, {-10, -10},
	},
	floor: -15,
}

// PickemNetBands scores the away team's net rating advantage. The 5-8
// point band outscores the larger one.
var PickemNetBands = BandTable{
	rows:  []band{{8, 15}, {5, 20}, {3, 10}},
	floor: 15,
}

// PickemSpreadBands rewards tighter home-favorite spreads.
var PickemSpreadBands = BandTable{
	rows:  []band{{-0.5, 15}, {-1.0, 5}},
	floor: 0,
}

// PickemWinPctBands scores the away team's win percentage advantage.
var PickemWinPctBands = BandTable{
	rows:  []band{{0.15, 5}, {0.10, 3}},
	floor: 0,
}

type tierRow struct {
	Min  float64
	Tier domain.Tier
}

// TierTable maps an edge to an ordinal tier. BetThreshold is the edge at
// which a result becomes actionable.
type TierTable struct {
	rows         []tierRow
	BetThreshold float64
}

// Classify returns the tier for edge.
func (t TierTable) Classify(edge float64) domain.Tier {
	edge = roundTo(edge, 6)
	for _, r := range t.rows {
		if edge >= r.Min {
			return r.Tier
		}
	}
	return domain.TierPass
}

// TierBand is one row of a tier table as exposed to reports.
type TierBand struct {
	Tier domain.Tier
	Min  float64
}

// Bands returns the table rows from the highest tier down.
func (t TierTable) Bands() []TierBand {
	out := make([]TierBand, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, TierBand{Tier: r.Tier, Min: r.Min})
	}
	return out
}

// Threshold returns the lower bound for tier, or 0 if the table has none.
func (t TierTable) Threshold(tier domain.Tier) float64 {
	for _, r := range t.rows {
		if r.Tier == tier {
			return r.Min
		}
	}
	return 0
}

var (
	MoneylineTiers = TierTable{
		rows: []tierRow{
			{85, domain.TierStrongBet}, {80, domain.TierBet},
			{70, domain.TierCaution}, {60, domain.TierLean},
		},
		BetThreshold: 80,
	}
	SpreadTiers = TierTable{
		rows: []tierRow{
			{80, domain.TierStrongBet}, {75, domain.TierBet},
			{65, domain.TierCaution}, {55, domain.TierLean},
		},
		BetThreshold: 75,
	}
	TotalTiers = TierTable{
		rows: []tierRow{
			{78, domain.TierStrongBet}, {72, domain.TierBet},
			{62, domain.TierCaution}, {52, domain.TierLean},
		},
		BetThreshold: 72,
	}
	PickemTiers = TierTable{
		rows: []tierRow{
			{90, domain.TierElite}, {85, domain.TierStrongBet}, {80, domain.TierBet},
			{75, domain.TierLean}, {70, domain.TierWatch},
		},
		BetThreshold: 75,
	}
)

// TiersFor returns the tier table for model.
func TiersFor(m domain.Model) TierTable {
	switch m {
	case domain.ModelSpread:
		return SpreadTiers
	case domain.ModelTotal:
		return TotalTiers
	case domain.ModelPickem:
		return PickemTiers
	default:
		return MoneylineTiers
	}
}

// fold normalizes a raw score around the coin-flip baseline. Raw scores
// are clamped to [0,100] first, so the edge always lands in [50,100] and
// favored reports whether the raw-favored (home or over) side was chosen.
func fold(raw float64) (edge float64, favored bool) {
	raw = math.Max(0, math.Min(100, raw))
	if raw >= 50 {
		return raw, true
	}
	return 100 - raw, false
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func round1(x float64) float64 { return roundTo(x, 1) }
