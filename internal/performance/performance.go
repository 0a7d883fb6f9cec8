// Package performance rolls graded picks and game results up into win
// rate, units and ROI. It never writes.
package performance

import (
	"math"
	"sort"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Stats is the rollup of a set of graded picks.
type Stats struct {
	Total     int     `json:"total"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Pushes    int     `json:"pushes"`
	WinRate   float64 `json:"win_rate"`
	NetUnits  float64 `json:"net_units"`
	ROI       float64 `json:"roi"`
	Staked    float64 `json:"staked"`
	UnitsWon  float64 `json:"units_won"`
	UnitsLost float64 `json:"units_lost"`
}

// Summarize aggregates picks with a graded result. Pending picks are
// ignored. Pushes count toward the stake but not the win-rate denominator.
func Summarize(picks []domain.Pick) Stats {
	var st Stats
	for _, p := range picks {
		if !p.Result.Graded() {
			continue
		}
		stake := p.StakeOrDefault()
		st.Total++
		st.Staked += stake
		switch p.Result {
		case domain.ResultWin:
			st.Wins++
			st.UnitsWon += stake
		case domain.ResultLoss:
			st.Losses++
			st.UnitsLost += stake
		case domain.ResultPush:
			st.Pushes++
		}
	}
	if st.Total == 0 {
		return Stats{}
	}
	decided := max(st.Total-st.Pushes, 1)
	net := st.UnitsWon - st.UnitsLost
	st.WinRate = round(float64(st.Wins)/float64(decided)*100, 1)
	st.NetUnits = round(net, 2)
	if st.Staked > 0 {
		st.ROI = round(net/st.Staked*100, 1)
	}
	return st
}

// ByPickType returns one entry per pick type, including empty ones.
func ByPickType(picks []domain.Pick) map[domain.PickType]Stats {
	out := make(map[domain.PickType]Stats, len(domain.PickTypes))
	for _, t := range domain.PickTypes {
		out[t] = Summarize(filter(picks, func(p domain.Pick) bool { return p.Type == t }))
	}
	return out
}

// ByConsensus groups graded picks by their analyst agreement label.
// Picks without a label are left out.
func ByConsensus(picks []domain.Pick) map[string]Stats {
	return groupBy(picks, func(p domain.Pick) string { return p.Consensus })
}

// ByMonth groups graded picks by the YYYY-MM of their publish time.
// Unpublished picks are left out.
func ByMonth(picks []domain.Pick) map[string]Stats {
	return groupBy(picks, func(p domain.Pick) string {
		if p.PublishedAt == nil {
			return ""
		}
		return p.PublishedAt.UTC().Format("2006-01")
	})
}

// Keys returns the keys of a breakdown in sorted order.
func Keys[K ~string](m map[K]Stats) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func groupBy(picks []domain.Pick, key func(domain.Pick) string) map[string]Stats {
	groups := make(map[string][]domain.Pick)
	for _, p := range picks {
		if !p.Result.Graded() {
			continue
		}
		k := key(p)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], p)
	}
	out := make(map[string]Stats, len(groups))
	for k, ps := range groups {
		out[k] = Summarize(ps)
	}
	return out
}

func filter(picks []domain.Pick, keep func(domain.Pick) bool) []domain.Pick {
	var out []domain.Pick
	for _, p := range picks {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
