// Package consensus combines analyst picks into a weighted recommendation
// and keeps the analyst weight table calibrated from graded history.
package consensus

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Recommendation values.
const (
	RecommendHome = "HOME"
	RecommendAway = "AWAY"
	RecommendPass = "PASS"
)

// Confidence values.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

const (
	leanThreshold    = 0.5
	highConfidence   = 1.5
	mediumConfidence = 0.8
)

// Contribution is what one analyst added to the aggregate.
type Contribution struct {
	Analyst  domain.Analyst    `json:"analyst"`
	Picked   domain.Direction  `json:"picked"`
	Credited domain.Direction  `json:"credited"`
	Amount   float64           `json:"amount"`
	Signal   domain.SignalType `json:"signal"`
}

// Recommendation is the aggregate consensus for one game.
type Recommendation struct {
	Home           float64 `json:"home"`
	Away           float64 `json:"away"`
	Diff           float64 `json:"diff"`
	Recommendation string  `json:"recommendation"`
	Confidence     string  `json:"confidence"`

	// Label counts raw analyst picks agreeing with the recommendation,
	// e.g. "4/5". Empty on PASS.
	Label         string         `json:"label,omitempty"`
	Contributions []Contribution `json:"contributions"`
}

// Aggregate scores picks against weights. Analysts with no pick or no
// weight are skipped. Reverse analysts credit the opposite side with the
// absolute weight; everyone else credits the picked side with the signed
// weight.
func Aggregate(picks map[domain.Analyst]domain.Direction, weights []domain.AnalystWeight) Recommendation {
	rec := Recommendation{Contributions: []Contribution{}}
	sorted := append([]domain.AnalystWeight(nil), weights...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Analyst < sorted[j].Analyst })

	for _, w := range sorted {
		side, ok := picks[w.Analyst]
		if !ok || w.Weight == nil {
			continue
		}
		credited, amount := w.Signal.Apply(side, *w.Weight)
		if credited == domain.Home {
			rec.Home += amount
		} else {
			rec.Away += amount
		}
		rec.Contributions = append(rec.Contributions, Contribution{
			Analyst:  w.Analyst,
			Picked:   side,
			Credited: credited,
			Amount:   amount,
			Signal:   w.Signal,
		})
	}

	diff := rec.Home - rec.Away
	rec.Diff = roundTo(diff, 2)
	switch {
	case diff > leanThreshold:
		rec.Recommendation = RecommendHome
	case diff < -leanThreshold:
		rec.Recommendation = RecommendAway
	default:
		rec.Recommendation = RecommendPass
	}
	switch abs := math.Abs(diff); {
	case abs > highConfidence:
		rec.Confidence = ConfidenceHigh
	case abs > mediumConfidence:
		rec.Confidence = ConfidenceMedium
	default:
		rec.Confidence = ConfidenceLow
	}
	if rec.Recommendation != RecommendPass {
		agree := 0
		for _, side := range picks {
			if string(side) == rec.Recommendation {
				agree++
			}
		}
		rec.Label = fmt.Sprintf("%d/%d", agree, len(picks))
	}
	return rec
}

type weightBand struct {
	minAccuracy float64
	weight      float64
}

// Accuracy lower bounds are inclusive.
var accuracyBands = []weightBand{
	{0.60, 1.0},
	{0.55, 0.7},
	{0.50, 0.3},
	{0.45, -0.3},
}

const floorWeight = -0.5

// WeightForAccuracy maps backtest accuracy to a signed weight.
func WeightForAccuracy(accuracy float64) float64 {
	accuracy = roundTo(accuracy, 6)
	for _, b := range accuracyBands {
		if accuracy >= b.minAccuracy {
			return b.weight
		}
	}
	return floorWeight
}

// SignalForWeight classifies a weight. Neutral is the open interval
// (-0.5, 0.5), so a weight of exactly -0.5 is a reverse signal.
func SignalForWeight(weight float64) domain.SignalType {
	weight = roundTo(weight, 6)
	switch {
	case weight >= 0.8:
		return domain.SignalMain
	case weight >= 0.5:
		return domain.SignalSecondary
	case weight > -0.5:
		return domain.SignalNeutral
	default:
		return domain.SignalReverse
	}
}

// Calibrate derives a weight row from accuracy in two stages:
// accuracy to weight, then weight to signal.
func Calibrate(analyst domain.Analyst, accuracy float64, sampleSize int, at time.Time) domain.AnalystWeight {
	weight := WeightForAccuracy(accuracy)
	acc := accuracy
	day := at.UTC().Truncate(24 * time.Hour)
	return domain.AnalystWeight{
		Analyst:          analyst,
		Accuracy:         &acc,
		Weight:           &weight,
		Signal:           SignalForWeight(weight),
		SampleSize:       sampleSize,
		LastBacktestDate: &day,
		UpdatedAt:        at,
	}
}

// SeedWeights returns the initial weight table from the first backtest.
// The rows are stored as measured, not re-derived.
func SeedWeights(at time.Time) []domain.AnalystWeight {
	seed := func(a domain.Analyst, acc, weight float64, sig domain.SignalType) domain.AnalystWeight {
		return domain.AnalystWeight{Analyst: a, Accuracy: &acc, Weight: &weight, Signal: sig, UpdatedAt: at}
	}
	return []domain.AnalystWeight{
		seed(domain.AnalystContrarian, 0.619, 1.0, domain.SignalMain),
		seed(domain.AnalystSystem, 0.555, 0.7, domain.SignalSecondary),
		seed(domain.AnalystSharp, 0.401, -0.5, domain.SignalReverse),
		seed(domain.AnalystMomentum, 0.452, -0.3, domain.SignalReverse),
		seed(domain.AnalystScout, 0.500, 0.0, domain.SignalNeutral),
	}
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
