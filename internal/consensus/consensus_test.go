package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

func weight(a domain.Analyst, w float64, sig domain.SignalType) domain.AnalystWeight {
	return domain.AnalystWeight{Analyst: a, Weight: &w, Signal: sig}
}

func TestAggregate_ReverseCreditsOppositeSide(t *testing.T) {
	for _, w := range []float64{-0.5, -0.3, 0.7} {
		rec := Aggregate(
			map[domain.Analyst]domain.Direction{domain.AnalystSharp: domain.Home},
			[]domain.AnalystWeight{weight(domain.AnalystSharp, w, domain.SignalReverse)},
		)
		assert.Equal(t, 0.0, rec.Home)
		assert.InDelta(t, abs(w), rec.Away, 1e-9)
		require.Len(t, rec.Contributions, 1)
		assert.Equal(t, domain.Away, rec.Contributions[0].Credited)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestAggregate_SeedTable(t *testing.T) {
	weights := SeedWeights(time.Now())
	tests := []struct {
		name       string
		picks      map[domain.Analyst]domain.Direction
		home, away float64
		diff       float64
		rec        string
		confidence string
	}{
		{
			name: "contrarian and system agree, reverse analysts fade",
			picks: map[domain.Analyst]domain.Direction{
				domain.AnalystContrarian: domain.Home,
				domain.AnalystSystem:     domain.Home,
				domain.AnalystSharp:      domain.Away,
				domain.AnalystMomentum:   domain.Away,
				domain.AnalystScout:      domain.Away,
			},
			home: 2.5, away: 0, diff: 2.5, rec: RecommendHome, confidence: ConfidenceHigh,
		},
		{
			name: "reverse analysts on home help away",
			picks: map[domain.Analyst]domain.Direction{
				domain.AnalystSharp:    domain.Home,
				domain.AnalystMomentum: domain.Home,
			},
			home: 0, away: 0.8, diff: -0.8, rec: RecommendAway, confidence: ConfidenceLow,
		},
		{
			name: "split is a pass",
			picks: map[domain.Analyst]domain.Direction{
				domain.AnalystContrarian: domain.Away,
				domain.AnalystSystem:     domain.Home,
			},
			home: 0.7, away: 1.0, diff: -0.3, rec: RecommendPass, confidence: ConfidenceLow,
		},
		{
			name: "medium confidence",
			picks: map[domain.Analyst]domain.Direction{
				domain.AnalystContrarian: domain.Away,
			},
			home: 0, away: 1.0, diff: -1.0, rec: RecommendAway, confidence: ConfidenceMedium,
		},
		{
			name:  "no picks",
			picks: map[domain.Analyst]domain.Direction{},
			rec:   RecommendPass, confidence: ConfidenceLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Aggregate(tt.picks, weights)
			assert.InDelta(t, tt.home, rec.Home, 1e-9)
			assert.InDelta(t, tt.away, rec.Away, 1e-9)
			assert.Equal(t, tt.diff, rec.Diff)
			assert.Equal(t, tt.rec, rec.Recommendation)
			assert.Equal(t, tt.confidence, rec.Confidence)
		})
	}
}

func TestAggregate_SkipsMissingWeights(t *testing.T) {
	rec := Aggregate(
		map[domain.Analyst]domain.Direction{domain.AnalystScout: domain.Home, domain.AnalystSystem: domain.Home},
		[]domain.AnalystWeight{{Analyst: domain.AnalystScout, Signal: domain.SignalNeutral}},
	)
	assert.Empty(t, rec.Contributions)
	assert.Equal(t, RecommendPass, rec.Recommendation)
}

func TestAggregate_Label(t *testing.T) {
	rec := Aggregate(
		map[domain.Analyst]domain.Direction{
			domain.AnalystContrarian: domain.Home,
			domain.AnalystSystem:     domain.Home,
			domain.AnalystScout:      domain.Away,
		},
		SeedWeights(time.Now()),
	)
	assert.Equal(t, RecommendHome, rec.Recommendation)
	assert.Equal(t, "2/3", rec.Label)
}

func TestWeightForAccuracy_Boundaries(t *testing.T) {
	tests := []struct {
		accuracy float64
		want     float64
	}{
		{0.75, 1.0},
		{0.60, 1.0},
		{0.5999, 0.7},
		{0.55, 0.7},
		{0.5499, 0.3},
		{0.50, 0.3},
		{0.4999, -0.3},
		{0.45, -0.3},
		{0.4499, -0.5},
		{0.0, -0.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeightForAccuracy(tt.accuracy), "accuracy %v", tt.accuracy)
	}
	// Sums that land a hair off a boundary classify by the rounded value.
	assert.Equal(t, 0.7, WeightForAccuracy(0.1+0.45))
}

func TestSignalForWeight_Boundaries(t *testing.T) {
	tests := []struct {
		weight float64
		want   domain.SignalType
	}{
		{1.0, domain.SignalMain},
		{0.8, domain.SignalMain},
		{0.79, domain.SignalSecondary},
		{0.5, domain.SignalSecondary},
		{0.49, domain.SignalNeutral},
		{0.0, domain.SignalNeutral},
		{-0.3, domain.SignalNeutral},
		{-0.49, domain.SignalNeutral},
		{-0.5, domain.SignalReverse},
		{-1.0, domain.SignalReverse},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SignalForWeight(tt.weight), "weight %v", tt.weight)
	}
}

func TestCalibrate_TwoStage(t *testing.T) {
	at := time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC)
	tests := []struct {
		accuracy float64
		weight   float64
		signal   domain.SignalType
	}{
		{0.62, 1.0, domain.SignalMain},
		{0.57, 0.7, domain.SignalSecondary},
		{0.52, 0.3, domain.SignalNeutral},
		{0.47, -0.3, domain.SignalNeutral},
		{0.40, -0.5, domain.SignalReverse},
	}
	for _, tt := range tests {
		w := Calibrate(domain.AnalystSharp, tt.accuracy, 40, at)
		require.NotNil(t, w.Weight)
		assert.Equal(t, tt.weight, *w.Weight)
		assert.Equal(t, tt.signal, w.Signal)
		assert.Equal(t, 40, w.SampleSize)
		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), *w.LastBacktestDate)
	}
}

func TestSeedWeights(t *testing.T) {
	seeds := SeedWeights(time.Now())
	require.Len(t, seeds, len(domain.Analysts))
	byName := map[domain.Analyst]domain.AnalystWeight{}
	for _, s := range seeds {
		byName[s.Analyst] = s
	}
	assert.Equal(t, domain.SignalMain, byName[domain.AnalystContrarian].Signal)
	assert.Equal(t, domain.SignalReverse, byName[domain.AnalystMomentum].Signal)
	assert.Equal(t, -0.3, *byName[domain.AnalystMomentum].Weight)
	assert.Equal(t, 0.0, *byName[domain.AnalystScout].Weight)
}
