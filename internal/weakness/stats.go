package weakness

import (
	"math"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Minimum evaluated samples before a hit rate is reported.
const (
	DefaultTriggerMinSample = 10
	DefaultTeamMinSample    = 5
)

// HitRate is the evaluated record of one trigger type.
type HitRate struct {
	Trigger domain.TriggerType `json:"trigger_type"`
	Total   int                `json:"total"`
	Hits    int                `json:"hits"`
	Misses  int                `json:"misses"`
	HitRate float64            `json:"hit_rate"`
}

// TriggerCount is one trigger's slice of a team record.
type TriggerCount struct {
	Trigger domain.TriggerType `json:"trigger"`
	Count   int                `json:"count"`
	HitRate float64            `json:"hit_rate"`
}

// TeamHitRate is the evaluated record of one team.
type TeamHitRate struct {
	Team      string         `json:"team"`
	Total     int            `json:"total"`
	Hits      int            `json:"hits"`
	HitRate   float64        `json:"hit_rate"`
	ByTrigger []TriggerCount `json:"by_trigger"`
}

// Stats is the overall prediction summary.
type Stats struct {
	Total          int       `json:"total_predictions"`
	Evaluated      int       `json:"evaluated"`
	Unevaluated    int       `json:"unevaluated"`
	OverallHitRate float64   `json:"overall_hit_rate"`
	ByTrigger      []HitRate `json:"by_trigger"`
}

func evaluated(preds []domain.WeaknessPrediction, keep func(domain.WeaknessPrediction) bool) (total, hits int) {
	for _, p := range preds {
		if !p.Evaluated.Finalized() || !keep(p) {
			continue
		}
		total++
		if p.Hit != nil && *p.Hit {
			hits++
		}
	}
	return total, hits
}

// HitRateByTrigger returns the record for trigger. ok is false when fewer
// than minSample predictions were evaluated.
func HitRateByTrigger(preds []domain.WeaknessPrediction, trigger domain.TriggerType, minSample int) (HitRate, bool) {
	total, hits := evaluated(preds, func(p domain.WeaknessPrediction) bool { return p.Trigger == trigger })
	if total == 0 || total < minSample {
		return HitRate{}, false
	}
	return HitRate{
		Trigger: trigger,
		Total:   total,
		Hits:    hits,
		Misses:  total - hits,
		HitRate: percent(hits, total),
	}, true
}

// HitRateByTeam returns the record for team with a per-trigger breakdown.
// ok is false below minSample.
func HitRateByTeam(preds []domain.WeaknessPrediction, team string, minSample int) (TeamHitRate, bool) {
	mine := func(p domain.WeaknessPrediction) bool { return p.Team == team }
	total, hits := evaluated(preds, mine)
	if total == 0 || total < minSample {
		return TeamHitRate{}, false
	}
	rec := TeamHitRate{Team: team, Total: total, Hits: hits, HitRate: percent(hits, total), ByTrigger: []TriggerCount{}}
	for _, tt := range domain.TriggerTypes {
		n, h := evaluated(preds, func(p domain.WeaknessPrediction) bool { return mine(p) && p.Trigger == tt })
		if n == 0 {
			continue
		}
		rec.ByTrigger = append(rec.ByTrigger, TriggerCount{Trigger: tt, Count: n, HitRate: percent(h, n)})
	}
	return rec, true
}

// Statistics summarizes every prediction. Trigger types below minSample
// are left out of ByTrigger.
func Statistics(preds []domain.WeaknessPrediction, minSample int) Stats {
	total, hits := evaluated(preds, func(domain.WeaknessPrediction) bool { return true })
	st := Stats{
		Total:       len(preds),
		Evaluated:   total,
		Unevaluated: len(preds) - total,
		ByTrigger:   []HitRate{},
	}
	if total > 0 {
		st.OverallHitRate = percent(hits, total)
	}
	for _, tt := range domain.TriggerTypes {
		if hr, ok := HitRateByTrigger(preds, tt, minSample); ok {
			st.ByTrigger = append(st.ByTrigger, hr)
		}
	}
	return st
}

func percent(hits, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*1000) / 10
}
