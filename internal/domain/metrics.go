package domain

import (
	"context"
	"strings"
)

// FlowState is the categorical momentum tag attached to a team regime.
type FlowState string

const (
	FlowNeutral    FlowState = "NEUTRAL"
	FlowWarming    FlowState = "WARMING"
	FlowHotStreak  FlowState = "HOT_STREAK"
	FlowStrongUp   FlowState = "STRONG_UP"
	FlowColdStreak FlowState = "COLD_STREAK"
	FlowSlump      FlowState = "SLUMP"
)

// ParseFlowState upper-cases s; an empty value is NEUTRAL.
func ParseFlowState(s string) FlowState {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return FlowNeutral
	}
	return FlowState(s)
}

// Hot reports a positive momentum tag.
func (f FlowState) Hot() bool { return f == FlowHotStreak || f == FlowStrongUp }

// Cold reports a negative momentum tag.
func (f FlowState) Cold() bool { return f == FlowColdStreak || f == FlowSlump }

// Defaults used when a team metric is missing.
const (
	DefaultWinPct    = 0.5
	DefaultNetRating = 0.0
	DefaultRating    = 114.0
	DefaultPace      = 100.0
	DefaultTrendPct  = 0.5
	DefaultRank      = 15
)

// TeamMetrics is the fully resolved metric set consumed by the scoring
// models. Every field is populated; absent source data has already been
// replaced with the documented defaults.
type TeamMetrics struct {
	Team       string    `json:"team"`
	WinPct     float64   `json:"win_pct"`
	NetRating  float64   `json:"net_rating"`
	OffRating  float64   `json:"off_rating"`
	DefRating  float64   `json:"def_rating"`
	Pace       float64   `json:"pace"`
	ATSHomePct float64   `json:"ats_home_pct"`
	ATSAwayPct float64   `json:"ats_away_pct"`
	OverPct    float64   `json:"over_pct"`
	Flow       FlowState `json:"flow"`
	// Known is false when nothing at all was found for the team.
	Known bool `json:"known"`
}

// DefaultTeamMetrics returns the neutral metric set for team.
func DefaultTeamMetrics(team string) TeamMetrics {
	return PartialTeamMetrics{Team: team}.Resolve()
}

// PartialTeamMetrics is the raw shape coming back from a data source where
// any field may be missing.
type PartialTeamMetrics struct {
	Team       string
	WinPct     *float64
	NetRating  *float64
	OffRating  *float64
	DefRating  *float64
	Pace       *float64
	ATSHomePct *float64
	ATSAwayPct *float64
	OverPct    *float64
	Flow       *string
}

// Resolve fills every missing field with its default.
func (p PartialTeamMetrics) Resolve() TeamMetrics {
	m := TeamMetrics{
		Team:       p.Team,
		WinPct:     orDefault(p.WinPct, DefaultWinPct),
		NetRating:  orDefault(p.NetRating, DefaultNetRating),
		OffRating:  orDefault(p.OffRating, DefaultRating),
		DefRating:  orDefault(p.DefRating, DefaultRating),
		Pace:       orDefault(p.Pace, DefaultPace),
		ATSHomePct: orDefault(p.ATSHomePct, DefaultTrendPct),
		ATSAwayPct: orDefault(p.ATSAwayPct, DefaultTrendPct),
		OverPct:    orDefault(p.OverPct, DefaultTrendPct),
		Flow:       FlowNeutral,
	}
	if p.Flow != nil {
		m.Flow = ParseFlowState(*p.Flow)
	}
	m.Known = p.WinPct != nil || p.NetRating != nil || p.OffRating != nil || p.DefRating != nil ||
		p.Pace != nil || p.ATSHomePct != nil || p.ATSAwayPct != nil || p.OverPct != nil || p.Flow != nil
	return m
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// TeamRanks holds league ranks (1 = best) for trigger detection.
type TeamRanks struct {
	Team     string `json:"team"`
	OffRank  int    `json:"off_rank"`
	DefRank  int    `json:"def_rank"`
	PaceRank int    `json:"pace_rank"`
	Known    bool   `json:"known"`
}

// DefaultTeamRanks returns neutral ranks for team.
func DefaultTeamRanks(team string) TeamRanks {
	return TeamRanks{Team: team, OffRank: DefaultRank, DefRank: DefaultRank, PaceRank: DefaultRank}
}

// PartialTeamRanks is the raw rank row where any field may be missing.
type PartialTeamRanks struct {
	Team     string
	OffRank  *int
	DefRank  *int
	PaceRank *int
}

// Resolve fills missing ranks with DefaultRank.
func (p PartialTeamRanks) Resolve() TeamRanks {
	r := DefaultTeamRanks(p.Team)
	if p.OffRank != nil {
		r.OffRank = *p.OffRank
		r.Known = true
	}
	if p.DefRank != nil {
		r.DefRank = *p.DefRank
		r.Known = true
	}
	if p.PaceRank != nil {
		r.PaceRank = *p.PaceRank
		r.Known = true
	}
	return r
}

// MetricLookup resolves team metrics by abbreviation. A missing team yields
// DefaultTeamMetrics, never an error; errors are collaborator failures.
type MetricLookup interface {
	TeamMetrics(ctx context.Context, team string) (TeamMetrics, error)
}

// RankLookup resolves advanced-stat ranks by abbreviation with the same
// degrade-to-default contract as MetricLookup.
type RankLookup interface {
	TeamRanks(ctx context.Context, team string) (TeamRanks, error)
}
