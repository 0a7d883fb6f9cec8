package graph

import (
	"context"
	"math"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

const teamMetricsQuery = `
MATCH (t:Team {abbr: $team})
OPTIONAL MATCH (r:TeamRegime) WHERE r.team CONTAINS t.name
RETURN t.win_pct AS win_pct, t.net_rtg AS net_rtg, t.off_rtg AS off_rtg,
       t.def_rtg AS def_rtg, t.pace AS pace, t.ats_home_pct AS ats_home_pct,
       t.ats_away_pct AS ats_away_pct, t.over_pct AS over_pct,
       r.flow_state AS flow_state
LIMIT 1`

const teamRanksQuery = `
MATCH (t:Team {abbr: $team})
RETURN t.off_rank AS off_rank, t.def_rank AS def_rank, t.pace_rank AS pace_rank
LIMIT 1`

// Querier runs a Cypher statement. *Client satisfies it.
type Querier interface {
	Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
}

// Lookup resolves team metrics and ranks from Team and TeamRegime nodes.
// A team with no node, or a node missing properties, degrades to the
// domain defaults.
type Lookup struct {
	q Querier
}

// NewLookup creates a Lookup over q.
func NewLookup(q Querier) *Lookup {
	return &Lookup{q: q}
}

// TeamMetrics implements domain.MetricLookup.
func (l *Lookup) TeamMetrics(ctx context.Context, team string) (domain.TeamMetrics, error) {
	rows, err := l.q.Query(ctx, teamMetricsQuery, map[string]any{"team": team})
	if err != nil {
		return domain.TeamMetrics{}, err
	}
	if len(rows) == 0 {
		return domain.DefaultTeamMetrics(team), nil
	}
	r := rows[0]
	return domain.PartialTeamMetrics{
		Team:       team,
		WinPct:     r.floatCol("win_pct"),
		NetRating:  r.floatCol("net_rtg"),
		OffRating:  r.floatCol("off_rtg"),
		DefRating:  r.floatCol("def_rtg"),
		Pace:       r.floatCol("pace"),
		ATSHomePct: r.floatCol("ats_home_pct"),
		ATSAwayPct: r.floatCol("ats_away_pct"),
		OverPct:    r.floatCol("over_pct"),
		Flow:       r.stringCol("flow_state"),
	}.Resolve(), nil
}

// TeamRanks implements domain.RankLookup.
func (l *Lookup) TeamRanks(ctx context.Context, team string) (domain.TeamRanks, error) {
	rows, err := l.q.Query(ctx, teamRanksQuery, map[string]any{"team": team})
	if err != nil {
		return domain.TeamRanks{}, err
	}
	if len(rows) == 0 {
		return domain.DefaultTeamRanks(team), nil
	}
	r := rows[0]
	return domain.PartialTeamRanks{
		Team:     team,
		OffRank:  r.intCol("off_rank"),
		DefRank:  r.intCol("def_rank"),
		PaceRank: r.intCol("pace_rank"),
	}.Resolve(), nil
}

func (r Row) floatCol(col string) *float64 {
	switch v := r[col].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

func (r Row) intCol(col string) *int {
	f := r.floatCol(col)
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

func (r Row) stringCol(col string) *string {
	if s, ok := r[col].(string); ok {
		return &s
	}
	return nil
}

var (
	_ domain.MetricLookup = (*Lookup)(nil)
	_ domain.RankLookup   = (*Lookup)(nil)
)
