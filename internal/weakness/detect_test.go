package weakness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

func ranks(team string, off, def, pace int) domain.TeamRanks {
	return domain.TeamRanks{Team: team, OffRank: off, DefRank: def, PaceRank: pace, Known: true}
}

func types(ts []Trigger) []domain.TriggerType {
	out := make([]domain.TriggerType, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Type)
	}
	return out
}

func TestScheduleTriggers(t *testing.T) {
	tests := []struct {
		name string
		edge string
		want []domain.TriggerType
	}{
		{"empty", "", []domain.TriggerType{}},
		{"back to back", "B2B", []domain.TriggerType{domain.TriggerB2B}},
		{"three in four lower", "3in4", []domain.TriggerType{domain.Trigger3In4}},
		{"three in four upper", "3IN4", []domain.TriggerType{domain.Trigger3In4}},
		{"rest two", "REST-2", []domain.TriggerType{domain.TriggerRestDisadvantage}},
		{"rest without dash", "REST3", []domain.TriggerType{domain.TriggerRestDisadvantage}},
		{"rest one ignored", "REST-1", []domain.TriggerType{}},
		{"combined", "B2B 3in4 REST-2", []domain.TriggerType{domain.TriggerB2B, domain.Trigger3In4, domain.TriggerRestDisadvantage}},
		{"unrelated note", "HOME STAND", []domain.TriggerType{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, types(ScheduleTriggers(tt.edge)))
		})
	}
}

func TestScheduleTriggers_Confidence(t *testing.T) {
	got := ScheduleTriggers("B2B 3in4 REST-4")
	require.Len(t, got, 3)
	assert.InDelta(t, 0.65, got[0].Confidence, 1e-9)
	assert.InDelta(t, 0.60, got[1].Confidence, 1e-9)
	assert.InDelta(t, 0.55, got[2].Confidence, 1e-9)
	assert.Equal(t, "4 fewer rest days", got[2].Detail)
	for _, tr := range got {
		assert.Equal(t, domain.OutcomeCoverFail, tr.Predicted)
	}
}

func TestMatchupTriggers(t *testing.T) {
	tests := []struct {
		name string
		team domain.TeamRanks
		opp  domain.TeamRanks
		want []domain.TriggerType
	}{
		{"neutral", ranks("A", 15, 15, 15), ranks("B", 15, 15, 15), []domain.TriggerType{}},
		{"weak offense vs elite defense", ranks("A", 21, 15, 15), ranks("B", 15, 5, 15), []domain.TriggerType{domain.TriggerBadMatchupOffense}},
		{"offense rank 20 is not weak", ranks("A", 20, 15, 15), ranks("B", 15, 1, 15), []domain.TriggerType{}},
		{"defense rank 6 is not elite", ranks("A", 25, 15, 15), ranks("B", 15, 6, 15), []domain.TriggerType{}},
		{"weak defense vs elite offense", ranks("A", 15, 28, 15), ranks("B", 2, 15, 15), []domain.TriggerType{domain.TriggerBadMatchupDefense}},
		{"slow vs fast", ranks("A", 15, 15, 26), ranks("B", 15, 15, 3), []domain.TriggerType{domain.TriggerPaceMismatchSlow}},
		{"fast vs slow", ranks("A", 15, 15, 1), ranks("B", 15, 15, 30), []domain.TriggerType{domain.TriggerPaceMismatchFast}},
		{
			"everything",
			ranks("A", 29, 30, 27),
			ranks("B", 1, 1, 1),
			[]domain.TriggerType{domain.TriggerBadMatchupOffense, domain.TriggerBadMatchupDefense, domain.TriggerPaceMismatchSlow},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, types(MatchupTriggers(tt.team, tt.opp, "B")))
		})
	}
}

func TestMatchupTriggers_DetailNamesOpponent(t *testing.T) {
	got := MatchupTriggers(ranks("DET", 22, 15, 15), ranks("BOS", 15, 3, 15), "BOS")
	require.Len(t, got, 1)
	assert.Equal(t, "Weak OFF (#22) vs Elite DEF (#3 BOS)", got[0].Detail)
	assert.InDelta(t, 0.60, got[0].Confidence, 1e-9)
}

func TestMatchupTriggers_FastPacePredictsUnder(t *testing.T) {
	got := MatchupTriggers(ranks("A", 15, 15, 2), ranks("B", 15, 15, 29), "B")
	require.Len(t, got, 1)
	assert.Equal(t, domain.OutcomeUnder, got[0].Predicted)
	assert.InDelta(t, 0.52, got[0].Confidence, 1e-9)
}

func TestDetect_MissingRanksKeepScheduleTriggers(t *testing.T) {
	g := domain.Game{ID: "g1", HomeAbbr: "BOS", AwayAbbr: "DET", HomeEdge: "", AwayEdge: "B2B"}
	home := ranks("BOS", 1, 1, 1)
	away := domain.DefaultTeamRanks("DET")

	got := Detect(g, home, away)
	require.Len(t, got, 1)
	assert.Equal(t, "DET", got[0].Team)
	assert.Equal(t, domain.Away, got[0].Side)
	assert.Equal(t, domain.TriggerB2B, got[0].Type)
}

func TestDetect_BothSides(t *testing.T) {
	g := domain.Game{ID: "g1", HomeAbbr: "BOS", AwayAbbr: "DET", HomeEdge: "3in4", AwayEdge: "REST-2"}
	got := Detect(g, ranks("BOS", 2, 3, 15), ranks("DET", 25, 24, 15))

	var keys []string
	for _, d := range got {
		keys = append(keys, d.Team+":"+string(d.Type))
	}
	assert.Equal(t, []string{
		"BOS:3IN4",
		"DET:REST_DISADVANTAGE",
		"DET:BAD_MATCHUP_OFFENSE",
		"DET:BAD_MATCHUP_DEFENSE",
	}, keys)
}

func TestDetect_FallsBackToTeamName(t *testing.T) {
	g := domain.Game{ID: "g1", HomeTeam: "Boston", AwayTeam: "Detroit", HomeEdge: "B2B"}
	got := Detect(g, domain.TeamRanks{}, domain.TeamRanks{})
	require.Len(t, got, 1)
	assert.Equal(t, "Boston", got[0].Team)
}

func TestActualOutcome(t *testing.T) {
	g := domain.Game{HomeAbbr: "BOS", AwayAbbr: "DET"}
	tests := []struct {
		team   string
		spread domain.SpreadResult
		want   domain.Outcome
	}{
		{"BOS", domain.SpreadHomeCovered, domain.OutcomeCovered},
		{"DET", domain.SpreadHomeCovered, domain.OutcomeCoverFail},
		{"BOS", domain.SpreadAwayCovered, domain.OutcomeCoverFail},
		{"DET", domain.SpreadAwayCovered, domain.OutcomeCovered},
		{"BOS", domain.SpreadPush, domain.OutcomePush},
		{"DET", domain.SpreadPush, domain.OutcomePush},
		{"DET", domain.SpreadNone, domain.OutcomeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.team+"/"+string(tt.spread), func(t *testing.T) {
			assert.Equal(t, tt.want, ActualOutcome(g, tt.team, tt.spread))
		})
	}
}

func TestEvaluate_PushNeverHits(t *testing.T) {
	g := domain.Game{HomeAbbr: "BOS", AwayAbbr: "DET"}
	for _, team := range []string{"BOS", "DET"} {
		for _, predicted := range []domain.Outcome{domain.OutcomeCoverFail, domain.OutcomeUnder, domain.OutcomeLoss} {
			p := domain.WeaknessPrediction{Team: team, PredictedOutcome: predicted}
			actual, hit := Evaluate(p, g, domain.GradedOutcome{SpreadResult: domain.SpreadPush})
			assert.Equal(t, domain.OutcomePush, actual)
			assert.False(t, hit)
		}
	}
}
