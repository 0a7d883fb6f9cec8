package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

func ptr[T any](v T) *T { return &v }

type metricOpt func(*domain.PartialTeamMetrics)

func withNet(v float64) metricOpt    { return func(p *domain.PartialTeamMetrics) { p.NetRating = &v } }
func withWinPct(v float64) metricOpt { return func(p *domain.PartialTeamMetrics) { p.WinPct = &v } }
func withOff(v float64) metricOpt    { return func(p *domain.PartialTeamMetrics) { p.OffRating = &v } }
func withDef(v float64) metricOpt    { return func(p *domain.PartialTeamMetrics) { p.DefRating = &v } }
func withPace(v float64) metricOpt   { return func(p *domain.PartialTeamMetrics) { p.Pace = &v } }
func withFlow(f string) metricOpt    { return func(p *domain.PartialTeamMetrics) { p.Flow = &f } }
func withATS(home, away float64) metricOpt {
	return func(p *domain.PartialTeamMetrics) { p.ATSHomePct, p.ATSAwayPct = &home, &away }
}

func team(abbr string, opts ...metricOpt) domain.TeamMetrics {
	p := domain.PartialTeamMetrics{Team: abbr}
	for _, o := range opts {
		o(&p)
	}
	return p.Resolve()
}

func game(spread, total *float64) domain.Game {
	return domain.Game{ID: "g1", HomeAbbr: "BOS", AwayAbbr: "NYK", HomeSpread: spread, TotalLine: total}
}

func TestSpread_HomeValueAgainstLine(t *testing.T) {
	m := Matchup{
		Game: game(ptr(-2.0), nil),
		Home: team("BOS", withNet(5)),
		Away: team("NYK", withNet(-3)),
	}
	res := Spread(m)

	assert.Equal(t, 11.5, res.ExpectedMargin)
	assert.Equal(t, 13.5, res.LineDiff)
	assert.Equal(t, 70.0, res.Edge)
	assert.Equal(t, "HOME", res.Side)
	assert.Equal(t, "BOS", res.Recommended)
	assert.Equal(t, domain.TierCaution, res.Tier)
	assert.Equal(t, "SPREAD LEAN", res.Signal)
	assert.False(t, res.Actionable)
}

func TestSpread_TrendsAndFlowPushToBet(t *testing.T) {
	m := Matchup{
		Game: game(ptr(-2.0), nil),
		Home: team("BOS", withNet(5), withATS(0.6, 0.5), withFlow("hot_streak")),
		Away: team("NYK", withNet(-3), withATS(0.5, 0.4), withFlow("SLUMP")),
	}
	res := Spread(m)

	// 50 + 20 line + 3 home ATS + 3 weak away ATS + 2 hot + 2 cold away
	assert.Equal(t, 80.0, res.Edge)
	assert.Equal(t, domain.TierStrongBet, res.Tier)
	assert.Equal(t, "STRONG SPREAD (+13.5pt)", res.Signal)
	assert.True(t, res.Actionable)
}

func TestSpreadSignal(t *testing.T) {
	tests := []struct {
		tier     domain.Tier
		lineDiff float64
		want     string
	}{
		{domain.TierStrongBet, 13.5, "STRONG SPREAD (+13.5pt)"},
		{domain.TierStrongBet, -5.0, "STRONG SPREAD (-5.0pt)"},
		{domain.TierStrongBet, 4.9, "STRONG SPREAD"},
		{domain.TierBet, -6.0, "SPREAD BET (-6.0pt)"},
		{domain.TierBet, 7.5, "SPREAD BET (+7.5pt)"},
		{domain.TierBet, 2.0, "SPREAD BET"},
		{domain.TierCaution, 9.0, "SPREAD LEAN"},
		{domain.TierLean, -9.0, "SPREAD WATCH"},
		{domain.TierPass, 12.0, "SPREAD PASS"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, spreadSignal(tt.tier, tt.lineDiff))
		})
	}
}

func TestSpread_ValueCalloutAndMissingLine(t *testing.T) {
	m := Matchup{
		Game: game(nil, nil),
		Home: team("BOS", withNet(3), withATS(0.6, 0.5)),
		Away: team("NYK", withNet(-1), withATS(0.5, 0.4)),
	}
	res := Spread(m)

	require.Nil(t, res.MarketSpread)
	assert.Equal(t, 7.5, res.LineDiff)
	// 50 + 15 + 3 + 3 + 0 flow
	assert.Equal(t, 71.0, res.Edge)
	assert.Equal(t, domain.TierCaution, res.Tier)

	m.Home = team("BOS", withNet(3), withATS(0.6, 0.5), withFlow("HOT_STREAK"))
	m.Away = team("NYK", withNet(-1), withATS(0.5, 0.4), withFlow("COLD_STREAK"))
	res = Spread(m)
	assert.Equal(t, 75.0, res.Edge)
	assert.Equal(t, "SPREAD BET (+7.5pt)", res.Signal)
	assert.True(t, res.Actionable)
}

func TestSpread_AwayWhenLineOverstatesHome(t *testing.T) {
	m := Matchup{
		Game: game(ptr(-12.0), nil),
		Home: team("BOS", withNet(1)),
		Away: team("NYK", withNet(0)),
	}
	res := Spread(m)

	// expected 4.5 vs -12 gives line_diff 16.5 for home; flip the line.
	assert.Equal(t, "HOME", res.Side)

	m.Game.HomeSpread = ptr(12.0)
	res = Spread(m)
	assert.Equal(t, -7.5, res.LineDiff)
	assert.Equal(t, 65.0, res.Edge)
	assert.Equal(t, "AWAY", res.Side)
	assert.Equal(t, "NYK", res.Recommended)
}

func TestMoneyline(t *testing.T) {
	tests := []struct {
		name       string
		home, away domain.TeamMetrics
		wantEdge   float64
		wantSide   string
		wantTier   domain.Tier
		wantSignal string
		risky      bool
		actionable bool
	}{
		{
			name:       "home net advantage",
			home:       team("BOS", withNet(5)),
			away:       team("NYK", withNet(-3)),
			wantEdge:   71,
			wantSide:   "HOME",
			wantTier:   domain.TierCaution,
			wantSignal: "CAUTION",
		},
		{
			name:       "capped net difference",
			home:       team("BOS", withNet(12), withWinPct(0.7)),
			away:       team("NYK", withNet(-2), withWinPct(0.4)),
			wantEdge:   84,
			wantSide:   "HOME",
			wantTier:   domain.TierBet,
			wantSignal: "BET",
			actionable: true,
		},
		{
			name:       "away favored folds",
			home:       team("BOS", withNet(-5), withWinPct(0.3)),
			away:       team("NYK", withNet(5), withWinPct(0.7)),
			wantEdge:   77,
			wantSide:   "AWAY",
			wantTier:   domain.TierCaution,
			wantSignal: "CAUTION",
		},
		{
			name:       "warming favorite is risky",
			home:       team("BOS", withNet(-5), withWinPct(0.3)),
			away:       team("NYK", withNet(5), withWinPct(0.7), withFlow("WARMING")),
			wantEdge:   77,
			wantSide:   "AWAY",
			wantTier:   domain.TierCaution,
			wantSignal: "RISKY",
			risky:      true,
		},
		{
			name:       "warming underdog does not matter",
			home:       team("BOS", withNet(5), withFlow("NEUTRAL")),
			away:       team("NYK", withNet(-3), withFlow("WARMING")),
			wantEdge:   71,
			wantSide:   "HOME",
			wantTier:   domain.TierCaution,
			wantSignal: "CAUTION",
		},
		{
			name:       "even teams lean home",
			home:       team("BOS"),
			away:       team("NYK"),
			wantEdge:   55,
			wantSide:   "HOME",
			wantTier:   domain.TierPass,
			wantSignal: "PASS",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Moneyline(Matchup{Game: game(nil, nil), Home: tt.home, Away: tt.away})
			assert.Equal(t, tt.wantEdge, res.Edge)
			assert.Equal(t, tt.wantSide, res.Side)
			assert.Equal(t, tt.wantTier, res.Tier)
			assert.Equal(t, tt.wantSignal, res.Signal)
			assert.Equal(t, tt.risky, res.Risky)
			assert.Equal(t, tt.actionable, res.Actionable)
		})
	}
}

func TestMoneyline_ClampsRawScore(t *testing.T) {
	res := Moneyline(Matchup{
		Game: game(nil, nil),
		Home: team("BOS", withWinPct(1), withNet(15)),
		Away: team("NYK", withWinPct(0), withNet(-5)),
	})
	assert.Equal(t, 105.0, res.RawEdge)
	assert.Equal(t, 100.0, res.Edge)
	assert.Equal(t, domain.TierStrongBet, res.Tier)
}

func TestTotal(t *testing.T) {
	t.Run("fast offenses lean over", func(t *testing.T) {
		res := Total(Matchup{
			Game: game(nil, nil),
			Home: team("BOS", withOff(120)),
			Away: team("NYK", withOff(120)),
		})
		assert.Equal(t, DefaultMarketTotal, res.MarketTotal)
		assert.Equal(t, 240.0, res.ExpectedTotal)
		// 50 + 10 diff + 5 offense
		assert.Equal(t, 65.0, res.Edge)
		assert.Equal(t, Over, res.Side)
		assert.Equal(t, "OVER LEAN", res.Signal)
		assert.False(t, res.Actionable)
	})

	t.Run("slow grinders go under", func(t *testing.T) {
		res := Total(Matchup{
			Game: game(nil, ptr(215.0)),
			Home: team("BOS", withOff(105), withDef(105), withPace(95)),
			Away: team("NYK", withOff(105), withDef(105), withPace(95)),
		})
		// 50 - 15 diff - 5 offense - 5 defense
		assert.Equal(t, 75.0, res.Edge)
		assert.Equal(t, Under, res.Side)
		assert.Equal(t, Under, res.Recommended)
		assert.Equal(t, domain.TierBet, res.Tier)
		assert.Equal(t, "UNDER BET", res.Signal)
		assert.True(t, res.Actionable)
	})

	t.Run("neutral is a pass", func(t *testing.T) {
		res := Total(Matchup{
			Game: game(nil, ptr(228.0)),
			Home: team("BOS"),
			Away: team("NYK"),
		})
		assert.Equal(t, 50.0, res.Edge)
		assert.Equal(t, "TOTAL PASS", res.Signal)
	})
}

func TestPickem_Eligibility(t *testing.T) {
	tests := []struct {
		name   string
		spread *float64
		home   float64
		away   float64
		want   bool
	}{
		{"no line", nil, 4, 10, false},
		{"home favored by two", ptr(-2.0), 4, 10, false},
		{"edge of window", ptr(-1.5), 4, 10, true},
		{"even line", ptr(0.0), 4, 10, true},
		{"away favored", ptr(1.0), 4, 10, false},
		{"home rated better", ptr(-1.0), 10, 4, false},
		{"equal ratings", ptr(-1.0), 4, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Matchup{Game: game(tt.spread, nil), Home: team("BOS", withNet(tt.home)), Away: team("NYK", withNet(tt.away))}
			assert.Equal(t, tt.want, PickemEligible(m))
			_, ok := Pickem(m)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestPickem_NetBandIsNotMonotonic(t *testing.T) {
	m := Matchup{Game: game(ptr(-1.0), nil), Home: team("BOS", withNet(4)), Away: team("NYK", withNet(10))}
	res, ok := Pickem(m)
	require.True(t, ok)

	assert.Equal(t, PickemMedium, res.PickemType)
	assert.Equal(t, 6.0, res.NetEdge)
	assert.Equal(t, 1.0, res.PickemSpread)
	// 60 + 20 net + 5 spread
	assert.Equal(t, 85.0, res.Edge)
	assert.Equal(t, "AWAY", res.Side)
	assert.Equal(t, "NYK", res.Recommended)
	assert.Equal(t, "STRONG PICKEM", res.Signal)
	assert.True(t, res.Actionable)

	m.Away = team("NYK", withNet(13))
	larger, ok := Pickem(m)
	require.True(t, ok)
	assert.Equal(t, 80.0, larger.Edge)
	assert.Less(t, larger.Edge, res.Edge)
}

func TestPickem_Bands(t *testing.T) {
	tests := []struct {
		name     string
		spread   float64
		homeNet  float64
		awayNet  float64
		homePct  float64
		awayPct  float64
		wantType string
		wantEdge float64
		wantSig  string
	}{
		{"tight with win edge", -0.5, 0, 6, 0.45, 0.6, PickemTight, 100, "ELITE PICKEM"},
		{"tight small net", 0, 0, 3, 0.5, 0.6, PickemTight, 88, "STRONG PICKEM"},
		{"wide small net", -1.5, 0, 1, 0.5, 0.5, PickemWide, 75, "PICKEM LEAN"},
		{"wide mid net", -1.5, 0, 4, 0.5, 0.5, PickemWide, 70, "PICKEM WATCH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := Pickem(Matchup{
				Game: game(ptr(tt.spread), nil),
				Home: team("BOS", withNet(tt.homeNet), withWinPct(tt.homePct)),
				Away: team("NYK", withNet(tt.awayNet), withWinPct(tt.awayPct)),
			})
			require.True(t, ok)
			assert.Equal(t, tt.wantType, res.PickemType)
			assert.Equal(t, tt.wantEdge, res.Edge)
			assert.Equal(t, tt.wantSig, res.Signal)
		})
	}
}
