package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestGradePick(t *testing.T) {
	tests := []struct {
		name       string
		typ        domain.PickType
		side       domain.PickSide
		line       *float64
		home, away int
		want       domain.PickResult
	}{
		{"home favorite covers", domain.PickSpread, domain.SideHome, ptr(-3.5), 100, 95, domain.ResultWin},
		{"away dog fails", domain.PickSpread, domain.SideAway, ptr(3.5), 100, 95, domain.ResultLoss},
		{"home favorite pushes", domain.PickSpread, domain.SideHome, ptr(-5.0), 100, 95, domain.ResultPush},
		{"away dog pushes", domain.PickSpread, domain.SideAway, ptr(5.0), 100, 95, domain.ResultPush},
		{"home dog loses by less", domain.PickSpread, domain.SideHome, ptr(6.5), 95, 100, domain.ResultWin},
		{"over misses", domain.PickTotal, domain.SideOver, ptr(220.5), 110, 108, domain.ResultLoss},
		{"under hits", domain.PickTotal, domain.SideUnder, ptr(220.5), 110, 108, domain.ResultWin},
		{"total push", domain.PickTotal, domain.SideUnder, ptr(218.0), 110, 108, domain.ResultPush},
		{"moneyline home", domain.PickMoneyline, domain.SideHome, nil, 101, 99, domain.ResultWin},
		{"moneyline away", domain.PickMoneyline, domain.SideAway, nil, 101, 99, domain.ResultLoss},
		{"moneyline ignores line", domain.PickMoneyline, domain.SideAway, ptr(-200.0), 90, 99, domain.ResultWin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GradePick(tt.typ, tt.side, tt.line, tt.home, tt.away)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGradePick_Invalid(t *testing.T) {
	tests := []struct {
		name string
		typ  domain.PickType
		side domain.PickSide
		line *float64
	}{
		{"total on a team", domain.PickTotal, domain.SideHome, ptr(220.0)},
		{"spread on over", domain.PickSpread, domain.SideOver, ptr(-3.0)},
		{"spread without line", domain.PickSpread, domain.SideHome, nil},
		{"total without line", domain.PickTotal, domain.SideOver, nil},
		{"unknown type", domain.PickType("parlay"), domain.SideHome, ptr(1.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GradePick(tt.typ, tt.side, tt.line, 100, 90)
			assert.ErrorIs(t, err, domain.ErrInvalidPick)
		})
	}
}

func TestGradePick_PushBoundary(t *testing.T) {
	for home := 80; home <= 130; home += 7 {
		for away := 80; away <= 130; away += 5 {
			margin := float64(home - away)

			homeLine := -margin
			got, err := GradePick(domain.PickSpread, domain.SideHome, &homeLine, home, away)
			require.NoError(t, err)
			assert.Equal(t, domain.ResultPush, got)

			up, down := homeLine+0.5, homeLine-0.5
			got, _ = GradePick(domain.PickSpread, domain.SideHome, &up, home, away)
			assert.Equal(t, domain.ResultWin, got)
			got, _ = GradePick(domain.PickSpread, domain.SideHome, &down, home, away)
			assert.Equal(t, domain.ResultLoss, got)

			awayLine := margin
			got, _ = GradePick(domain.PickSpread, domain.SideAway, &awayLine, home, away)
			assert.Equal(t, domain.ResultPush, got)
		}
	}
}

func TestGradeOutcome(t *testing.T) {
	at := time.Date(2026, 1, 11, 5, 0, 0, 0, time.UTC)
	out := GradeOutcome(domain.LineCapture{ClosingSpread: ptr(-3.5), ClosingTotal: ptr(220.5)}, 100, 95, at)

	assert.Equal(t, 5, out.Margin)
	assert.Equal(t, 195, out.TotalPoints)
	assert.Equal(t, domain.SpreadHomeCovered, out.SpreadResult)
	assert.Equal(t, domain.TotalUnder, out.TotalResult)
	require.NotNil(t, out.SpreadCoveredHome)
	assert.True(t, *out.SpreadCoveredHome)
	require.NotNil(t, out.TotalOver)
	assert.False(t, *out.TotalOver)
	assert.True(t, out.Graded.Finalized())
	assert.Equal(t, at, out.Graded.At)

	push := GradeOutcome(domain.LineCapture{ClosingSpread: ptr(-5.0)}, 100, 95, at)
	assert.Equal(t, domain.SpreadPush, push.SpreadResult)
	assert.False(t, *push.SpreadCoveredHome)
	assert.Equal(t, domain.TotalNone, push.TotalResult)
	assert.Nil(t, push.TotalOver)
}

func TestGradeOutcome_AgreesWithPickGrades(t *testing.T) {
	lines := []float64{-12.5, -7, -3.5, -1, 0, 2.5, 5, 9.5}
	totals := []float64{199.5, 205, 210, 221.5}
	scores := [][2]int{{100, 95}, {95, 100}, {105, 105}, {120, 90}, {99, 106}}
	for _, sc := range scores {
		for _, line := range lines {
			out := GradeOutcome(domain.LineCapture{ClosingSpread: ptr(line)}, sc[0], sc[1], time.Now())
			homeRes, _ := GradePick(domain.PickSpread, domain.SideHome, ptr(line), sc[0], sc[1])
			awayRes, _ := GradePick(domain.PickSpread, domain.SideAway, ptr(-line), sc[0], sc[1])
			switch out.SpreadResult {
			case domain.SpreadHomeCovered:
				assert.Equal(t, domain.ResultWin, homeRes)
				assert.Equal(t, domain.ResultLoss, awayRes)
			case domain.SpreadAwayCovered:
				assert.Equal(t, domain.ResultLoss, homeRes)
				assert.Equal(t, domain.ResultWin, awayRes)
			case domain.SpreadPush:
				assert.Equal(t, domain.ResultPush, homeRes)
				assert.Equal(t, domain.ResultPush, awayRes)
			}
		}
		for _, total := range totals {
			out := GradeOutcome(domain.LineCapture{ClosingTotal: ptr(total)}, sc[0], sc[1], time.Now())
			overRes, _ := GradePick(domain.PickTotal, domain.SideOver, ptr(total), sc[0], sc[1])
			want := map[domain.TotalResult]domain.PickResult{
				domain.TotalOver:  domain.ResultWin,
				domain.TotalUnder: domain.ResultLoss,
				domain.TotalPush:  domain.ResultPush,
			}[out.TotalResult]
			assert.Equal(t, want, overRes)
		}
	}
}
