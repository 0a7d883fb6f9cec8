// Package report renders scored boards as markdown.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/grading"
	"github.com/alanyoungcy/courtedge/internal/scoring"
)

const (
	rule    = "======================================================================"
	divider = "----------------------------------------------------------------------"
)

var modelTitles = map[domain.Model]string{
	domain.ModelMoneyline: "Moneyline",
	domain.ModelSpread:    "Spread",
	domain.ModelTotal:     "Total",
	domain.ModelPickem:    "Pickem Underdog",
}

// RenderDaily renders every model, moneyline first. A model missing from
// the board renders as an empty slate.
func RenderDaily(date time.Time, board scoring.Board) string {
	sections := make([]string, 0, len(domain.Models))
	for _, m := range domain.Models {
		sections = append(sections, RenderModel(m, date, board[m]))
	}
	return strings.Join(sections, "\n\n")
}

// RenderModel renders one model's results for date.
func RenderModel(model domain.Model, date time.Time, results []domain.EdgeResult) string {
	tiers := scoring.TiersFor(model)
	var b strings.Builder
	writeHeader(&b, model, date, tiers)
	b.WriteString("\n\n")
	writeSummary(&b, results, tiers)
	b.WriteString("\n\n")
	writeGames(&b, model, results, tiers)
	b.WriteString("\n")
	writeFooter(&b, model)
	return b.String()
}

func writeHeader(b *strings.Builder, model domain.Model, date time.Time, tiers scoring.TierTable) {
	fmt.Fprintf(b, "%s\n", rule)
	fmt.Fprintf(b, "CourtEdge %s Report\n", modelTitles[model])
	fmt.Fprintf(b, "%s\n", date.Format("2006-01-02"))
	fmt.Fprintf(b, "%s\n\n", rule)
	b.WriteString("## Tiers\n")
	b.WriteString("| Tier | Edge | Action |\n")
	b.WriteString("|------|------|--------|\n")
	bands := tiers.Bands()
	upper := 0.0
	for _, band := range bands {
		span := fmt.Sprintf("%g+", band.Min)
		if upper > 0 {
			span = fmt.Sprintf("%g-%g", band.Min, upper-1)
		}
		action := "watch"
		if band.Min >= tiers.BetThreshold {
			action = "bet"
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", tierLabel(band.Tier), span, action)
		upper = band.Min
	}
	fmt.Fprintf(b, "| %s | <%g | pass |", tierLabel(domain.TierPass), upper)
}

func writeSummary(b *strings.Builder, results []domain.EdgeResult, tiers scoring.TierTable) {
	strongAt := tiers.Threshold(domain.TierStrongBet)
	var strong, bet, risky int
	var actionable []domain.EdgeResult
	for _, r := range results {
		switch {
		case r.Risky:
			risky++
		case r.Edge >= strongAt:
			strong++
		case r.Edge >= tiers.BetThreshold:
			bet++
		}
		if r.Actionable {
			actionable = append(actionable, r)
		}
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "- Games: %d\n", len(results))
	fmt.Fprintf(b, "- STRONG (%g+): %d\n", strongAt, strong)
	fmt.Fprintf(b, "- BET (%g-%g): %d\n", tiers.BetThreshold, strongAt-1, bet)
	fmt.Fprintf(b, "- RISKY (WARMING): %d\n\n", risky)

	if len(actionable) == 0 {
		fmt.Fprintf(b, "### No Edge %g+ games, PASS", tiers.BetThreshold)
		return
	}
	fmt.Fprintf(b, "### Actionable (Edge %g+)\n\n", tiers.BetThreshold)
	for i, r := range actionable {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "- **%s**: %s (Edge %.1f) %s", r.Matchup, r.Recommended, r.Edge, r.Signal)
	}
}

func writeGames(b *strings.Builder, model domain.Model, results []domain.EdgeResult, tiers scoring.TierTable) {
	b.WriteString("## Games\n\n")
	cautionAt := tiers.Threshold(domain.TierCaution)
	for _, r := range results {
		fmt.Fprintf(b, "%s\n### %s\n\n", divider, r.Matchup)
		b.WriteString("| Item | Value |\n")
		b.WriteString("|------|-------|\n")
		fmt.Fprintf(b, "| Edge | **%.1f** |\n", r.Edge)
		fmt.Fprintf(b, "| Pick | %s (%s) |\n", r.Recommended, r.Side)
		fmt.Fprintf(b, "| Signal | %s |\n", r.Signal)
		for _, row := range modelRows(model, r) {
			fmt.Fprintf(b, "| %s | %s |\n", row[0], row[1])
		}
		if verdict, ok := Verdict(r); ok {
			fmt.Fprintf(b, "| Result | %d-%d %s |\n", *r.HomeScore, *r.AwayScore, verdict)
		}
		b.WriteString("\n")
		switch {
		case r.Actionable:
			fmt.Fprintf(b, "**ACTION: bet %s**\n\n", r.Recommended)
		case r.Risky:
			b.WriteString("**RISKY: WARMING flow, avoid**\n\n")
		case cautionAt > 0 && r.Edge >= cautionAt:
			b.WriteString("**CAUTION: watch only**\n\n")
		default:
			b.WriteString("**PASS: not enough edge**\n\n")
		}
	}
}

func modelRows(model domain.Model, r domain.EdgeResult) [][2]string {
	flow := string(r.Flow)
	if flow == "" {
		flow = string(domain.FlowNeutral)
	}
	common := [][2]string{
		{"Flow", flow},
		{"Home Win%", fmt.Sprintf("%g%%", r.HomeWinPct)},
		{"Away Win%", fmt.Sprintf("%g%%", r.AwayWinPct)},
		{"Home Net RTG", fmt.Sprintf("%.1f", r.HomeNetRating)},
		{"Away Net RTG", fmt.Sprintf("%.1f", r.AwayNetRating)},
	}
	switch model {
	case domain.ModelSpread:
		return append(common,
			[2]string{"Market Spread", fmt.Sprintf("%+.1f", deref(r.MarketSpread))},
			[2]string{"Expected Margin", fmt.Sprintf("%+.1f", r.ExpectedMargin)},
			[2]string{"Line Diff", fmt.Sprintf("%+.1f", r.LineDiff)},
		)
	case domain.ModelTotal:
		return [][2]string{
			{"Market Total", fmt.Sprintf("%.1f", r.MarketTotal)},
			{"Expected Total", fmt.Sprintf("%.1f", r.ExpectedTotal)},
			{"Diff", fmt.Sprintf("%+.1f", r.TotalDiff)},
		}
	case domain.ModelPickem:
		return append(common,
			[2]string{"Type", r.PickemType},
			[2]string{"Underdog Spread", fmt.Sprintf("%+.1f", r.PickemSpread)},
			[2]string{"Net Edge", fmt.Sprintf("%.1f", r.NetEdge)},
		)
	}
	return common
}

// Verdict grades a scored result once its game is final. ok is false
// before that.
func Verdict(r domain.EdgeResult) (string, bool) {
	if r.Status != domain.GameFinished || r.HomeScore == nil || r.AwayScore == nil {
		return "", false
	}
	t, side, line := asPick(r)
	res, err := grading.GradePick(t, side, line, *r.HomeScore, *r.AwayScore)
	if err != nil {
		return "", false
	}
	switch res {
	case domain.ResultWin:
		return "HIT", true
	case domain.ResultLoss:
		return "MISS", true
	default:
		return "PUSH", true
	}
}

// asPick expresses a scored result as the pick it recommends.
func asPick(r domain.EdgeResult) (domain.PickType, domain.PickSide, *float64) {
	side := domain.ParsePickSide(r.Side)
	switch r.Model {
	case domain.ModelSpread:
		line := deref(r.MarketSpread)
		if side == domain.SideAway {
			line = -line
		}
		return domain.PickSpread, side, &line
	case domain.ModelTotal:
		line := r.MarketTotal
		return domain.PickTotal, side, &line
	default:
		return domain.PickMoneyline, side, nil
	}
}

func tierLabel(t domain.Tier) string {
	return strings.ToUpper(strings.ReplaceAll(string(t), "_", " "))
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func writeFooter(b *strings.Builder, model domain.Model) {
	fmt.Fprintf(b, "%s\n", rule)
	fmt.Fprintf(b, "CourtEdge %s model. Team data: graph store (team stats, regimes, games).\n", strings.ToLower(modelTitles[model]))
	b.WriteString("We sell certainty, not lottery.\n")
	b.WriteString(rule)
}
