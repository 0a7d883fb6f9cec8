package domain

import (
	"context"
	"time"
)

// Model names an edge scoring model.
type Model string

const (
	ModelMoneyline Model = "moneyline"
	ModelSpread    Model = "spread"
	ModelTotal     Model = "total"
	ModelPickem    Model = "pickem"
)

// Models lists every scoring model.
var Models = []Model{ModelMoneyline, ModelSpread, ModelTotal, ModelPickem}

// Tier is an ordinal confidence bucket.
type Tier string

const (
	TierElite     Tier = "elite"
	TierStrongBet Tier = "strong_bet"
	TierBet       Tier = "bet"
	TierCaution   Tier = "caution"
	TierLean      Tier = "lean"
	TierWatch     Tier = "watch"
	TierPass      Tier = "pass"
)

// EdgeResult is one model's verdict for one game.
type EdgeResult struct {
	Model       Model      `json:"model"`
	GameID      string     `json:"game_id"`
	StartsAt    time.Time  `json:"starts_at"`
	Home        string     `json:"home"`
	Away        string     `json:"away"`
	Matchup     string     `json:"matchup"`
	RawEdge     float64    `json:"raw_edge"`
	Edge        float64    `json:"edge"`
	Side        string     `json:"side"`
	Recommended string     `json:"recommended"`
	Tier        Tier       `json:"tier"`
	Signal      string     `json:"signal"`
	Actionable  bool       `json:"actionable"`
	Risky       bool       `json:"risky,omitempty"`
	Flow        FlowState  `json:"flow,omitempty"`
	Status      GameStatus `json:"status"`
	HomeScore   *int       `json:"home_score,omitempty"`
	AwayScore   *int       `json:"away_score,omitempty"`

	HomeWinPct    float64 `json:"home_win_pct"`
	AwayWinPct    float64 `json:"away_win_pct"`
	HomeNetRating float64 `json:"home_net_rating"`
	AwayNetRating float64 `json:"away_net_rating"`

	MarketSpread   *float64 `json:"market_spread,omitempty"`
	ExpectedMargin float64  `json:"expected_margin,omitempty"`
	LineDiff       float64  `json:"line_diff,omitempty"`

	MarketTotal   float64 `json:"market_total,omitempty"`
	ExpectedTotal float64 `json:"expected_total,omitempty"`
	TotalDiff     float64 `json:"total_diff,omitempty"`

	PickemType string  `json:"pickem_type,omitempty"`
	NetEdge    float64 `json:"net_edge,omitempty"`
	// PickemSpread is the spread from the away (underdog-by-line) view.
	PickemSpread float64 `json:"pickem_spread,omitempty"`
}

// GameSource provides the game snapshots consumed by the scoring engine.
type GameSource interface {
	GetByID(ctx context.Context, id string) (Game, error)
	ListByDate(ctx context.Context, date time.Time) ([]Game, error)
}
