package domain

import (
	"strings"
	"time"
)

// GameStatus is the live status of a scheduled contest.
type GameStatus string

const (
	GameScheduled GameStatus = "scheduled"
	GameLive      GameStatus = "live"
	GameFinished  GameStatus = "finished"
)

// LiveWindow is how long after tip-off a game is assumed to be in progress
// when no external status is reported.
const LiveWindow = 150 * time.Minute

func (s GameStatus) rank() int {
	switch s {
	case GameLive:
		return 1
	case GameFinished:
		return 2
	default:
		return 0
	}
}

// ParseGameStatus normalises an externally reported status. Unknown values
// map to GameScheduled.
func ParseGameStatus(s string) GameStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "live", "in_progress", "in progress":
		return GameLive
	case "finished", "final", "completed":
		return GameFinished
	default:
		return GameScheduled
	}
}

// Game is a scheduled contest with the market lines captured for it.
type Game struct {
	ID         string
	ExternalID string
	HomeTeam   string
	AwayTeam   string
	HomeAbbr   string
	AwayAbbr   string
	StartsAt   time.Time
	// HomeSpread is the home team's spread; negative means home is favored.
	HomeSpread *float64
	AwaySpread *float64
	TotalLine  *float64
	// HomeEdge and AwayEdge are free-form schedule annotations such as
	// "B2B", "3in4" or "REST-2".
	HomeEdge     string
	AwayEdge     string
	ScheduleNote string
	Venue        string
	Status       GameStatus
	HomeScore    *int
	AwayScore    *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Matchup renders "AWAY @ HOME" using abbreviations when available.
func (g Game) Matchup() string {
	away := g.AwayAbbr
	if away == "" {
		away = g.AwayTeam
	}
	home := g.HomeAbbr
	if home == "" {
		home = g.HomeTeam
	}
	return away + " @ " + home
}

// HasFinalScore reports whether both final scores are known.
func (g Game) HasFinalScore() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// IsHomeTeam reports whether team names the home side by abbreviation or
// full name.
func (g Game) IsHomeTeam(team string) bool {
	return team != "" && (team == g.HomeAbbr || team == g.HomeTeam)
}

// EstimateStatus derives the status from an external report when it says
// live or finished, otherwise from the clock.
func EstimateStatus(external string, startsAt, now time.Time) GameStatus {
	if st := ParseGameStatus(external); st != GameScheduled {
		return st
	}
	switch {
	case now.Before(startsAt):
		return GameScheduled
	case now.Before(startsAt.Add(LiveWindow)):
		return GameLive
	default:
		return GameFinished
	}
}

// AdvanceStatus moves the game forward to next. Regressions are ignored
// and reported as false.
func (g *Game) AdvanceStatus(next GameStatus) bool {
	if next.rank() <= g.Status.rank() {
		return false
	}
	g.Status = next
	return true
}

// RecordFinalScore sets the final scores once. A second call is a no-op
// that returns false.
func (g *Game) RecordFinalScore(home, away int) bool {
	if g.HasFinalScore() {
		return false
	}
	g.HomeScore = &home
	g.AwayScore = &away
	g.AdvanceStatus(GameFinished)
	return true
}

// SpreadResult is the canonical against-the-spread outcome of a game.
type SpreadResult string

const (
	SpreadNone        SpreadResult = ""
	SpreadHomeCovered SpreadResult = "home_covered"
	SpreadAwayCovered SpreadResult = "away_covered"
	SpreadPush        SpreadResult = "push"
)

// TotalResult is the canonical over/under outcome of a game.
type TotalResult string

const (
	TotalNone  TotalResult = ""
	TotalOver  TotalResult = "over"
	TotalUnder TotalResult = "under"
	TotalPush  TotalResult = "push"
)

// LineCapture holds the opening and closing market lines for one game.
type LineCapture struct {
	OpeningSpread *float64
	ClosingSpread *float64
	OpeningTotal  *float64
	ClosingTotal  *float64
	Captured      Lifecycle
}

// GradedOutcome is what actually happened against the closing lines.
type GradedOutcome struct {
	HomeScore         int
	AwayScore         int
	Margin            int
	TotalPoints       int
	SpreadResult      SpreadResult
	TotalResult       TotalResult
	SpreadCoveredHome *bool
	TotalOver         *bool
	Graded            Lifecycle
}

// GameResult is the per-game record of captured lines and the graded
// outcome. It is created lazily the first time lines are observed.
type GameResult struct {
	ID      string
	GameID  string
	Lines   LineCapture
	Outcome GradedOutcome
}

// DayBounds returns [start, end) of the calendar day containing date in
// date's own location.
func DayBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}
