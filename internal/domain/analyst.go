package domain

import (
	"math"
	"strings"
	"time"
)

// Analyst names a consensus source.
type Analyst string

const (
	AnalystSharp      Analyst = "SHARP"
	AnalystScout      Analyst = "SCOUT"
	AnalystContrarian Analyst = "CONTRARIAN"
	AnalystMomentum   Analyst = "MOMENTUM"
	AnalystSystem     Analyst = "SYSTEM"
)

// Analysts lists every known analyst.
var Analysts = []Analyst{AnalystSharp, AnalystScout, AnalystContrarian, AnalystMomentum, AnalystSystem}

// ParseAnalyst returns the analyst for name and whether it is known.
func ParseAnalyst(name string) (Analyst, bool) {
	a := Analyst(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range Analysts {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// Direction is a HOME/AWAY call used by analysts and scoring models.
type Direction string

const (
	Home Direction = "HOME"
	Away Direction = "AWAY"
)

// ParseDirection accepts any case of home/away.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case Home:
		return Home, true
	case Away:
		return Away, true
	}
	return "", false
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Home {
		return Away
	}
	return Home
}

// SignalType classifies how an analyst's picks feed the consensus.
type SignalType string

const (
	SignalMain      SignalType = "main"
	SignalSecondary SignalType = "secondary"
	SignalNeutral   SignalType = "neutral"
	SignalReverse   SignalType = "reverse"
)

// Apply returns the side that receives the analyst's contribution and the
// amount added to it. Reverse signals credit the opposite side with the
// absolute weight; every other kind credits the picked side directly.
func (s SignalType) Apply(side Direction, weight float64) (Direction, float64) {
	switch s {
	case SignalReverse:
		return side.Opposite(), math.Abs(weight)
	default:
		return side, weight
	}
}

// AnalystWeight is the calibration row for one analyst.
type AnalystWeight struct {
	Analyst          Analyst
	Accuracy         *float64
	Weight           *float64
	Signal           SignalType
	SampleSize       int
	LastBacktestDate *time.Time
	UpdatedAt        time.Time
}

// AnalystPick is one analyst's call for the game a pick covers.
type AnalystPick struct {
	ID         string
	PickID     string
	Analyst    Analyst
	Side       Direction
	Confidence string
	Rationale  string
	// Correct is nil until the parent pick is graded and evaluated.
	Correct   *bool
	Evaluated Lifecycle
	CreatedAt time.Time
}

// AnalystCall is the input for recording an analyst pick.
type AnalystCall struct {
	Side       Direction
	Confidence string
	Rationale  string
}
