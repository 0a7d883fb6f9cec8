package domain

import (
	"strings"
	"time"
)

// PickType is the bet type of a pick.
type PickType string

const (
	PickSpread    PickType = "spread"
	PickTotal     PickType = "total"
	PickMoneyline PickType = "moneyline"
)

// PickTypes lists every pick type in reporting order.
var PickTypes = []PickType{PickSpread, PickTotal, PickMoneyline}

// Valid reports whether t is a known pick type.
func (t PickType) Valid() bool {
	switch t {
	case PickSpread, PickTotal, PickMoneyline:
		return true
	}
	return false
}

// PickSide is the side taken by a pick.
type PickSide string

const (
	SideHome  PickSide = "home"
	SideAway  PickSide = "away"
	SideOver  PickSide = "over"
	SideUnder PickSide = "under"
)

// ParsePickSide normalises a side string; "HOME" and "home" are equal.
func ParsePickSide(s string) PickSide {
	return PickSide(strings.ToLower(strings.TrimSpace(s)))
}

// ValidFor reports whether the side makes sense for the pick type.
func (s PickSide) ValidFor(t PickType) bool {
	switch t {
	case PickSpread, PickMoneyline:
		return s == SideHome || s == SideAway
	case PickTotal:
		return s == SideOver || s == SideUnder
	}
	return false
}

// PickResult is the graded result of a pick.
type PickResult string

const (
	ResultPending PickResult = "pending"
	ResultWin     PickResult = "win"
	ResultLoss    PickResult = "loss"
	ResultPush    PickResult = "push"
)

// Graded reports whether the result is final.
func (r PickResult) Graded() bool {
	return r == ResultWin || r == ResultLoss || r == ResultPush
}

// PickStatus is the publication status of a pick.
type PickStatus string

const (
	PickDraft     PickStatus = "draft"
	PickPublished PickStatus = "published"
)

// DefaultStake is the stake assumed when none is recorded.
const DefaultStake = 1.0

// Pick is a directional recommendation tied to one game.
type Pick struct {
	ID     string
	GameID string
	Title  string
	Type   PickType
	Side   PickSide
	Line   *float64
	Stake  *float64
	Free   bool
	Status PickStatus
	// Consensus is the analyst agreement label, e.g. "4/5".
	Consensus   string
	Result      PickResult
	Recorded    Lifecycle
	HomeScore   *int
	AwayScore   *int
	ResultNote  string
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// StakeOrDefault returns the recorded stake or DefaultStake.
func (p Pick) StakeOrDefault() float64 {
	if p.Stake == nil {
		return DefaultStake
	}
	return *p.Stake
}

// Publish moves a draft to published. Already-published picks keep their
// original publish time.
func (p *Pick) Publish(now time.Time) bool {
	if p.Status == PickPublished {
		return false
	}
	p.Status = PickPublished
	p.PublishedAt = &now
	return true
}
