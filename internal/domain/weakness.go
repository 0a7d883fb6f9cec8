package domain

import "time"

// TriggerType names a weakness trigger rule.
type TriggerType string

const (
	TriggerB2B              TriggerType = "B2B"
	Trigger3In4             TriggerType = "3IN4"
	TriggerRestDisadvantage TriggerType = "REST_DISADVANTAGE"
	TriggerLongRoadTrip     TriggerType = "LONG_ROAD_TRIP"
	TriggerHomeStandEnd     TriggerType = "HOME_STAND_END"

	TriggerBadMatchupOffense TriggerType = "BAD_MATCHUP_OFFENSE"
	TriggerBadMatchupDefense TriggerType = "BAD_MATCHUP_DEFENSE"
	TriggerPaceMismatchSlow  TriggerType = "PACE_MISMATCH_SLOW"
	TriggerPaceMismatchFast  TriggerType = "PACE_MISMATCH_FAST"
)

// TriggerTypes lists every trigger in reporting order.
var TriggerTypes = []TriggerType{
	TriggerB2B, Trigger3In4, TriggerRestDisadvantage, TriggerLongRoadTrip, TriggerHomeStandEnd,
	TriggerBadMatchupOffense, TriggerBadMatchupDefense, TriggerPaceMismatchSlow, TriggerPaceMismatchFast,
}

// Outcome is a predicted or observed team outcome.
type Outcome string

const (
	OutcomeLoss      Outcome = "LOSS"
	OutcomeUnder     Outcome = "UNDER"
	OutcomeCoverFail Outcome = "COVER_FAIL"
	OutcomeCovered   Outcome = "COVERED"
	OutcomePush      Outcome = "PUSH"
	OutcomeUnknown   Outcome = "UNKNOWN"
)

// WeaknessPrediction is one (game, team, trigger) detection.
type WeaknessPrediction struct {
	ID               string
	GameID           string
	Team             string
	Trigger          TriggerType
	Detail           string
	Confidence       float64
	PredictedOutcome Outcome
	ActualOutcome    Outcome
	Hit              *bool
	Source           string
	TriggeredAt      time.Time
	Evaluated        Lifecycle
}

// Key identifies a prediction uniquely.
func (p WeaknessPrediction) Key() string {
	return p.GameID + "|" + p.Team + "|" + string(p.Trigger)
}
