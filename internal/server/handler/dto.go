package handler

import (
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

type pickDTO struct {
	ID          string     `json:"id"`
	GameID      string     `json:"game_id"`
	Title       string     `json:"title,omitempty"`
	Type        string     `json:"pick_type"`
	Side        string     `json:"pick_side"`
	Line        *float64   `json:"line,omitempty"`
	Stake       float64    `json:"stake"`
	Free        bool       `json:"is_free"`
	Status      string     `json:"status"`
	Consensus   string     `json:"consensus,omitempty"`
	Result      string     `json:"result"`
	RecordedAt  *time.Time `json:"result_recorded_at,omitempty"`
	HomeScore   *int       `json:"home_score,omitempty"`
	AwayScore   *int       `json:"away_score,omitempty"`
	ResultNote  string     `json:"result_note,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func toPickDTO(p domain.Pick) pickDTO {
	return pickDTO{
		ID:          p.ID,
		GameID:      p.GameID,
		Title:       p.Title,
		Type:        string(p.Type),
		Side:        string(p.Side),
		Line:        p.Line,
		Stake:       p.StakeOrDefault(),
		Free:        p.Free,
		Status:      string(p.Status),
		Consensus:   p.Consensus,
		Result:      string(p.Result),
		RecordedAt:  p.Recorded.Timestamp(),
		HomeScore:   p.HomeScore,
		AwayScore:   p.AwayScore,
		ResultNote:  p.ResultNote,
		PublishedAt: p.PublishedAt,
	}
}

type outcomeDTO struct {
	HomeScore         int        `json:"home_score"`
	AwayScore         int        `json:"away_score"`
	Margin            int        `json:"margin"`
	TotalPoints       int        `json:"total_points"`
	SpreadResult      string     `json:"spread_result,omitempty"`
	TotalResult       string     `json:"total_result,omitempty"`
	SpreadCoveredHome *bool      `json:"spread_covered_home,omitempty"`
	TotalOver         *bool      `json:"total_over,omitempty"`
	GradedAt          *time.Time `json:"graded_at,omitempty"`
}

func toOutcomeDTO(o domain.GradedOutcome) outcomeDTO {
	return outcomeDTO{
		HomeScore:         o.HomeScore,
		AwayScore:         o.AwayScore,
		Margin:            o.Margin,
		TotalPoints:       o.TotalPoints,
		SpreadResult:      string(o.SpreadResult),
		TotalResult:       string(o.TotalResult),
		SpreadCoveredHome: o.SpreadCoveredHome,
		TotalOver:         o.TotalOver,
		GradedAt:          o.Graded.Timestamp(),
	}
}

type predictionDTO struct {
	ID               string     `json:"id"`
	GameID           string     `json:"game_id"`
	Team             string     `json:"team"`
	Trigger          string     `json:"trigger_type"`
	Detail           string     `json:"trigger_detail,omitempty"`
	Confidence       float64    `json:"confidence"`
	PredictedOutcome string     `json:"predicted_outcome"`
	ActualOutcome    string     `json:"actual_outcome,omitempty"`
	Hit              *bool      `json:"hit,omitempty"`
	Source           string     `json:"source,omitempty"`
	TriggeredAt      time.Time  `json:"triggered_at"`
	EvaluatedAt      *time.Time `json:"evaluated_at,omitempty"`
}

func toPredictionDTOs(ps []domain.WeaknessPrediction) []predictionDTO {
	out := make([]predictionDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, predictionDTO{
			ID:               p.ID,
			GameID:           p.GameID,
			Team:             p.Team,
			Trigger:          string(p.Trigger),
			Detail:           p.Detail,
			Confidence:       p.Confidence,
			PredictedOutcome: string(p.PredictedOutcome),
			ActualOutcome:    string(p.ActualOutcome),
			Hit:              p.Hit,
			Source:           p.Source,
			TriggeredAt:      p.TriggeredAt,
			EvaluatedAt:      p.Evaluated.Timestamp(),
		})
	}
	return out
}

type weightDTO struct {
	Analyst          string     `json:"analyst"`
	Accuracy         *float64   `json:"accuracy,omitempty"`
	Weight           *float64   `json:"weight,omitempty"`
	Signal           string     `json:"signal_type"`
	SampleSize       int        `json:"sample_size"`
	LastBacktestDate *time.Time `json:"last_backtest_date,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toWeightDTOs(ws []domain.AnalystWeight) []weightDTO {
	out := make([]weightDTO, 0, len(ws))
	for _, w := range ws {
		out = append(out, weightDTO{
			Analyst:          string(w.Analyst),
			Accuracy:         w.Accuracy,
			Weight:           w.Weight,
			Signal:           string(w.Signal),
			SampleSize:       w.SampleSize,
			LastBacktestDate: w.LastBacktestDate,
			UpdatedAt:        w.UpdatedAt,
		})
	}
	return out
}
