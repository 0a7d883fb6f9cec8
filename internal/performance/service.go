package performance

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Report is the full performance view served by the API.
type Report struct {
	Overall     Stats                     `json:"overall"`
	ByType      map[domain.PickType]Stats `json:"by_type"`
	ByConsensus map[string]Stats          `json:"by_consensus"`
	ByMonth     map[string]Stats          `json:"by_month"`
}

// TeamRecords bundles a team's ATS and O/U records.
type TeamRecords struct {
	Team string `json:"team"`
	ATS  ATS    `json:"ats"`
	OU   OU     `json:"ou"`
}

// Service reads graded data from the stores.
type Service struct {
	picks   domain.PickStore
	results domain.GameResultStore
	logger  *slog.Logger
}

// NewService creates a performance Service.
func NewService(picks domain.PickStore, results domain.GameResultStore, logger *slog.Logger) *Service {
	return &Service{
		picks:   picks,
		results: results,
		logger:  logger.With(slog.String("component", "performance")),
	}
}

// Report aggregates every graded pick matching f.
func (s *Service) Report(ctx context.Context, f domain.PickFilter) (Report, error) {
	picks, err := s.picks.ListGraded(ctx, f)
	if err != nil {
		return Report{}, domain.External("performance: list graded picks", err)
	}
	s.logger.DebugContext(ctx, "performance report", slog.Int("picks", len(picks)))
	return Report{
		Overall:     Summarize(picks),
		ByType:      ByPickType(picks),
		ByConsensus: ByConsensus(picks),
		ByMonth:     ByMonth(picks),
	}, nil
}

// TeamRecords returns the ATS and O/U records for a team abbreviation.
func (s *Service) TeamRecords(ctx context.Context, team string) (TeamRecords, error) {
	games, err := s.results.ListGradedForTeam(ctx, team)
	if err != nil {
		return TeamRecords{}, domain.External("performance: list graded games for "+team, err)
	}
	return TeamRecords{Team: team, ATS: ATSRecord(team, games), OU: OURecord(team, games)}, nil
}
