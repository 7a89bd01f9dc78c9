package players

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/pkg/formulas"
)

// Service keeps the player store in step with the provider feed.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a player sync service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "players").Logger(),
	}
}

// Sync upserts every element of the bootstrap feed into the store.
func (s *Service) Sync(bootstrap *fpl.Bootstrap) (int, error) {
	clubs := make(map[int]string, len(bootstrap.Teams))
	for _, club := range bootstrap.Teams {
		clubs[club.ID] = club.ShortName
	}

	playerRows := make([]Player, 0, len(bootstrap.Elements))
	for _, el := range bootstrap.Elements {
		playerRows = append(playerRows, Player{
			ID:            el.ID,
			Name:          el.WebName,
			FullName:      el.FirstName + " " + el.SecondName,
			Position:      el.Position(),
			ClubID:        el.Team,
			Club:          clubs[el.Team],
			Price:         el.Price(),
			Form:          el.FormValue(),
			PointsPerGame: el.PointsPerGameValue(),
			TotalPoints:   el.TotalPoints,
			EventPoints:   el.EventPoints,
			Minutes:       el.Minutes,
			Status:        el.Status,
			News:          el.News,
			Chance:        el.ChanceOfPlayingNextRound,
			SelectedBy:    el.SelectedByPercent,
		})
	}

	count, err := s.repo.UpsertAll(playerRows)
	if err != nil {
		return 0, fmt.Errorf("failed to sync players: %w", err)
	}

	s.log.Info().Int("players", count).Msg("Player store synced")
	return count, nil
}

// RecordGameweekPoints appends the current gameweek's live scores to
// the points history. A feed with no current gameweek (pre-season)
// records nothing.
func (s *Service) RecordGameweekPoints(bootstrap *fpl.Bootstrap) (int, error) {
	gw, err := fpl.CurrentGameweek(bootstrap)
	if err != nil {
		s.log.Debug().Msg("No current gameweek, skipping points history")
		return 0, nil
	}

	points := make(map[int]int, len(bootstrap.Elements))
	for _, el := range bootstrap.Elements {
		points[el.ID] = el.EventPoints
	}

	count, err := s.repo.RecordEventPoints(gw, points)
	if err != nil {
		return 0, fmt.Errorf("failed to record gameweek points: %w", err)
	}

	s.log.Info().Int("event", gw).Int("players", count).Msg("Gameweek points recorded")
	return count, nil
}

// PoolStats summarizes the expected-points spread of the eligible pool
// per position. Squad ownership does not affect the aggregate view, so
// eligibility here considers availability only.
func (s *Service) PoolStats() ([]PoolStats, error) {
	stored, err := s.repo.List(Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load players for stats: %w", err)
	}

	byPosition := make(map[domain.Position][]float64)
	for _, p := range stored {
		if !candidates.Eligible(false, p.Chance) {
			continue
		}
		ep := candidates.ExpectedPoints(p.Form, p.PointsPerGame, p.Chance)
		byPosition[p.Position] = append(byPosition[p.Position], ep)
	}

	stats := make([]PoolStats, 0, len(domain.Positions))
	for _, pos := range domain.Positions {
		stats = append(stats, PoolStats{
			Position:       pos.String(),
			ExpectedPoints: formulas.Summarize(byPosition[pos]),
		})
	}

	return stats, nil
}
