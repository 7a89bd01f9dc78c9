package players

import (
	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/pkg/formulas"
)

// Player is one row of the player store, denormalized from the
// provider's bootstrap feed.
type Player struct {
	ID            int
	Name          string
	FullName      string
	Position      domain.Position
	ClubID        int
	Club          string
	Price         domain.Tenths
	Form          float64
	PointsPerGame float64
	TotalPoints   int
	EventPoints   int
	Minutes       int
	Status        string
	News          string
	Chance        *int
	SelectedBy    string
}

// GameweekPoints is one appended history row for a player.
type GameweekPoints struct {
	Event  int `json:"event"`
	Points int `json:"points"`
}

// Filter narrows and orders a player listing.
type Filter struct {
	Position *domain.Position
	ClubID   *int
	SortBy   string
	Limit    int
}

// PoolStats summarizes the expected-points distribution at one position.
type PoolStats struct {
	Position       string           `json:"position"`
	ExpectedPoints formulas.Summary `json:"expected_points"`
}
