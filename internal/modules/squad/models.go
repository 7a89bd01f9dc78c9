package squad

import (
	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/domain"
)

// SquadPlayer is one owned player with the three prices that matter
// for transfer planning: current list price, the price paid, and the
// price the game would pay out on a sale.
type SquadPlayer struct {
	ID            int
	Name          string
	Position      domain.Position
	ClubID        int
	Club          string
	Price         domain.Tenths
	PurchasePrice domain.Tenths
	SellingPrice  domain.Tenths
	Form          float64
	PointsPerGame float64
	Chance        *int
	IsCaptain     bool
}

// State is the assembled planning input for one manager: the valued
// squad plus the money and transfer allowance available this gameweek.
type State struct {
	EntryID       int
	TeamName      string
	ManagerName   string
	Event         int
	Players       []SquadPlayer
	Bank          domain.Tenths
	SquadValue    domain.Tenths
	Budget        domain.Tenths
	FreeTransfers int
	History       []fpl.GameweekHistory
}

// PlayerIDs returns the owned element ids in pick order.
func (s *State) PlayerIDs() []int {
	ids := make([]int, len(s.Players))
	for i, p := range s.Players {
		ids[i] = p.ID
	}
	return ids
}

// Owned returns the ownership set keyed by element id.
func (s *State) Owned() map[int]bool {
	owned := make(map[int]bool, len(s.Players))
	for _, p := range s.Players {
		owned[p.ID] = true
	}
	return owned
}

// SellingPrices returns the sale value per owned element id.
func (s *State) SellingPrices() map[int]domain.Tenths {
	prices := make(map[int]domain.Tenths, len(s.Players))
	for _, p := range s.Players {
		prices[p.ID] = p.SellingPrice
	}
	return prices
}
