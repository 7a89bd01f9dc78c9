package solver

import (
	"encoding/json"
	"fmt"
)

// Player is one row of the candidate pool on the solver wire. Prices are
// in millions. Expected points are per horizon gameweek and flatten to
// ep_gw1..ep_gwN keys on the wire.
type Player struct {
	ID             int
	Position       int
	Team           int
	Price          float64
	SellingPrice   *float64
	ExpectedPoints []float64
}

// MarshalJSON flattens ExpectedPoints into ep_gwN keys.
func (p Player) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{
		"id":       p.ID,
		"position": p.Position,
		"team":     p.Team,
		"price":    p.Price,
	}
	if p.SellingPrice != nil {
		m["selling_price"] = *p.SellingPrice
	}
	for i, ep := range p.ExpectedPoints {
		m[fmt.Sprintf("ep_gw%d", i+1)] = ep
	}
	return json.Marshal(m)
}

// Request is the optimization request sent to the solver.
type Request struct {
	CurrentSquad  []int    `json:"current_squad"`
	AllPlayers    []Player `json:"all_players"`
	Budget        float64  `json:"budget"`
	Bank          float64  `json:"bank"`
	FreeTransfers int      `json:"free_transfers"`
	Horizon       int      `json:"horizon"`
	MaxTransfers  int      `json:"max_transfers"`
}

// ResponsePlayer is a player object in the solver response. The solver
// echoes full player rows; only the id is consumed.
type ResponsePlayer struct {
	ID int `json:"id"`
}

// Response is the solver's answer. Error is set instead of a solution
// when the model was infeasible or the input malformed; the remaining
// fields are then degenerate and must not be trusted.
// PointHit arrives as a positive penalty (0, 4, 8, ...).
type Response struct {
	Error          string           `json:"error,omitempty"`
	Squad          []int            `json:"squad"`
	TransfersIn    []ResponsePlayer `json:"transfers_in"`
	TransfersOut   []ResponsePlayer `json:"transfers_out"`
	TotalTransfers int              `json:"total_transfers"`
	PointHit       int              `json:"point_hit"`
	ExpectedPoints float64          `json:"expected_points"`
}

// TransferInIDs returns the ids of the incoming players.
func (r *Response) TransferInIDs() []int {
	ids := make([]int, len(r.TransfersIn))
	for i, p := range r.TransfersIn {
		ids[i] = p.ID
	}
	return ids
}

// TransferOutIDs returns the ids of the outgoing players.
func (r *Response) TransferOutIDs() []int {
	ids := make([]int, len(r.TransfersOut))
	for i, p := range r.TransfersOut {
		ids[i] = p.ID
	}
	return ids
}
