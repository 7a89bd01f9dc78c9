package domain

import (
	"fmt"
	"time"
)

// Position represents a player's role, using the data provider's
// element_type numbering (1=GK, 2=DEF, 3=MID, 4=FWD).
type Position int

const (
	Goalkeeper Position = 1
	Defender   Position = 2
	Midfielder Position = 3
	Forward    Position = 4
)

// String returns the short position code
func (p Position) String() string {
	switch p {
	case Goalkeeper:
		return "GK"
	case Defender:
		return "DEF"
	case Midfielder:
		return "MID"
	case Forward:
		return "FWD"
	}
	return fmt.Sprintf("POS(%d)", int(p))
}

// Valid reports whether p is one of the four playable roles
func (p Position) Valid() bool {
	return p >= Goalkeeper && p <= Forward
}

// Squad composition rules
const (
	// SquadSize is the fixed roster size
	SquadSize = 15

	// MaxPerClub is the maximum players allowed from one club
	MaxPerClub = 3

	// PointHitPenalty is the points charged per transfer beyond the free allowance
	PointHitPenalty = 4
)

// SquadQuota is the required player count per position in a valid squad
var SquadQuota = map[Position]int{
	Goalkeeper: 2,
	Defender:   5,
	Midfielder: 5,
	Forward:    3,
}

// Positions lists the four roles in quota order
var Positions = []Position{Goalkeeper, Defender, Midfielder, Forward}

// Tenths is a price in tenths of a million, the data provider's native
// unit (now_cost 105 = £10.5m). All internal price arithmetic happens in
// this integer representation so the half-profit rounding rules stay exact.
type Tenths int

// Millions converts to the decimal representation used on the solver wire
func (t Tenths) Millions() float64 {
	return float64(t) / 10.0
}

// String formats the price the way the game displays it
func (t Tenths) String() string {
	return fmt.Sprintf("£%.1fm", t.Millions())
}

// TenthsFromMillions converts a decimal price into tenths, rounding to the
// nearest tenth to absorb float jitter from external sources.
func TenthsFromMillions(m float64) Tenths {
	if m >= 0 {
		return Tenths(m*10 + 0.5)
	}
	return Tenths(m*10 - 0.5)
}

// TransferRecord is one row of a manager's transfer ledger, in
// chronological order. Costs are the prices at transfer time.
type TransferRecord struct {
	Event         int       `json:"event"`
	PlayerIn      int       `json:"player_in"`
	PlayerInCost  Tenths    `json:"player_in_cost"`
	PlayerOut     int       `json:"player_out"`
	PlayerOutCost Tenths    `json:"player_out_cost"`
	Time          time.Time `json:"time"`
}
