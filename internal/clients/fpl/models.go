package fpl

import (
	"strconv"
	"time"

	"github.com/aristath/fpl-planner/internal/domain"
)

// Bootstrap is the game-wide feed: gameweeks, clubs, and the full player list.
type Bootstrap struct {
	Events   []Gameweek `json:"events"`
	Teams    []Club     `json:"teams"`
	Elements []Element  `json:"elements"`
}

// Gameweek represents a scheduling period in the events array.
type Gameweek struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	DeadlineTime time.Time `json:"deadline_time"`
	Finished     bool      `json:"finished"`
	IsCurrent    bool      `json:"is_current"`
	IsNext       bool      `json:"is_next"`
}

// Club represents a team in the teams array.
type Club struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// Element is a player record from the bootstrap feed.
// Prices arrive in tenths of a million. Form and points-per-game arrive
// as string-encoded floats.
type Element struct {
	ID                       int    `json:"id"`
	FirstName                string `json:"first_name"`
	SecondName               string `json:"second_name"`
	WebName                  string `json:"web_name"`
	ElementType              int    `json:"element_type"`
	Team                     int    `json:"team"`
	NowCost                  int    `json:"now_cost"`
	Form                     string `json:"form"`
	PointsPerGame            string `json:"points_per_game"`
	TotalPoints              int    `json:"total_points"`
	EventPoints              int    `json:"event_points"`
	Minutes                  int    `json:"minutes"`
	Status                   string `json:"status"`
	News                     string `json:"news"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round"`
	SelectedByPercent        string `json:"selected_by_percent"`
}

// Position maps the element_type code to a squad position.
func (e Element) Position() domain.Position {
	return domain.Position(e.ElementType)
}

// Price returns the current price in tenths.
func (e Element) Price() domain.Tenths {
	return domain.Tenths(e.NowCost)
}

// FormValue parses the string-encoded form rating. Returns 0 when absent
// or malformed.
func (e Element) FormValue() float64 {
	return parseFloat(e.Form)
}

// PointsPerGameValue parses the string-encoded points-per-game average.
func (e Element) PointsPerGameValue() float64 {
	return parseFloat(e.PointsPerGame)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Entry is a manager summary.
type Entry struct {
	ID                  int    `json:"id"`
	PlayerFirstName     string `json:"player_first_name"`
	PlayerLastName      string `json:"player_last_name"`
	Name                string `json:"name"`
	CurrentEvent        int    `json:"current_event"`
	SummaryOverallPoint int    `json:"summary_overall_points"`
	SummaryOverallRank  int    `json:"summary_overall_rank"`
	LastDeadlineBank    int    `json:"last_deadline_bank"`
	LastDeadlineValue   int    `json:"last_deadline_value"`
}

// PicksResponse is the squad selection for one gameweek.
type PicksResponse struct {
	EntryHistory PicksHistory `json:"entry_history"`
	Picks        []Pick       `json:"picks"`
}

// PicksHistory carries the bank and squad value alongside the picks,
// both in tenths.
type PicksHistory struct {
	Event              int `json:"event"`
	Points             int `json:"points"`
	TotalPoints        int `json:"total_points"`
	Bank               int `json:"bank"`
	Value              int `json:"value"`
	EventTransfers     int `json:"event_transfers"`
	EventTransfersCost int `json:"event_transfers_cost"`
}

// Pick is a single slot in the 15-player selection.
type Pick struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	Multiplier    int  `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}

// Transfer is one row of the manager's transfer ledger. Costs are the
// prices paid/received at transfer time, in tenths.
type Transfer struct {
	Entry          int       `json:"entry"`
	Event          int       `json:"event"`
	ElementIn      int       `json:"element_in"`
	ElementInCost  int       `json:"element_in_cost"`
	ElementOut     int       `json:"element_out"`
	ElementOutCost int       `json:"element_out_cost"`
	Time           time.Time `json:"time"`
}

// History is the manager's season history.
type History struct {
	Current []GameweekHistory `json:"current"`
}

// GameweekHistory is one completed gameweek of a manager's season.
type GameweekHistory struct {
	Event              int `json:"event"`
	Points             int `json:"points"`
	TotalPoints        int `json:"total_points"`
	Bank               int `json:"bank"`
	Value              int `json:"value"`
	EventTransfers     int `json:"event_transfers"`
	EventTransfersCost int `json:"event_transfers_cost"`
	OverallRank        int `json:"overall_rank"`
}
