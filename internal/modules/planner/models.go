package planner

import (
	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/internal/modules/optimizer"
)

// Verdict says which scenario is worth acting on.
type Verdict string

const (
	// VerdictConservative - stay within the free allowance
	VerdictConservative Verdict = "conservative"
	// VerdictOptimal - the hits pay for themselves
	VerdictOptimal Verdict = "optimal"
	// VerdictEither - both scenarios landed on the same moves
	VerdictEither Verdict = "either"
)

// DualRequest feeds one dual-scenario run. MaxTransfers caps the
// optimal solve; the conservative solve is always capped at
// FreeTransfers.
type DualRequest struct {
	CurrentSquad  []int
	Pool          []candidates.Candidate
	Bank          domain.Tenths
	Budget        domain.Tenths
	FreeTransfers int
	Horizon       int
	MaxTransfers  int
}

// SuggestionPlayer is one side of a suggested transfer pairing.
type SuggestionPlayer struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Position   string  `json:"position"`
	Price      float64 `json:"price"`
	WeightedEP float64 `json:"weighted_ep"`
}

// Suggestion pairs one outgoing player with one incoming player.
// ExpectedGain is the weighted projection difference; HitCost is 0 or
// -4 and sums to the scenario's point hit across all suggestions.
type Suggestion struct {
	Out          SuggestionPlayer `json:"out"`
	In           SuggestionPlayer `json:"in"`
	ExpectedGain float64          `json:"expected_gain"`
	HitCost      int              `json:"hit_cost"`
	NetGain      float64          `json:"net_gain"`
}

// Scenario is one solved scenario with its transfer pairings.
type Scenario struct {
	optimizer.Result
	Suggestions []Suggestion `json:"suggestions"`
}

// DualRecommendation is the outcome of a dual-scenario run.
type DualRecommendation struct {
	Conservative     *Scenario `json:"conservative"`
	Optimal          *Scenario `json:"optimal"`
	Identical        bool      `json:"identical"`
	NetGainFromHits  float64   `json:"net_gain_from_hits"`
	HitTransferCount int       `json:"hit_transfer_count"`
	Verdict          Verdict   `json:"verdict"`
}
