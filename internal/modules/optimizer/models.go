package optimizer

import (
	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
)

// Request carries everything one solve needs. TransferCeiling is the
// only field the dual scenarios vary: the conservative solve caps it at
// the free-transfer count, the optimal solve at the caller's maximum.
type Request struct {
	CurrentSquad    []int
	Pool            []candidates.Candidate
	Bank            domain.Tenths
	Budget          domain.Tenths
	FreeTransfers   int
	Horizon         int
	TransferCeiling int
}

// Result is a validated solver solution. PointHit is zero or a negative
// multiple of four; TotalPoints already includes it.
type Result struct {
	Squad         []int   `json:"squad"`
	TransfersIn   []int   `json:"transfers_in"`
	TransfersOut  []int   `json:"transfers_out"`
	TransferCount int     `json:"transfer_count"`
	PointHit      int     `json:"point_hit"`
	TotalPoints   float64 `json:"total_points"`
}

// Equal reports whether two results describe the same set of moves:
// same transfer count and identical in/out id sets, order-independent.
func (r *Result) Equal(other *Result) bool {
	if r.TransferCount != other.TransferCount {
		return false
	}
	return sameIDSet(r.TransfersIn, other.TransfersIn) && sameIDSet(r.TransfersOut, other.TransfersOut)
}

func sameIDSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
