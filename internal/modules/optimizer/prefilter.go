package optimizer

import (
	"sort"

	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/pkg/formulas"
)

// minKeepPerPosition is the floor on candidates retained per position
// after the viability cut.
const minKeepPerPosition = 30

// Prefilter shrinks the candidate pool before it goes on the wire. Owned
// players always survive. Non-owned players are dropped when they cost
// more than the whole budget, then cut to the top half per position by
// summed raw expected points, keeping at least minKeepPerPosition.
//
// The cut depends only on budget and projections, not on the transfer
// ceiling, so both dual-scenario solves share one filtered pool.
func Prefilter(pool []candidates.Candidate, budget domain.Tenths) []candidates.Candidate {
	filtered := make([]candidates.Candidate, 0, len(pool))
	byPosition := make(map[domain.Position][]candidates.Candidate)

	for _, c := range pool {
		if c.Owned {
			filtered = append(filtered, c)
			continue
		}
		if c.Price > budget {
			continue
		}
		byPosition[c.Position] = append(byPosition[c.Position], c)
	}

	for _, pos := range domain.Positions {
		group := byPosition[pos]
		sort.SliceStable(group, func(i, j int) bool {
			return formulas.TotalExpectedPoints(group[i].ExpectedPoints) > formulas.TotalExpectedPoints(group[j].ExpectedPoints)
		})

		keep := len(group) / 2
		if keep < minKeepPerPosition {
			keep = minKeepPerPosition
		}
		if keep > len(group) {
			keep = len(group)
		}
		filtered = append(filtered, group[:keep]...)
	}

	return filtered
}
