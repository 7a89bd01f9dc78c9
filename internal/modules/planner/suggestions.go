package planner

import (
	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/internal/modules/optimizer"
	"github.com/aristath/fpl-planner/pkg/formulas"
)

// buildSuggestions pairs the solver's outgoing and incoming players in
// order. Pairings past the free allowance each carry the standard
// 4-point hit, so the hit costs sum to the scenario's point hit.
func buildSuggestions(result *optimizer.Result, pool map[int]candidates.Candidate, freeTransfers int) []Suggestion {
	suggestions := make([]Suggestion, 0, len(result.TransfersIn))

	for i := range result.TransfersIn {
		in := suggestionPlayer(pool[result.TransfersIn[i]], false)
		out := suggestionPlayer(pool[result.TransfersOut[i]], true)

		gain := in.WeightedEP - out.WeightedEP
		hitCost := 0
		if i >= freeTransfers {
			hitCost = -domain.PointHitPenalty
		}

		suggestions = append(suggestions, Suggestion{
			Out:          out,
			In:           in,
			ExpectedGain: gain,
			HitCost:      hitCost,
			NetGain:      gain + float64(hitCost),
		})
	}

	return suggestions
}

// suggestionPlayer flattens a candidate for display. Outgoing players
// show their selling price, incoming players their buy price.
func suggestionPlayer(c candidates.Candidate, outgoing bool) SuggestionPlayer {
	price := c.Price
	if outgoing && c.SellingPrice != nil {
		price = *c.SellingPrice
	}

	return SuggestionPlayer{
		ID:         c.ID,
		Name:       c.Name,
		Position:   c.Position.String(),
		Price:      price.Millions(),
		WeightedEP: formulas.WeightedExpectedPoints(c.ExpectedPoints),
	}
}
