// Package candidates builds the optimization pool: per-player point
// projections and the availability filter applied before any solve.
package candidates

import (
	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/pkg/formulas"
)

// availabilityThreshold is the chance-of-playing percentage below which
// the projection is scaled down.
const availabilityThreshold = 75

// eligibilityThreshold is the chance-of-playing percentage below which a
// non-owned player is excluded from the pool entirely.
const eligibilityThreshold = 25

// ExpectedPoints projects a single gameweek's points from form and
// points-per-game, scaled by availability when a chance-of-playing
// signal is present and below 75%.
func ExpectedPoints(form, pointsPerGame float64, chance *int) float64 {
	base := (form + pointsPerGame) / 2
	if chance != nil && *chance < availabilityThreshold {
		return base * float64(*chance) / 100
	}
	return base
}

// Eligible reports whether a player belongs in the candidate pool.
// Owned players always qualify so they stay sellable while injured;
// everyone else needs an unknown or >= 25% chance of playing.
func Eligible(owned bool, chance *int) bool {
	if owned {
		return true
	}
	return chance == nil || *chance >= eligibilityThreshold
}

// Builder assembles candidate pools from the bootstrap feed.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a new candidate pool builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("service", "candidates").Logger(),
	}
}

// Build turns the bootstrap player list into the candidate pool for one
// optimization run. Owned players carry their selling price; the flat
// per-gameweek projection is replicated across the horizon.
func (b *Builder) Build(elements []fpl.Element, owned map[int]bool, sellingPrices map[int]domain.Tenths, horizon int) []Candidate {
	pool := make([]Candidate, 0, len(elements))
	eps := make([]float64, 0, len(elements))

	for _, e := range elements {
		isOwned := owned[e.ID]
		if !Eligible(isOwned, e.ChanceOfPlayingNextRound) {
			continue
		}

		form := e.FormValue()
		ppg := e.PointsPerGameValue()
		ep := ExpectedPoints(form, ppg, e.ChanceOfPlayingNextRound)

		projection := make([]float64, horizon)
		for i := range projection {
			projection[i] = ep
		}

		c := Candidate{
			ID:             e.ID,
			Name:           e.WebName,
			Position:       e.Position(),
			Club:           e.Team,
			Price:          e.Price(),
			Owned:          isOwned,
			Form:           form,
			PointsPerGame:  ppg,
			Chance:         e.ChanceOfPlayingNextRound,
			ExpectedPoints: projection,
		}

		if isOwned {
			if sell, ok := sellingPrices[e.ID]; ok {
				sellCopy := sell
				c.SellingPrice = &sellCopy
			}
		}

		pool = append(pool, c)
		eps = append(eps, ep)
	}

	epSummary := formulas.Summarize(eps)
	b.log.Debug().
		Int("total", len(elements)).
		Int("eligible", len(pool)).
		Int("horizon", horizon).
		Float64("mean_ep", epSummary.Mean).
		Float64("max_ep", epSummary.Max).
		Msg("Built candidate pool")

	return pool
}
