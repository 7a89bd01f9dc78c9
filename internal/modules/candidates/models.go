package candidates

import "github.com/aristath/fpl-planner/internal/domain"

// Candidate is one player eligible for the optimization pool, carrying
// the projection the solver objective consumes.
type Candidate struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Position      domain.Position `json:"position"`
	Club          int             `json:"club"`
	Price         domain.Tenths   `json:"price"`
	SellingPrice  *domain.Tenths  `json:"selling_price,omitempty"`
	Owned         bool            `json:"owned"`
	Form          float64         `json:"form"`
	PointsPerGame float64         `json:"points_per_game"`
	Chance        *int            `json:"chance,omitempty"`

	// ExpectedPoints holds one value per horizon gameweek. The projection
	// is flat across the horizon; decay is applied by the solver weights.
	ExpectedPoints []float64 `json:"expected_points"`
}
