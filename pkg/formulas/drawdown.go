package formulas

import (
	"github.com/markcheno/go-talib"
)

// FormDrawdown reports how far a player's rolling form has fallen from
// its season peak, as a fraction of that peak: 0 means the player is at
// peak form, 0.5 means current form is half what it was at its best.
// Form is the simple moving average of gameweek points over period.
//
// Returns nil until a full averaging window exists, or when the player
// has never held positive form.
func FormDrawdown(scores []float64, period int) *float64 {
	if period <= 0 || len(scores) < period {
		return nil
	}

	sma := talib.Sma(scores, period)

	peak := 0.0
	current := 0.0
	for _, v := range sma {
		if isNaN(v) {
			continue
		}
		if v > peak {
			peak = v
		}
		current = v
	}

	if peak <= 0 {
		return nil
	}

	drawdown := (peak - current) / peak
	return &drawdown
}
