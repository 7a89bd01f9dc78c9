package formulas

import (
	"github.com/markcheno/go-talib"
)

// PointsMomentum calculates an exponential moving average over a player's
// recent gameweek scores, weighting the latest gameweeks hardest.
//
// Args:
//
//	scores: per-gameweek points, oldest first
//	period: EMA period (typically 4-6 gameweeks)
//
// Returns:
//
//	Current momentum value or nil if insufficient data
func PointsMomentum(scores []float64, period int) *float64 {
	if len(scores) < period {
		return nil
	}

	ema := talib.Ema(scores, period)

	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	return nil
}

// RecentAverage calculates a simple moving average over the last N
// gameweek scores.
func RecentAverage(scores []float64, period int) *float64 {
	if len(scores) < period {
		return nil
	}

	sma := talib.Sma(scores, period)

	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
