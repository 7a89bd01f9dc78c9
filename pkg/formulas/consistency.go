package formulas

// blankThreshold is the most a player can score in a gameweek and still
// count as a blank (appearance points only, no attacking or bonus return).
const blankThreshold = 2.0

// Consistency measures how dependable a player's scoring is: mean
// gameweek points divided by their standard deviation. Steady scorers
// rate higher than boom-or-bust players with the same average.
//
// Returns nil with fewer than two gameweeks of history, or when every
// score is identical (zero deviation).
func Consistency(scores []float64) *float64 {
	if len(scores) < 2 {
		return nil
	}

	stdDev := StdDev(scores)
	if stdDev == 0 {
		return nil
	}

	ratio := Mean(scores) / stdDev
	return &ratio
}

// BlankRate returns the fraction of recorded gameweeks in which the
// player blanked. Nil when there is no history.
func BlankRate(scores []float64) *float64 {
	if len(scores) == 0 {
		return nil
	}

	blanks := 0
	for _, s := range scores {
		if s <= blankThreshold {
			blanks++
		}
	}

	rate := float64(blanks) / float64(len(scores))
	return &rate
}
