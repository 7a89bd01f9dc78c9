package formulas

// horizonWeights discounts expected points in future gameweeks, reflecting
// growing prediction uncertainty. Index 0 is the upcoming gameweek.
var horizonWeights = [...]float64{1.0, 0.85, 0.7, 0.55, 0.4, 0.3, 0.2, 0.15}

// fallbackWeight applies to any gameweek beyond the table
const fallbackWeight = 0.1

// HorizonTableLen is the number of gameweeks with an explicit weight
const HorizonTableLen = len(horizonWeights)

// HorizonWeight returns the discount for a 0-based gameweek offset.
// Offsets past the table get the fallback weight.
func HorizonWeight(offset int) float64 {
	if offset >= 0 && offset < len(horizonWeights) {
		return horizonWeights[offset]
	}
	return fallbackWeight
}

// WeightedExpectedPoints sums a per-gameweek expected points sequence under
// the horizon discount. The sequence is indexed by gameweek offset.
func WeightedExpectedPoints(ep []float64) float64 {
	total := 0.0
	for i, v := range ep {
		total += v * HorizonWeight(i)
	}
	return total
}

// TotalExpectedPoints sums a per-gameweek sequence without discounting.
// Used by the solver request pre-filter, which ranks on raw totals.
func TotalExpectedPoints(ep []float64) float64 {
	total := 0.0
	for _, v := range ep {
		total += v
	}
	return total
}
