package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHorizonWeight_Table(t *testing.T) {
	tests := []struct {
		offset   int
		expected float64
	}{
		{0, 1.0},
		{1, 0.85},
		{2, 0.7},
		{3, 0.55},
		{4, 0.4},
		{5, 0.3},
		{6, 0.2},
		{7, 0.15},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, HorizonWeight(tt.offset), "offset %d", tt.offset)
	}
}

func TestHorizonWeight_BeyondTable(t *testing.T) {
	assert.Equal(t, 0.1, HorizonWeight(8))
	assert.Equal(t, 0.1, HorizonWeight(20))
}

func TestHorizonWeight_NegativeOffset(t *testing.T) {
	assert.Equal(t, 0.1, HorizonWeight(-1))
}

func TestWeightedExpectedPoints(t *testing.T) {
	// 5.0*1.0 + 4.0*0.85 + 3.0*0.7 = 10.5
	ep := []float64{5.0, 4.0, 3.0}
	assert.InDelta(t, 10.5, WeightedExpectedPoints(ep), 1e-9)
}

func TestWeightedExpectedPoints_Empty(t *testing.T) {
	assert.Equal(t, 0.0, WeightedExpectedPoints(nil))
}

func TestWeightedExpectedPoints_UsesFallbackPastTable(t *testing.T) {
	// Nine gameweeks: the ninth gets weight 0.1
	ep := make([]float64, 9)
	for i := range ep {
		ep[i] = 0
	}
	ep[8] = 10.0

	assert.InDelta(t, 1.0, WeightedExpectedPoints(ep), 1e-9)
}

func TestTotalExpectedPoints(t *testing.T) {
	assert.Equal(t, 12.0, TotalExpectedPoints([]float64{5, 4, 3}))
	assert.Equal(t, 0.0, TotalExpectedPoints(nil))
}
