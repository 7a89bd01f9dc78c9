package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsistency(t *testing.T) {
	// Mean 5, sample std dev 2
	scores := []float64{3, 5, 7}

	c := Consistency(scores)
	require.NotNil(t, c)
	assert.InDelta(t, 2.5, *c, 1e-9)
}

func TestConsistency_InsufficientData(t *testing.T) {
	assert.Nil(t, Consistency([]float64{6}))
}

func TestConsistency_ConstantScores(t *testing.T) {
	// Zero deviation has no defined ratio
	assert.Nil(t, Consistency([]float64{4, 4, 4, 4}))
}

func TestBlankRate(t *testing.T) {
	scores := []float64{0, 2, 6, 1, 9, 2}

	r := BlankRate(scores)
	require.NotNil(t, r)
	assert.InDelta(t, 4.0/6.0, *r, 1e-9)
}

func TestBlankRate_NoHistory(t *testing.T) {
	assert.Nil(t, BlankRate(nil))
}

func TestFormDrawdown_AtPeak(t *testing.T) {
	// Rising scores keep the latest window at the peak
	scores := []float64{1, 2, 3, 4, 5, 6}

	dd := FormDrawdown(scores, 3)
	require.NotNil(t, dd)
	assert.InDelta(t, 0.0, *dd, 1e-9)
}

func TestFormDrawdown_Decline(t *testing.T) {
	// Peak window averages 8, latest window averages 2
	scores := []float64{8, 8, 8, 2, 2, 2}

	dd := FormDrawdown(scores, 3)
	require.NotNil(t, dd)
	assert.InDelta(t, 0.75, *dd, 1e-9)
}

func TestFormDrawdown_InsufficientData(t *testing.T) {
	assert.Nil(t, FormDrawdown([]float64{5, 5}, 4))
}

func TestFormDrawdown_NeverScored(t *testing.T) {
	assert.Nil(t, FormDrawdown([]float64{0, 0, 0, 0}, 3))
}
