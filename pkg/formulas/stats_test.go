package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	s := Summarize(data)

	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.138, s.StdDev, 0.001) // sample std dev
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 0.0, s.Mean)
}

func TestQuantile_DoesNotMutateInput(t *testing.T) {
	data := []float64{9, 1, 5}
	Quantile(0.5, data)
	assert.Equal(t, []float64{9, 1, 5}, data)
}

func TestPointsMomentum_InsufficientData(t *testing.T) {
	assert.Nil(t, PointsMomentum([]float64{2, 6}, 4))
}

func TestPointsMomentum_ConstantScores(t *testing.T) {
	scores := []float64{6, 6, 6, 6, 6, 6}

	m := PointsMomentum(scores, 4)
	require.NotNil(t, m)
	assert.InDelta(t, 6.0, *m, 1e-9)
}

func TestRecentAverage(t *testing.T) {
	scores := []float64{0, 0, 2, 6, 8, 12}

	avg := RecentAverage(scores, 4)
	require.NotNil(t, avg)
	assert.InDelta(t, 7.0, *avg, 1e-9) // (2+6+8+12)/4
}

func TestRecentAverage_InsufficientData(t *testing.T) {
	assert.Nil(t, RecentAverage([]float64{1}, 4))
}
