package candidates

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestExpectedPoints(t *testing.T) {
	tests := []struct {
		name   string
		form   float64
		ppg    float64
		chance *int
		want   float64
	}{
		{"no chance signal", 6.0, 4.0, nil, 5.0},
		{"fully fit", 6.0, 4.0, intPtr(100), 5.0},
		{"exactly at threshold keeps full projection", 6.0, 4.0, intPtr(75), 5.0},
		{"doubtful scales down", 6.0, 4.0, intPtr(50), 2.5},
		{"quarter chance", 8.0, 4.0, intPtr(25), 1.5},
		{"ruled out", 6.0, 4.0, intPtr(0), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ExpectedPoints(tt.form, tt.ppg, tt.chance), 0.0001)
		})
	}
}

func TestEligible(t *testing.T) {
	// Owned players stay in the pool whatever their fitness
	assert.True(t, Eligible(true, intPtr(0)))
	assert.True(t, Eligible(true, nil))

	// Non-owned need unknown or >= 25% chance
	assert.True(t, Eligible(false, nil))
	assert.True(t, Eligible(false, intPtr(25)))
	assert.True(t, Eligible(false, intPtr(100)))
	assert.False(t, Eligible(false, intPtr(24)))
	assert.False(t, Eligible(false, intPtr(0)))
}

func TestBuild_FiltersAndProjects(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	builder := NewBuilder(log)

	elements := []fpl.Element{
		{ID: 1, WebName: "Fit", ElementType: 3, Team: 1, NowCost: 80, Form: "6.0", PointsPerGame: "4.0"},
		{ID: 2, WebName: "OwnedInjured", ElementType: 4, Team: 2, NowCost: 90, Form: "5.0", PointsPerGame: "5.0", ChanceOfPlayingNextRound: intPtr(0)},
		{ID: 3, WebName: "OutsideInjured", ElementType: 2, Team: 3, NowCost: 45, Form: "3.0", PointsPerGame: "3.0", ChanceOfPlayingNextRound: intPtr(10)},
		{ID: 4, WebName: "Doubtful", ElementType: 3, Team: 4, NowCost: 60, Form: "4.0", PointsPerGame: "6.0", ChanceOfPlayingNextRound: intPtr(50)},
	}
	owned := map[int]bool{2: true}
	selling := map[int]domain.Tenths{2: 88}

	pool := builder.Build(elements, owned, selling, 3)

	require.Len(t, pool, 3)

	byID := make(map[int]Candidate)
	for _, c := range pool {
		byID[c.ID] = c
	}

	// Injured non-owned player dropped
	_, present := byID[3]
	assert.False(t, present)

	// Flat projection across the horizon
	fit := byID[1]
	require.Len(t, fit.ExpectedPoints, 3)
	assert.InDelta(t, 5.0, fit.ExpectedPoints[0], 0.0001)
	assert.InDelta(t, 5.0, fit.ExpectedPoints[2], 0.0001)
	assert.False(t, fit.Owned)
	assert.Nil(t, fit.SellingPrice)

	// Owned injured player kept, zero projection, selling price attached
	ownedInjured := byID[2]
	assert.True(t, ownedInjured.Owned)
	require.NotNil(t, ownedInjured.SellingPrice)
	assert.Equal(t, domain.Tenths(88), *ownedInjured.SellingPrice)
	assert.InDelta(t, 0.0, ownedInjured.ExpectedPoints[0], 0.0001)

	// Doubtful player scaled by chance
	doubtful := byID[4]
	assert.InDelta(t, 2.5, doubtful.ExpectedPoints[0], 0.0001)
}

func TestBuild_EmptyHorizonStillSafe(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	builder := NewBuilder(log)

	pool := builder.Build([]fpl.Element{{ID: 1, ElementType: 1, Team: 1, NowCost: 40}}, nil, nil, 1)

	require.Len(t, pool, 1)
	assert.Len(t, pool[0].ExpectedPoints, 1)
}
