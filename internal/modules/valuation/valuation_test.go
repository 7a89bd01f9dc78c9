package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/fpl-planner/internal/domain"
)

func TestSellingPrice(t *testing.T) {
	tests := []struct {
		name     string
		purchase domain.Tenths
		current  domain.Tenths
		want     domain.Tenths
	}{
		{"flat price", 100, 100, 100},
		{"price dropped", 100, 95, 95},
		{"profit of one tenth rounds away", 100, 101, 100},
		{"even profit splits cleanly", 100, 104, 102},
		{"odd profit floors", 100, 105, 102},
		{"larger odd profit floors", 80, 87, 83},
		{"big riser", 50, 70, 60},
		{"single tenth above", 45, 46, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SellingPrice(tt.purchase, tt.current))
		})
	}
}

func TestPurchasePrices_ReplaysLedger(t *testing.T) {
	base := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)
	ledger := []domain.TransferRecord{
		{Event: 2, PlayerIn: 10, PlayerInCost: 55, PlayerOut: 11, PlayerOutCost: 60, Time: base},
		{Event: 4, PlayerIn: 20, PlayerInCost: 80, PlayerOut: 21, PlayerOutCost: 45, Time: base.AddDate(0, 0, 14)},
		{Event: 6, PlayerIn: 11, PlayerInCost: 62, PlayerOut: 10, PlayerOutCost: 55, Time: base.AddDate(0, 0, 28)},
	}

	prices := PurchasePrices(ledger)

	// Player 10 came in at 55 and left again
	_, owned := prices[10]
	assert.False(t, owned)

	// Player 11 left in gameweek 2 and was re-bought at the new price
	assert.Equal(t, domain.Tenths(62), prices[11])
	assert.Equal(t, domain.Tenths(80), prices[20])

	// Player 21 was sold and never re-bought
	_, owned = prices[21]
	assert.False(t, owned)
}

func TestPurchasePrices_EmptyLedger(t *testing.T) {
	prices := PurchasePrices(nil)
	assert.Empty(t, prices)
}

func TestValue_FallsBackToCurrentPrice(t *testing.T) {
	purchases := map[int]domain.Tenths{10: 55}

	// Known purchase: half profit realized
	purchase, selling := Value(10, 61, purchases)
	assert.Equal(t, domain.Tenths(55), purchase)
	assert.Equal(t, domain.Tenths(58), selling)

	// Unknown purchase: conservative fallback, no markup either way
	purchase, selling = Value(99, 120, purchases)
	assert.Equal(t, domain.Tenths(120), purchase)
	assert.Equal(t, domain.Tenths(120), selling)
}

func TestSquadValue(t *testing.T) {
	assert.Equal(t, domain.Tenths(0), SquadValue(nil))
	assert.Equal(t, domain.Tenths(150), SquadValue([]domain.Tenths{40, 50, 60}))
}
