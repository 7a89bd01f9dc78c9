// Package valuation implements the squad pricing rules: half-profit
// selling prices and purchase-price reconstruction from the transfer
// ledger. All arithmetic runs on integer tenths so the 0.1 flooring is
// exact.
package valuation

import (
	"github.com/aristath/fpl-planner/internal/domain"
)

// SellingPrice returns what a manager receives for a player bought at
// purchase and currently priced at current. At or below the purchase
// price the sale realizes the current price. Above it, only half the
// profit is realized, floored to the nearest tenth: a 0.5m rise sells
// for +0.2m.
func SellingPrice(purchase, current domain.Tenths) domain.Tenths {
	if current <= purchase {
		return current
	}
	return purchase + (current-purchase)/2
}

// PurchasePrices replays a chronological transfer ledger into a map of
// player id to the price paid for them. An incoming transfer sets the
// price, an outgoing transfer vacates the entry. Players owned since
// before the ledger began never appear; callers fall back to the
// current price for them.
func PurchasePrices(ledger []domain.TransferRecord) map[int]domain.Tenths {
	prices := make(map[int]domain.Tenths)
	for _, t := range ledger {
		if t.PlayerIn != 0 {
			prices[t.PlayerIn] = t.PlayerInCost
		}
		if t.PlayerOut != 0 {
			delete(prices, t.PlayerOut)
		}
	}
	return prices
}

// Value resolves the purchase and selling price for one owned player.
// When the ledger never recorded a purchase, both default to the current
// price.
func Value(playerID int, current domain.Tenths, purchases map[int]domain.Tenths) (purchase, selling domain.Tenths) {
	purchase, known := purchases[playerID]
	if !known {
		return current, current
	}
	return purchase, SellingPrice(purchase, current)
}

// SquadValue sums the selling prices of a squad.
func SquadValue(sellingPrices []domain.Tenths) domain.Tenths {
	var total domain.Tenths
	for _, p := range sellingPrices {
		total += p
	}
	return total
}
