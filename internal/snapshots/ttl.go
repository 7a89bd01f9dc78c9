package snapshots

import "time"

// Snapshot kinds for upstream payloads.
const (
	KindBootstrap = "bootstrap"
	KindPicks     = "picks"
	KindTransfers = "transfers"
	KindHistory   = "history"
)

// TTL constants per payload kind.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Game-wide data (prices and form move between deadlines, not minute to minute)
	TTLBootstrap = 15 * time.Minute

	// Per-manager data (picks and transfers change on user action)
	TTLPicks     = 5 * time.Minute
	TTLTransfers = 5 * time.Minute
	TTLHistory   = 15 * time.Minute
)

// validKinds is a set for O(1) kind validation.
var validKinds = map[string]bool{
	KindBootstrap: true,
	KindPicks:     true,
	KindTransfers: true,
	KindHistory:   true,
}
