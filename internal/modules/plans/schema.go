package plans

import "database/sql"

// InitSchema ensures the plan history table exists in planner.db
const PlansSchema = `
CREATE TABLE IF NOT EXISTS plans (
    uuid TEXT PRIMARY KEY,
    entry_id INTEGER NOT NULL,
    event INTEGER NOT NULL,
    verdict TEXT NOT NULL,
    identical INTEGER NOT NULL DEFAULT 0,
    conservative_transfers INTEGER NOT NULL,
    optimal_transfers INTEGER NOT NULL,
    conservative_points REAL NOT NULL,
    optimal_points REAL NOT NULL,
    net_gain REAL NOT NULL,
    hit_transfers INTEGER NOT NULL,
    suggestions_json TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_entry ON plans(entry_id, created_at);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(PlansSchema)
	return err
}
