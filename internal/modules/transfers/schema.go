package transfers

import "database/sql"

// InitSchema ensures the transfer ledger table exists in planner.db
const TransfersSchema = `
CREATE TABLE IF NOT EXISTS transfers (
    id INTEGER PRIMARY KEY,
    entry_id INTEGER NOT NULL,
    event INTEGER NOT NULL,
    player_in INTEGER NOT NULL,
    player_in_cost INTEGER NOT NULL,
    player_out INTEGER NOT NULL,
    player_out_cost INTEGER NOT NULL,
    time TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE(entry_id, event, player_in, player_out)
);

CREATE INDEX IF NOT EXISTS idx_transfers_entry ON transfers(entry_id, event);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(TransfersSchema)
	return err
}
