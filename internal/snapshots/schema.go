package snapshots

import "database/sql"

// InitSchema ensures the snapshots table exists in cache.db
const SnapshotsSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
    kind TEXT NOT NULL,
    key TEXT NOT NULL,
    data BLOB NOT NULL,
    expires_at INTEGER NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (kind, key)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_expires ON snapshots(expires_at);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(SnapshotsSchema)
	return err
}
