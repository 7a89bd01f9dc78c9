package players

import "database/sql"

// InitSchema ensures the player store tables exist in planner.db
const PlayersSchema = `
CREATE TABLE IF NOT EXISTS players (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    full_name TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    club_id INTEGER NOT NULL,
    club TEXT NOT NULL DEFAULT '',
    price INTEGER NOT NULL,
    form REAL NOT NULL DEFAULT 0,
    points_per_game REAL NOT NULL DEFAULT 0,
    total_points INTEGER NOT NULL DEFAULT 0,
    event_points INTEGER NOT NULL DEFAULT 0,
    minutes INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'a',
    news TEXT NOT NULL DEFAULT '',
    chance INTEGER,
    selected_by TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_players_position ON players(position);
CREATE INDEX IF NOT EXISTS idx_players_club ON players(club_id);

CREATE TABLE IF NOT EXISTS player_points (
    player_id INTEGER NOT NULL,
    event INTEGER NOT NULL,
    points INTEGER NOT NULL,
    recorded_at TEXT NOT NULL,
    PRIMARY KEY (player_id, event)
);

CREATE INDEX IF NOT EXISTS idx_player_points_event ON player_points(event);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(PlayersSchema)
	return err
}
