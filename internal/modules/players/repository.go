package players

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/domain"
)

// sortColumns whitelists the ORDER BY targets the listing accepts.
var sortColumns = map[string]string{
	"price":           "price DESC",
	"form":            "form DESC",
	"total_points":    "total_points DESC",
	"points_per_game": "points_per_game DESC",
	"selected":        "CAST(selected_by AS REAL) DESC",
}

// Repository handles player store database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new player repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "players").Logger(),
	}
}

// UpsertAll replaces the stored rows for every given player in one
// transaction.
func (r *Repository) UpsertAll(playerRows []Player) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO players (
			id, name, full_name, position, club_id, club, price,
			form, points_per_game, total_points, event_points,
			minutes, status, news, chance, selected_by, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range playerRows {
		_, err := stmt.Exec(
			p.ID, p.Name, p.FullName, int(p.Position), p.ClubID, p.Club, int(p.Price),
			p.Form, p.PointsPerGame, p.TotalPoints, p.EventPoints,
			p.Minutes, p.Status, p.News, p.Chance, p.SelectedBy, now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert player %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}

	return len(playerRows), nil
}

// List returns players matching the filter. An unknown sort key falls
// back to total points.
func (r *Repository) List(filter Filter) ([]Player, error) {
	query := `
		SELECT id, name, full_name, position, club_id, club, price,
		       form, points_per_game, total_points, event_points,
		       minutes, status, news, chance, selected_by
		FROM players
	`
	var conditions []string
	var args []interface{}

	if filter.Position != nil {
		conditions = append(conditions, "position = ?")
		args = append(args, int(*filter.Position))
	}
	if filter.ClubID != nil {
		conditions = append(conditions, "club_id = ?")
		args = append(args, *filter.ClubID)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = sortColumns["total_points"]
	}
	query += " ORDER BY " + orderBy + ", id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var result []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return result, nil
}

// Get returns one player by id, or nil when the store has no such row.
func (r *Repository) Get(id int) (*Player, error) {
	rows, err := r.db.Query(`
		SELECT id, name, full_name, position, club_id, club, price,
		       form, points_per_game, total_points, event_points,
		       minutes, status, news, chance, selected_by
		FROM players WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query player: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	p, err := scanPlayer(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}

	return &p, nil
}

// Count returns the number of stored players.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM players").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return count, nil
}

// RecordEventPoints appends one gameweek's score for each player.
// Re-recording the same gameweek overwrites, so a refresh mid-gameweek
// keeps the latest live score.
func (r *Repository) RecordEventPoints(event int, points map[int]int) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_points (player_id, event, points, recorded_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare points insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for playerID, pts := range points {
		if _, err := stmt.Exec(playerID, event, pts, now); err != nil {
			return 0, fmt.Errorf("failed to record points for player %d: %w", playerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit points: %w", err)
	}

	return len(points), nil
}

// PointsHistory returns a player's recorded gameweek scores, oldest
// first.
func (r *Repository) PointsHistory(playerID int) ([]GameweekPoints, error) {
	rows, err := r.db.Query(`
		SELECT event, points FROM player_points
		WHERE player_id = ?
		ORDER BY event ASC
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points history: %w", err)
	}
	defer rows.Close()

	var history []GameweekPoints
	for rows.Next() {
		var gp GameweekPoints
		if err := rows.Scan(&gp.Event, &gp.Points); err != nil {
			return nil, fmt.Errorf("failed to scan points row: %w", err)
		}
		history = append(history, gp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating points history: %w", err)
	}

	return history, nil
}

func scanPlayer(rows *sql.Rows) (Player, error) {
	var p Player
	var position, price int
	var chance sql.NullInt64

	err := rows.Scan(
		&p.ID, &p.Name, &p.FullName, &position, &p.ClubID, &p.Club, &price,
		&p.Form, &p.PointsPerGame, &p.TotalPoints, &p.EventPoints,
		&p.Minutes, &p.Status, &p.News, &chance, &p.SelectedBy,
	)
	if err != nil {
		return Player{}, err
	}

	p.Position = domain.Position(position)
	p.Price = domain.Tenths(price)
	if chance.Valid {
		c := int(chance.Int64)
		p.Chance = &c
	}

	return p, nil
}
