package plans

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Plan is one archived dual-scenario run.
type Plan struct {
	UUID                  string          `json:"uuid"`
	EntryID               int             `json:"entry_id"`
	Event                 int             `json:"event"`
	Verdict               string          `json:"verdict"`
	Identical             bool            `json:"identical"`
	ConservativeTransfers int             `json:"conservative_transfers"`
	OptimalTransfers      int             `json:"optimal_transfers"`
	ConservativePoints    float64         `json:"conservative_points"`
	OptimalPoints         float64         `json:"optimal_points"`
	NetGain               float64         `json:"net_gain"`
	HitTransfers          int             `json:"hit_transfers"`
	Suggestions           json.RawMessage `json:"suggestions"`
	CreatedAt             time.Time       `json:"created_at"`
}

// Repository stores plan history
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new plan repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "plans").Logger(),
	}
}

// Save archives one run and returns its generated uuid.
func (r *Repository) Save(plan *Plan) (string, error) {
	planUUID := uuid.New().String()
	suggestions := plan.Suggestions
	if len(suggestions) == 0 {
		suggestions = json.RawMessage("{}")
	}

	_, err := r.db.Exec(`
		INSERT INTO plans
		(uuid, entry_id, event, verdict, identical, conservative_transfers,
		 optimal_transfers, conservative_points, optimal_points, net_gain,
		 hit_transfers, suggestions_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		planUUID,
		plan.EntryID,
		plan.Event,
		plan.Verdict,
		plan.Identical,
		plan.ConservativeTransfers,
		plan.OptimalTransfers,
		plan.ConservativePoints,
		plan.OptimalPoints,
		plan.NetGain,
		plan.HitTransfers,
		string(suggestions),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert plan: %w", err)
	}

	return planUUID, nil
}

// History returns archived runs, newest first. A zero entryID returns
// runs for every entry.
func (r *Repository) History(entryID, limit int) ([]Plan, error) {
	query := `
		SELECT uuid, entry_id, event, verdict, identical, conservative_transfers,
		       optimal_transfers, conservative_points, optimal_points, net_gain,
		       hit_transfers, suggestions_json, created_at
		FROM plans
	`
	var args []interface{}
	if entryID > 0 {
		query += " WHERE entry_id = ?"
		args = append(args, entryID)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var result []Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		result = append(result, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return result, nil
}

// Latest returns the newest archived run for one entry, or nil when
// the entry has none.
func (r *Repository) Latest(entryID int) (*Plan, error) {
	history, err := r.History(entryID, 1)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}
	return &history[0], nil
}

// Count returns the number of archived runs.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM plans").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plans: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes archived runs created before the cutoff.
// Returns the number of rows deleted.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	// created_at is stored as RFC3339 UTC, so string comparison is
	// chronological
	result, err := r.db.Exec(
		`DELETE FROM plans WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old plans: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

func scanPlan(rows *sql.Rows) (Plan, error) {
	var plan Plan
	var suggestions string
	var createdAt string

	err := rows.Scan(
		&plan.UUID,
		&plan.EntryID,
		&plan.Event,
		&plan.Verdict,
		&plan.Identical,
		&plan.ConservativeTransfers,
		&plan.OptimalTransfers,
		&plan.ConservativePoints,
		&plan.OptimalPoints,
		&plan.NetGain,
		&plan.HitTransfers,
		&suggestions,
		&createdAt,
	)
	if err != nil {
		return Plan{}, err
	}

	plan.Suggestions = json.RawMessage(suggestions)
	plan.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Plan{}, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}

	return plan, nil
}
