// Package transfers persists the per-manager transfer ledger and derives
// the free-transfer allowance from it.
package transfers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/domain"
)

// Repository handles transfer ledger database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new transfer ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "transfers").Logger(),
	}
}

// Sync upserts the upstream ledger for one manager. Rows already present
// are skipped, so repeated syncs are cheap and idempotent. Returns the
// number of new rows.
func (r *Repository) Sync(entryID int, records []domain.TransferRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO transfers
		(entry_id, event, player_in, player_in_cost, player_out, player_out_cost, time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Format(time.RFC3339)
	added := 0
	for _, t := range records {
		result, err := stmt.Exec(
			entryID,
			t.Event,
			t.PlayerIn,
			int(t.PlayerInCost),
			t.PlayerOut,
			int(t.PlayerOutCost),
			t.Time.Format(time.RFC3339),
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transfer: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transfer sync: %w", err)
	}

	if added > 0 {
		r.log.Info().
			Int("entry_id", entryID).
			Int("added", added).
			Msg("Transfer ledger synced")
	}

	return added, nil
}

// GetLedger returns a manager's full ledger in chronological order, the
// ordering purchase-price replay depends on.
func (r *Repository) GetLedger(entryID int) ([]domain.TransferRecord, error) {
	query := `
		SELECT event, player_in, player_in_cost, player_out, player_out_cost, time
		FROM transfers
		WHERE entry_id = ?
		ORDER BY event ASC, time ASC, id ASC
	`

	rows, err := r.db.Query(query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer ledger: %w", err)
	}
	defer rows.Close()

	var records []domain.TransferRecord
	for rows.Next() {
		record, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}

	return records, nil
}

// CountForEvent returns how many transfers a manager made in one gameweek.
func (r *Repository) CountForEvent(entryID, event int) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM transfers WHERE entry_id = ? AND event = ?`,
		entryID, event,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transfers: %w", err)
	}
	return count, nil
}

func scanTransfer(rows *sql.Rows) (domain.TransferRecord, error) {
	var t domain.TransferRecord
	var inCost, outCost int
	var timeStr string

	if err := rows.Scan(&t.Event, &t.PlayerIn, &inCost, &t.PlayerOut, &outCost, &timeStr); err != nil {
		return t, err
	}

	t.PlayerInCost = domain.Tenths(inCost)
	t.PlayerOutCost = domain.Tenths(outCost)

	parsed, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		return t, fmt.Errorf("failed to parse transfer time %q: %w", timeStr, err)
	}
	t.Time = parsed

	return t, nil
}
