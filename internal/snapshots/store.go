// Package snapshots provides persistent caching for upstream API payloads.
// Payloads are stored as msgpack blobs with expiration timestamps for
// cache-first behavior.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Store provides cache operations for upstream snapshots.
type Store struct {
	db *sql.DB
}

// NewStore creates a new snapshot store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func validateKind(kind string) error {
	if !validKinds[kind] {
		return fmt.Errorf("invalid snapshot kind: %s", kind)
	}
	return nil
}

// Put saves a payload with expiration = now + ttl.
func (s *Store) Put(kind, key string, value interface{}, ttl time.Duration) error {
	if err := validateKind(kind); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(ttl).Unix()

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO snapshots (kind, key, data, expires_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		kind, key, blob, expiresAt, now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s snapshot: %w", kind, err)
	}

	return nil
}

// GetIfFresh decodes a payload into out only if expires_at > now.
// Returns false if the key doesn't exist or the payload is expired.
// Use Get() to retrieve stale data as a fallback when upstream calls fail.
func (s *Store) GetIfFresh(kind, key string, out interface{}) (bool, error) {
	if err := validateKind(kind); err != nil {
		return false, err
	}

	var blob []byte
	err := s.db.QueryRow(
		`SELECT data FROM snapshots WHERE kind = ? AND key = ? AND expires_at > ?`,
		kind, key, time.Now().Unix(),
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s snapshot: %w", kind, err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to decode %s snapshot: %w", kind, err)
	}

	return true, nil
}

// Get decodes a payload into out regardless of expiration status.
// Stale data is better than no data when the upstream API is down.
// Returns false if the key doesn't exist.
func (s *Store) Get(kind, key string, out interface{}) (bool, error) {
	if err := validateKind(kind); err != nil {
		return false, err
	}

	var blob []byte
	err := s.db.QueryRow(
		`SELECT data FROM snapshots WHERE kind = ? AND key = ?`,
		kind, key,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s snapshot: %w", kind, err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to decode %s snapshot: %w", kind, err)
	}

	return true, nil
}

// Delete removes a specific snapshot.
func (s *Store) Delete(kind, key string) error {
	if err := validateKind(kind); err != nil {
		return err
	}

	_, err := s.db.Exec(`DELETE FROM snapshots WHERE kind = ? AND key = ?`, kind, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s snapshot: %w", kind, err)
	}

	return nil
}

// Prune removes all expired snapshots.
// Returns the number of rows deleted.
func (s *Store) Prune() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM snapshots WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
