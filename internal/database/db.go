// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Profile defines configuration profiles for the planner databases.
type Profile string

const (
	// ProfileStandard - balanced configuration for durable planner data
	ProfileStandard Profile = "standard"
	// ProfileCache - maximum speed for ephemeral snapshot data
	ProfileCache Profile = "cache"
)

// DB wraps a database connection with production-grade configuration.
type DB struct {
	conn    *sql.DB
	path    string
	profile Profile
	name    string
}

// Config holds database configuration.
type Config struct {
	Path    string
	Profile Profile
	Name    string // Friendly name for logging (e.g. "planner", "cache")
}

// New creates a new database connection with profile-specific PRAGMAs.
func New(cfg Config) (*DB, error) {
	// file: URIs (in-memory databases in tests) skip filepath handling
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	conn, err := sql.Open("sqlite", buildDSN(cfg.Path, cfg.Profile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configurePool(conn, cfg.Profile)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		path:    cfg.Path,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// buildDSN creates the SQLite connection string with profile-specific PRAGMAs.
func buildDSN(path string, profile Profile) string {
	// WAL mode for all databases
	dsn := path + "?_pragma=journal_mode(WAL)"

	switch profile {
	case ProfileCache:
		// Ephemeral snapshot data, rebuilt from upstream on loss
		dsn += "&_pragma=synchronous(OFF)"
		dsn += "&_pragma=auto_vacuum(FULL)"
		dsn += "&_pragma=temp_store(MEMORY)"
	default:
		dsn += "&_pragma=synchronous(NORMAL)"
		dsn += "&_pragma=auto_vacuum(INCREMENTAL)"
		dsn += "&_pragma=temp_store(MEMORY)"
	}

	dsn += "&_pragma=foreign_keys(1)"
	dsn += "&_pragma=wal_autocheckpoint(1000)"
	dsn += "&_pragma=cache_size(-64000)" // 64MB cache (negative = KB)

	return dsn
}

// configurePool sets up the connection pool for long-term operation.
func configurePool(conn *sql.DB, profile Profile) {
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	// Cache database is touched less often
	if profile == ProfileCache {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(2)
	}
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection.
// Used by repositories to execute queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging.
func (db *DB) Name() string {
	return db.name
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Begin starts a new transaction.
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// HealthCheck runs a quick integrity check against the database.
func (db *DB) HealthCheck(ctx context.Context) error {
	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA integrity_check(1)").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed for %s: %w", db.name, err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check for %s returned %q", db.name, result)
	}
	return nil
}

// WALCheckpoint forces a passive WAL checkpoint so the log does not grow
// unbounded. Returns the WAL size in frames and how many were checkpointed.
func (db *DB) WALCheckpoint(ctx context.Context) (int, int, error) {
	var busy, logPages, checkpointed int
	err := db.conn.QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &logPages, &checkpointed)
	if err != nil {
		return 0, 0, fmt.Errorf("wal checkpoint failed for %s: %w", db.name, err)
	}
	return logPages, checkpointed, nil
}
