// Package db manages the local sqlite cache: the last fetched counter
// snapshots, the fetch log and the export history.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database connection
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	// Configure database
	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	// Create schema
	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas for optimal performance.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createSnapshotsTable(); err != nil {
		return err
	}
	if err := db.createFetchLogTable(); err != nil {
		return err
	}
	return db.createExportHistoryTable()
}

func (db *DB) createSnapshotsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS counter_snapshots (
		range_key TEXT NOT NULL,
		position INTEGER NOT NULL,
		counter_id INTEGER NOT NULL,
		company_id TEXT,
		vehicle_id TEXT,
		payload TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (range_key, position)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_fetched ON counter_snapshots(range_key, fetched_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createFetchLogTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS fetch_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		range_key TEXT NOT NULL,
		generation INTEGER DEFAULT 0,
		record_count INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		stale INTEGER DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_fetch_log_timestamp ON fetch_log(timestamp);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createExportHistoryTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS export_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		path TEXT,
		scope TEXT NOT NULL,
		row_count INTEGER DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_export_history_timestamp ON export_history(timestamp);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	// Checkpoint WAL before closing
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
