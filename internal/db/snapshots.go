package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/bus-counter-tui/internal/logger"
	"github.com/j-veylop/bus-counter-tui/internal/models"
)

// SaveSnapshot replaces the cached records for rangeKey in one transaction.
func (db *DB) SaveSnapshot(rangeKey string, records []models.CounterRecord) error {
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Error("failed to roll back snapshot transaction", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM counter_snapshots WHERE range_key = ?", rangeKey); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO counter_snapshots (range_key, position, counter_id, company_id, vehicle_id, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	fetchedAt := time.Now().UTC().Format(preciseLayout)
	for i, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, rangeKey, i, r.ID, r.CompanyID, r.VehicleID, string(payload), fetchedAt); err != nil {
			return fmt.Errorf("failed to insert snapshot record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached records for rangeKey in their original
// order. found is false when nothing is cached for the key.
func (db *DB) LoadSnapshot(rangeKey string) (records []models.CounterRecord, fetchedAt time.Time, found bool, err error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT payload, fetched_at
		FROM counter_snapshots
		WHERE range_key = ?
		ORDER BY position
	`, rangeKey)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var payload, ts string
		if err := rows.Scan(&payload, &ts); err != nil {
			return nil, time.Time{}, false, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var r models.CounterRecord
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, time.Time{}, false, fmt.Errorf("failed to decode snapshot record: %w", err)
		}
		records = append(records, r)
		fetchedAt = parseTimestamp(ts)
		found = true
	}

	return records, fetchedAt, found, rows.Err()
}

// SnapshotKeys returns every cached range key, most recently fetched first.
func (db *DB) SnapshotKeys() ([]string, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT range_key
		FROM counter_snapshots
		GROUP BY range_key
		ORDER BY MAX(fetched_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// PruneSnapshots keeps only the keep most recently fetched range keys.
func (db *DB) PruneSnapshots(keep int) error {
	keys, err := db.SnapshotKeys()
	if err != nil {
		return err
	}
	if len(keys) <= keep {
		return nil
	}
	for _, key := range keys[keep:] {
		if _, err := db.ExecContext(context.Background(),
			"DELETE FROM counter_snapshots WHERE range_key = ?", key); err != nil {
			return fmt.Errorf("failed to prune snapshot %s: %w", key, err)
		}
	}
	return nil
}
