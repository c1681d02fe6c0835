package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/bus-counter-tui/internal/models"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	preciseLayout   = "2006-01-02 15:04:05.000000"
)

// InsertFetchLog records a repository fetch.
func (db *DB) InsertFetchLog(entry *models.FetchLog) error {
	query := `
		INSERT INTO fetch_log (
			timestamp, range_key, generation, record_count, duration_ms, stale, error
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		timestamp.UTC().Format(timestampLayout),
		entry.RangeKey,
		int64(entry.Generation),
		entry.RecordCount,
		entry.DurationMs,
		boolToInt(entry.Stale),
		nullString(entry.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fetch log: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// GetRecentFetchLogs returns the most recent fetches, newest first.
func (db *DB) GetRecentFetchLogs(limit int) ([]models.FetchLog, error) {
	query := `
		SELECT id, timestamp, range_key, generation, record_count, duration_ms, stale, error
		FROM fetch_log
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []models.FetchLog
	for rows.Next() {
		var entry models.FetchLog
		var ts string
		var generation int64
		var stale int
		var errStr sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&ts,
			&entry.RangeKey,
			&generation,
			&entry.RecordCount,
			&entry.DurationMs,
			&stale,
			&errStr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fetch log: %w", err)
		}

		entry.Timestamp = parseTimestamp(ts)
		entry.Generation = uint64(generation)
		entry.Stale = stale != 0
		entry.Error = errStr.String
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

// FetchStats summarises the fetch log.
type FetchStats struct {
	TotalFetches  int
	FailedFetches int
	StaleFetches  int
	AvgDurationMs float64
}

// GetFetchStats returns aggregate fetch statistics.
func (db *DB) GetFetchStats() (*FetchStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(stale), 0),
			COALESCE(AVG(duration_ms), 0)
		FROM fetch_log
	`

	var stats FetchStats
	err := db.QueryRowContext(context.Background(), query).Scan(
		&stats.TotalFetches,
		&stats.FailedFetches,
		&stats.StaleFetches,
		&stats.AvgDurationMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch stats: %w", err)
	}
	return &stats, nil
}

// InsertExportLog records an export attempt.
func (db *DB) InsertExportLog(entry *models.ExportLog) error {
	query := `
		INSERT INTO export_history (timestamp, path, scope, row_count, error)
		VALUES (?, ?, ?, ?, ?)
	`

	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		timestamp.UTC().Format(timestampLayout),
		nullString(entry.Path),
		entry.Scope,
		entry.RowCount,
		nullString(entry.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert export log: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// GetRecentExports returns the most recent exports, newest first.
func (db *DB) GetRecentExports(limit int) ([]models.ExportLog, error) {
	query := `
		SELECT id, timestamp, path, scope, row_count, error
		FROM export_history
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query export history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var exports []models.ExportLog
	for rows.Next() {
		var entry models.ExportLog
		var ts string
		var path, errStr sql.NullString

		if err := rows.Scan(&entry.ID, &ts, &path, &entry.Scope, &entry.RowCount, &errStr); err != nil {
			return nil, fmt.Errorf("failed to scan export log: %w", err)
		}

		entry.Timestamp = parseTimestamp(ts)
		entry.Path = path.String
		entry.Error = errStr.String
		exports = append(exports, entry)
	}

	return exports, rows.Err()
}

// PruneFetchLog deletes fetch log entries older than the given age.
func (db *DB) PruneFetchLog(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(timestampLayout)
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM fetch_log WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune fetch log: %w", err)
	}
	return result.RowsAffected()
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timestampLayout, preciseLayout, time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
