package models

import "time"

// FetchLog records one repository fetch.
type FetchLog struct {
	Timestamp   time.Time
	RangeKey    string
	Error       string
	Generation  uint64
	RecordCount int
	DurationMs  int
	ID          int64
	Stale       bool
}

// ExportLog records one spreadsheet export attempt.
type ExportLog struct {
	Timestamp time.Time
	Path      string
	Scope     string
	Error     string
	RowCount  int
	ID        int64
}

// Succeeded reports whether the export produced a file.
func (e ExportLog) Succeeded() bool {
	return e.Error == ""
}
