// Package export writes counter records to a spreadsheet.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/j-veylop/bus-counter-tui/internal/models"
)

// SheetName is the single worksheet of every export.
const SheetName = "Bus Counter"

// Columns is the fixed header row.
var Columns = []string{
	"No.", "Counter ID", "Vehicle ID", "Company ID",
	"In", "Out", "Passengers", "Camera ID", "Status",
}

// ErrNotIdle is returned when an export is requested outside the Idle state.
var ErrNotIdle = errors.New("export already started")

// Scope selects which records are exported.
type Scope int

// Export scopes.
const (
	ScopeVisible Scope = iota
	ScopeFull
)

func (s Scope) String() string {
	if s == ScopeFull {
		return "full"
	}
	return "visible"
}

// Status is the composer's lifecycle state.
type Status int

// Composer states.
const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "idle"
}

// State is a snapshot of the composer.
type State struct {
	Path    string
	Message string
	Status  Status
	Count   int
}

// FileName returns the artifact name for the given day.
func FileName(now time.Time) string {
	return "bus_counter_export_" + now.Format(time.DateOnly) + ".xlsx"
}

// Rows builds the data rows for scope, numbered from 1.
func Rows(visible, full []models.CounterRecord, scope Scope) [][]any {
	records := visible
	if scope == ScopeFull {
		records = full
	}

	rows := make([][]any, 0, len(records))
	for i, r := range records {
		rows = append(rows, []any{
			i + 1,
			r.CounterID,
			r.VehicleID,
			r.CompanyID,
			r.InCount,
			r.OutCount,
			r.Passengers(),
			r.CameraID,
			string(r.Status()),
		})
	}
	return rows
}

// WriteWorkbook writes the header and rows to a new workbook at path.
func WriteWorkbook(path string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Composer runs exports through Idle → Pending → Success | Error.
// A failed export only changes the composer's own state.
type Composer struct {
	now   func() time.Time
	write func(path string, rows [][]any) error
	dir   string
	state State
	mu    sync.Mutex
}

// NewComposer returns an idle composer writing into dir.
func NewComposer(dir string) *Composer {
	return &Composer{
		dir:   dir,
		now:   time.Now,
		write: WriteWorkbook,
	}
}

// State returns the current state.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset returns a finished composer to Idle. A pending export is left alone.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status != StatusPending {
		c.state = State{}
	}
}

// Export writes the chosen scope to disk. It only starts from Idle.
// The returned State is the terminal state of this export.
func (c *Composer) Export(visible, full []models.CounterRecord, scope Scope) (State, error) {
	c.mu.Lock()
	if c.state.Status != StatusIdle {
		st := c.state
		c.mu.Unlock()
		return st, ErrNotIdle
	}
	c.state = State{Status: StatusPending}
	c.mu.Unlock()

	rows := Rows(visible, full, scope)
	path := filepath.Join(c.dir, FileName(c.now()))
	err := c.write(path, rows)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = State{Status: StatusError, Message: err.Error()}
		return c.state, err
	}
	c.state = State{Status: StatusSuccess, Count: len(rows), Path: path}
	return c.state, nil
}
