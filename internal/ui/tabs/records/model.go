// Package records provides the paginated table of filtered counter
// records and the export actions.
package records

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bus-counter-tui/internal/app"
	"github.com/j-veylop/bus-counter-tui/internal/export"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
)

// keyMap defines the key bindings specific to the records tab.
type keyMap struct {
	NextPage    key.Binding
	PrevPage    key.Binding
	FirstPage   key.Binding
	LastPage    key.Binding
	Details     key.Binding
	ExportPage  key.Binding
	ExportAll   key.Binding
	ResetExport key.Binding
}

// defaultKeyMap returns the default key bindings for the records tab.
func defaultKeyMap() keyMap {
	return keyMap{
		NextPage: key.NewBinding(
			key.WithKeys("n", "]"),
			key.WithHelp("n/]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "["),
			key.WithHelp("p/[", "prev page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "first page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "last page"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "record details"),
		),
		ExportPage: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export page"),
		),
		ExportAll: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "export all"),
		),
		ResetExport: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reset export"),
		),
	}
}

// columns mirrors the exported workbook's header.
var columns = []table.Column{
	{Title: "No.", Width: 5},
	{Title: "Counter", Width: 9},
	{Title: "Vehicle", Width: 10},
	{Title: "Company", Width: 9},
	{Title: "Route", Width: 8},
	{Title: "In", Width: 5},
	{Title: "Out", Width: 5},
	{Title: "On board", Width: 8},
	{Title: "Camera", Width: 10},
	{Title: "Status", Width: 12},
}

// tableChrome is the header, pager and footer lines around the table.
const tableChrome = 9

// Model represents the records tab state.
type Model struct {
	state       *app.State
	keys        keyMap
	table       table.Model
	width       int
	height      int
	showDetails bool
}

// New creates a new records model.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Cell = styles.TableCellStyle
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	m := &Model{
		state: state,
		keys:  defaultKeyMap(),
		table: t,
	}
	m.syncRows()
	return m
}

// Init initializes the records tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the records tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.SnapshotUpdatedMsg:
		m.syncRows()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.NextPage):
		return app.Emit(app.PageMsg{Action: app.PageNext})
	case key.Matches(msg, m.keys.PrevPage):
		return app.Emit(app.PageMsg{Action: app.PagePrev})
	case key.Matches(msg, m.keys.FirstPage):
		return app.Emit(app.PageMsg{Action: app.PageFirst})
	case key.Matches(msg, m.keys.LastPage):
		return app.Emit(app.PageMsg{Action: app.PageLast})
	case key.Matches(msg, m.keys.Details):
		m.showDetails = !m.showDetails
	case key.Matches(msg, m.keys.ExportPage):
		return app.Emit(app.ExportMsg{Scope: export.ScopeVisible})
	case key.Matches(msg, m.keys.ExportAll):
		return app.Emit(app.ExportMsg{Scope: export.ScopeFull})
	case key.Matches(msg, m.keys.ResetExport):
		return app.Emit(app.ResetExportMsg{})
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	return nil
}

// syncRows loads the visible page into the table.
func (m *Model) syncRows() {
	page := m.state.GetSnapshot().Page
	rows := make([]table.Row, len(page.VisibleRecords))
	for i, r := range page.VisibleRecords {
		rows[i] = recordRow(page.Start+i, r)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func recordRow(n int, r models.CounterRecord) table.Row {
	return table.Row{
		strconv.Itoa(n),
		strconv.FormatInt(r.CounterID, 10),
		r.VehicleID,
		r.CompanyID,
		orDash(r.Route),
		strconv.Itoa(r.InCount),
		strconv.Itoa(r.OutCount),
		strconv.Itoa(r.Passengers()),
		orDash(r.CameraID),
		string(r.Status()),
	}
}

// selected returns the record under the cursor.
func (m *Model) selected() (models.CounterRecord, bool) {
	visible := m.state.GetSnapshot().Page.VisibleRecords
	i := m.table.Cursor()
	if i < 0 || i >= len(visible) {
		return models.CounterRecord{}, false
	}
	return visible[i], true
}

// SetSize sets the available size for the records tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetWidth(max(width-4, 20))
	m.table.SetHeight(max(height-tableChrome, 3))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.NextPage,
		m.keys.PrevPage,
		m.keys.Details,
		m.keys.ExportPage,
		m.keys.ExportAll,
		m.keys.ResetExport,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.NextPage, m.keys.PrevPage, m.keys.FirstPage, m.keys.LastPage},
		{m.keys.Details},
		{m.keys.ExportPage, m.keys.ExportAll, m.keys.ResetExport},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func showing(p models.PageWindow) string {
	return fmt.Sprintf("Showing %d to %d of %d entries", p.Start, p.End, p.TotalRecords)
}
