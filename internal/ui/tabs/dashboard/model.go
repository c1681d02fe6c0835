// Package dashboard provides the main dashboard tab: filters, headline
// figures and per-company charts.
package dashboard

import (
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bus-counter-tui/internal/app"
	"github.com/j-veylop/bus-counter-tui/internal/daterange"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/ui/components"
)

// filterKeys is the order of the filter bar.
var filterKeys = []models.FilterKey{
	models.FilterCompany,
	models.FilterDateRange,
	models.FilterCustomStart,
	models.FilterCustomEnd,
	models.FilterTimeOfDay,
	models.FilterRoute,
	models.FilterVehicle,
	models.FilterChartType,
	models.FilterMapView,
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	NextFilter  key.Binding
	PrevFilter  key.Binding
	NextValue   key.Binding
	PrevValue   key.Binding
	Edit        key.Binding
	Cancel      key.Binding
	ToggleChart key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		NextFilter: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next filter"),
		),
		PrevFilter: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev filter"),
		),
		NextValue: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next value"),
		),
		PrevValue: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev value"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit date"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel edit"),
		),
		ToggleChart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "bar/pie chart"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state    *app.State
	activity components.ActivityIndicator
	keys     keyMap
	viewport viewport.Model
	input    textinput.Model
	progress components.ShareBar
	width    int
	height   int
	selected int
	editing  bool
}

// New creates a new dashboard model.
func New(state *app.State) *Model {
	input := textinput.New()
	input.Placeholder = "YYYY-MM-DD"
	input.CharLimit = len("2006-01-02")
	input.Width = 12

	progress := components.NewShareBar(30)
	progress.SetLabel("In progress ")

	return &Model{
		state:    state,
		activity: components.NewActivityIndicator(),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		input:    input,
		progress: progress,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.syncActivity()
	return tea.Batch(m.activity.Init(), m.syncProgress())
}

// CapturingInput reports whether a date is being typed.
func (m *Model) CapturingInput() bool {
	return m.editing
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.SnapshotUpdatedMsg:
		m.syncActivity()
		cmds = append(cmds, m.syncProgress())

	case components.AnimationTickMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		m.syncActivity()
		var cmd tea.Cmd
		m.activity, cmd = m.activity.Update(msg)
		cmds = append(cmds, cmd)

	default:
		if m.editing {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// syncActivity mirrors the shared loading state into the indicator.
func (m *Model) syncActivity() {
	var running []components.Activity
	for _, r := range m.state.GetLoadingResources() {
		switch r {
		case app.ResourceInitial, app.ResourceFetch:
			running = append(running, components.ActivityFetch)
		case app.ResourceExport:
			running = append(running, components.ActivityExport)
		}
	}
	label := ""
	if r, err := daterange.FromFilter(m.state.GetSnapshot().Filter, time.Now()); err == nil {
		label = r.String()
	}
	m.activity.Track(label, running...)
}

// syncProgress points the share bar at the in-progress share of the
// filtered trips.
func (m *Model) syncProgress() tea.Cmd {
	res := m.state.GetSnapshot().Result
	if len(res.Records) == 0 {
		return m.progress.SetPercent(0)
	}
	return m.progress.SetPercent(float64(res.InProgressCount) / float64(len(res.Records)) * 100)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextFilter):
		m.selected = (m.selected + 1) % len(filterKeys)
	case key.Matches(msg, m.keys.PrevFilter):
		m.selected = (m.selected - 1 + len(filterKeys)) % len(filterKeys)
	case key.Matches(msg, m.keys.NextValue):
		return m.cycle(1)
	case key.Matches(msg, m.keys.PrevValue):
		return m.cycle(-1)
	case key.Matches(msg, m.keys.Edit):
		return m.startEdit()
	case key.Matches(msg, m.keys.ToggleChart):
		next := models.ChartPie
		if m.state.GetSnapshot().Filter.ChartType == models.ChartPie {
			next = models.ChartBar
		}
		return app.Emit(app.SetFilterMsg{Key: models.FilterChartType, Value: string(next)})
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Edit):
		m.stopEdit()
		return app.Emit(app.SetFilterMsg{Key: m.selectedKey(), Value: m.input.Value()})
	case key.Matches(msg, m.keys.Cancel):
		m.stopEdit()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) startEdit() tea.Cmd {
	k := m.selectedKey()
	if k != models.FilterCustomStart && k != models.FilterCustomEnd {
		return nil
	}
	m.editing = true
	m.input.SetValue(m.state.GetSnapshot().Filter.Get(k))
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopEdit() {
	m.editing = false
	m.input.Blur()
}

func (m *Model) selectedKey() models.FilterKey {
	return filterKeys[m.selected]
}

// cycle moves the selected filter to the next or previous option.
func (m *Model) cycle(delta int) tea.Cmd {
	k := m.selectedKey()
	snap := m.state.GetSnapshot()
	opts := options(k, snap.Companies, snap.Routes, snap.Vehicles)
	if len(opts) == 0 {
		return nil
	}

	idx := slices.Index(opts, snap.Filter.Get(k))
	next := 0
	if idx >= 0 {
		next = (idx + delta + len(opts)) % len(opts)
	}
	return app.Emit(app.SetFilterMsg{Key: k, Value: opts[next]})
}

// options lists the values a filter can cycle through. Free-text keys
// have none.
func options(k models.FilterKey, companies, routes, vehicles []string) []string {
	switch k {
	case models.FilterCompany:
		return append([]string{models.AllValue}, companies...)
	case models.FilterRoute:
		return append([]string{models.AllValue}, routes...)
	case models.FilterVehicle:
		return append([]string{models.AllValue}, vehicles...)
	case models.FilterDateRange:
		out := make([]string, len(models.DateRangeModes))
		for i, mode := range models.DateRangeModes {
			out[i] = string(mode)
		}
		return out
	case models.FilterTimeOfDay:
		out := make([]string, len(models.TimesOfDay))
		for i, tod := range models.TimesOfDay {
			out[i] = string(tod)
		}
		return out
	case models.FilterChartType:
		return []string{string(models.ChartBar), string(models.ChartPie)}
	case models.FilterMapView:
		return []string{string(models.MapViewAll), string(models.MapViewIn), string(models.MapViewOut)}
	}
	return nil
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.progress.SetWidth(max(width-30, 10))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.NextFilter,
		m.keys.PrevFilter,
		m.keys.NextValue,
		m.keys.PrevValue,
		m.keys.Edit,
		m.keys.ToggleChart,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.NextFilter, m.keys.PrevFilter},
		{m.keys.NextValue, m.keys.PrevValue},
		{m.keys.Edit, m.keys.Cancel, m.keys.ToggleChart},
	}
}
