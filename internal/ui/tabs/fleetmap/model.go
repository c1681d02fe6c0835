// Package fleetmap provides the map tab showing one marker per positioned
// vehicle.
package fleetmap

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bus-counter-tui/internal/app"
	"github.com/j-veylop/bus-counter-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the map tab.
type keyMap struct {
	ZoomIn     key.Binding
	ZoomOut    key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Fullscreen key.Binding
	ClosePopup key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "zoom out"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "pan up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "pan down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "pan left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "pan right"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
		ClosePopup: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "close popup"),
		),
	}
}

// mapChrome is the title, legend and caption lines around the grid.
const mapChrome = 6

// Pan steps in cells.
const (
	panCols = 4
	panRows = 2
)

// Model represents the map tab state.
type Model struct {
	state      *app.State
	minimap    *components.Minimap
	keys       keyMap
	width      int
	height     int
	fullscreen bool
}

// New creates a map tab drawing on minimap.
func New(state *app.State, minimap *components.Minimap) *Model {
	return &Model{
		state:   state,
		minimap: minimap,
		keys:    defaultKeyMap(),
	}
}

// Init initializes the map tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Fullscreen reports whether the map takes the whole terminal.
func (m *Model) Fullscreen() bool {
	return m.fullscreen
}

// Update handles messages for the map tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m, m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ZoomIn):
		m.minimap.ZoomIn()
		return app.Emit(app.MapZoomedMsg{})
	case key.Matches(msg, m.keys.ZoomOut):
		m.minimap.ZoomOut()
		return app.Emit(app.MapZoomedMsg{})
	case key.Matches(msg, m.keys.Up):
		m.minimap.Pan(0, -panRows)
	case key.Matches(msg, m.keys.Down):
		m.minimap.Pan(0, panRows)
	case key.Matches(msg, m.keys.Left):
		m.minimap.Pan(-panCols, 0)
	case key.Matches(msg, m.keys.Right):
		m.minimap.Pan(panCols, 0)
	case key.Matches(msg, m.keys.Fullscreen):
		m.fullscreen = !m.fullscreen
		return app.Emit(app.MapResizeMsg{})
	case key.Matches(msg, m.keys.ClosePopup):
		m.minimap.ClosePopup()
	}
	return nil
}

// SetSize sets the available size for the map tab. The grid picks the new
// size up when the map is next resized.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.minimap.SetSize(max(width-4, 1), max(height-mapChrome, 1))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ZoomIn,
		m.keys.ZoomOut,
		m.keys.Fullscreen,
		m.keys.ClosePopup,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ZoomIn, m.keys.ZoomOut},
		{m.keys.Up, m.keys.Down, m.keys.Left, m.keys.Right},
		{m.keys.Fullscreen, m.keys.ClosePopup},
	}
}
