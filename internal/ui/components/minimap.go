package components

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bus-counter-tui/internal/mapview"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
)

// Terminal cells are treated as 8x16 pixel tiles of a 256px web map.
const (
	cellWidthPx  = 8
	cellHeightPx = 16
	tileSizePx   = 256

	MinZoom = 1.0
	MaxZoom = 18.0
)

// Minimap is a character-grid map surface. It becomes ready the first time
// it is given a non-zero size.
type Minimap struct {
	markers  map[mapview.Handle]mapview.Marker
	popup    *mapview.Handle
	onLoad   []func()
	center   mapview.LatLng
	zoom     float64
	width    int
	height   int
	pendingW int
	pendingH int
	mu       sync.Mutex
	loaded   bool
}

// NewMinimap creates an unloaded map centred on center.
func NewMinimap(center mapview.LatLng, zoom float64) *Minimap {
	return &Minimap{
		markers: make(map[mapview.Handle]mapview.Marker),
		center:  center,
		zoom:    clampZoom(zoom),
	}
}

// SetSize records the drawable area. The first positive size loads the
// map; later sizes are applied by Resize.
func (m *Minimap) SetSize(width, height int) {
	m.mu.Lock()
	if m.loaded || width <= 0 || height <= 0 {
		m.pendingW, m.pendingH = width, height
		m.mu.Unlock()
		return
	}
	m.width, m.height = width, height
	m.pendingW, m.pendingH = width, height
	m.loaded = true
	callbacks := m.onLoad
	m.onLoad = nil
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Loaded reports whether the map has been sized.
func (m *Minimap) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// OnLoad runs fn when the map loads, or immediately if it already has.
func (m *Minimap) OnLoad(fn func()) {
	m.mu.Lock()
	if !m.loaded {
		m.onLoad = append(m.onLoad, fn)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	fn()
}

// Zoom returns the current zoom level.
func (m *Minimap) Zoom() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zoom
}

// ZoomIn raises the zoom by one level.
func (m *Minimap) ZoomIn() {
	m.mu.Lock()
	m.zoom = clampZoom(m.zoom + 1)
	m.mu.Unlock()
}

// ZoomOut lowers the zoom by one level.
func (m *Minimap) ZoomOut() {
	m.mu.Lock()
	m.zoom = clampZoom(m.zoom - 1)
	m.mu.Unlock()
}

// Pan moves the centre by whole cells.
func (m *Minimap) Pan(cols, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.center.Lng += float64(cols) * m.degPerCol()
	m.center.Lat -= float64(rows) * m.degPerRow()
}

// CreateMarker adds a marker.
func (m *Minimap) CreateMarker(mk mapview.Marker) {
	m.mu.Lock()
	m.markers[mk.Handle] = mk
	m.mu.Unlock()
}

// SetRepresentation switches how one marker is drawn.
func (m *Minimap) SetRepresentation(h mapview.Handle, rep mapview.Representation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mk, ok := m.markers[h]; ok {
		mk.Representation = rep
		m.markers[h] = mk
	}
}

// RemoveMarker deletes a marker and closes its popup.
func (m *Minimap) RemoveMarker(h mapview.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.markers, h)
	if m.popup != nil && *m.popup == h {
		m.popup = nil
	}
}

// FlyTo centres the map. The terminal has no animation so the move is
// immediate.
func (m *Minimap) FlyTo(center mapview.LatLng, zoom float64, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.center = center
	m.zoom = clampZoom(zoom)
}

// FitBounds picks the largest zoom up to maxZoom at which b fits inside the
// map less padding pixels on each side.
func (m *Minimap) FitBounds(b mapview.Bounds, padding int, maxZoom float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.center = b.Center()
	cols := max(m.width-2*(padding/cellWidthPx), 1)
	rows := max(m.height-2*(padding/cellHeightPx), 1)
	spanLng := b.NorthEast.Lng - b.SouthWest.Lng
	spanLat := b.NorthEast.Lat - b.SouthWest.Lat

	zoom := clampZoom(math.Floor(maxZoom))
	for zoom > MinZoom {
		m.zoom = zoom
		if spanLng <= float64(cols)*m.degPerCol() && spanLat <= float64(rows)*m.degPerRow() {
			return
		}
		zoom--
	}
	m.zoom = MinZoom
}

// OpenPopup shows the details box for h.
func (m *Minimap) OpenPopup(h mapview.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.markers[h]; ok {
		m.popup = &h
	}
}

// ClosePopup hides any open popup.
func (m *Minimap) ClosePopup() {
	m.mu.Lock()
	m.popup = nil
	m.mu.Unlock()
}

// Resize applies the most recent SetSize.
func (m *Minimap) Resize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingW > 0 && m.pendingH > 0 {
		m.width, m.height = m.pendingW, m.pendingH
	}
}

// Markers returns a copy of the markers on the map ordered by handle.
func (m *Minimap) Markers() []mapview.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedMarkers()
}

// Center returns the map centre.
func (m *Minimap) Center() mapview.LatLng {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

// Size returns the applied drawable area.
func (m *Minimap) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

// View draws the grid with every marker that falls inside it.
func (m *Minimap) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return styles.HelpStyle.Render("Loading map...")
	}

	dot := lipgloss.NewStyle().Foreground(styles.BgLight).Render("·")
	grid := make([][]string, m.height)
	for y := range grid {
		grid[y] = make([]string, m.width)
		for x := range grid[y] {
			if x%6 == 0 && y%3 == 0 {
				grid[y][x] = dot
			} else {
				grid[y][x] = " "
			}
		}
	}

	for _, mk := range m.sortedMarkers() {
		x, y, ok := m.project(mk.Record.Lat, mk.Record.Lng)
		if !ok {
			continue
		}
		style := styles.GetStatusStyle(mk.Record.Status())
		grid[y][x] = style.Render("●")
		if mk.Representation != mapview.Detailed {
			continue
		}
		for i, r := range mk.Label {
			if x+1+i >= m.width {
				break
			}
			grid[y][x+1+i] = style.Render(string(r))
		}
	}

	lines := make([]string, m.height)
	for y, row := range grid {
		lines[y] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

// PopupView renders the open popup, or "" when none is open.
func (m *Minimap) PopupView() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.popup == nil {
		return ""
	}
	mk, ok := m.markers[*m.popup]
	if !ok {
		return ""
	}
	return PopupContent(mk.Record)
}

// PopupContent formats the details shown for one record.
func PopupContent(r models.CounterRecord) string {
	lines := []string{
		styles.CardTitleStyle.UnsetMarginBottom().Render("Vehicle " + r.VehicleID),
		fmt.Sprintf("Company:   %s", r.CompanyID),
		fmt.Sprintf("Route:     %s", orDash(r.Route)),
		fmt.Sprintf("Boarded:   %d", r.InCount),
		fmt.Sprintf("Alighted:  %d", r.OutCount),
		fmt.Sprintf("On board:  %d", r.Passengers()),
		"Status:    " + styles.GetStatusStyle(r.Status()).Render(string(r.Status())),
	}
	if !r.RecordedAt.IsZero() {
		lines = append(lines, "Recorded:  "+r.RecordedAt.Format("2006-01-02 15:04"))
	}
	return styles.PopupStyle.Render(strings.Join(lines, "\n"))
}

// Caption describes the current camera.
func (m *Minimap) Caption() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("zoom %.0f  %.4f, %.4f", m.zoom, m.center.Lat, m.center.Lng)
}

func (m *Minimap) sortedMarkers() []mapview.Marker {
	out := make([]mapview.Marker, 0, len(m.markers))
	for _, mk := range m.markers {
		out = append(out, mk)
	}
	slices.SortFunc(out, func(a, b mapview.Marker) int {
		return a.Handle.Index() - b.Handle.Index()
	})
	return out
}

// project maps a position to a grid cell. Must be called with m.mu held.
func (m *Minimap) project(lat, lng float64) (x, y int, ok bool) {
	x = m.width/2 + int(math.Round((lng-m.center.Lng)/m.degPerCol()))
	y = m.height/2 - int(math.Round((lat-m.center.Lat)/m.degPerRow()))
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0, 0, false
	}
	return x, y, true
}

func (m *Minimap) degPerCol() float64 {
	return 360 / (tileSizePx * math.Exp2(m.zoom)) * cellWidthPx
}

func (m *Minimap) degPerRow() float64 {
	scale := math.Max(math.Cos(m.center.Lat*math.Pi/180), 0.01)
	return 360 / (tileSizePx * math.Exp2(m.zoom)) * cellHeightPx * scale
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
