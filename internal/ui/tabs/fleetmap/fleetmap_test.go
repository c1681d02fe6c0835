package fleetmap

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bus-counter-tui/internal/aggregate"
	"github.com/j-veylop/bus-counter-tui/internal/app"
	"github.com/j-veylop/bus-counter-tui/internal/mapview"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/services/dashboard"
	"github.com/j-veylop/bus-counter-tui/internal/ui/components"
)

var center = mapview.LatLng{Lat: 41.3874, Lng: 2.1686}

func newTab(t *testing.T, mode models.MapViewMode) (*Model, *components.Minimap) {
	t.Helper()
	records := []models.CounterRecord{
		{ID: 1, VehicleID: "V1", CompanyID: "1", Lat: 41.387, Lng: 2.168, InCount: 9, Active: true},
		{ID: 2, VehicleID: "V2", CompanyID: "1", Lat: 41.390, Lng: 2.170, InCount: 4, OutCount: 4},
		{ID: 3, VehicleID: "V3", CompanyID: "2", InCount: 1},
	}
	filter := models.DefaultFilterState()
	filter.MapViewMode = mode

	state := app.NewState()
	state.SetSnapshot(dashboard.Snapshot{
		Filter: filter,
		Result: aggregate.Aggregate(records, filter),
	})

	mini := components.NewMinimap(center, 11)
	tab := New(state, mini)
	return tab, mini
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_SetSizeLoadsMap(t *testing.T) {
	tab, mini := newTab(t, models.MapViewAll)
	if !strings.Contains(tab.View(), "Loading map") {
		t.Error("map should show loading before it has a size")
	}

	tab.SetSize(100, 30)
	if !mini.Loaded() {
		t.Fatal("first size should load the map")
	}
	if w, h := mini.Size(); w != 96 || h != 30-mapChrome {
		t.Errorf("grid = %dx%d", w, h)
	}
	if tab.Init() != nil {
		t.Error("Init should not start anything")
	}
}

func TestModel_View(t *testing.T) {
	tab, _ := newTab(t, models.MapViewIn)
	tab.SetSize(100, 30)
	view := tab.View()

	for _, want := range []string{"Fleet map", "Showing 2 buses", "1 without position", "Labels: boarded", "zoom in to show", "In Progress", "Completed", "zoom 11"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_Zoom(t *testing.T) {
	tab, mini := newTab(t, models.MapViewAll)

	_, cmd := tab.Update(runes("+"))
	if mini.Zoom() != 12 {
		t.Errorf("zoom = %v, want 12", mini.Zoom())
	}
	if cmd == nil || cmd() != (app.MapZoomedMsg{}) {
		t.Error("zooming should report MapZoomedMsg")
	}

	tab.Update(runes("-"))
	tab.Update(runes("-"))
	if mini.Zoom() != 10 {
		t.Errorf("zoom = %v, want 10", mini.Zoom())
	}
}

func TestModel_Pan(t *testing.T) {
	tab, mini := newTab(t, models.MapViewAll)

	if _, cmd := tab.Update(tea.KeyMsg{Type: tea.KeyRight}); cmd != nil {
		t.Error("panning should not emit")
	}
	if mini.Center().Lng <= center.Lng {
		t.Error("right should move east")
	}
	tab.Update(runes("k"))
	if mini.Center().Lat <= center.Lat {
		t.Error("up should move north")
	}
}

func TestModel_Fullscreen(t *testing.T) {
	tab, _ := newTab(t, models.MapViewAll)

	_, cmd := tab.Update(runes("f"))
	if !tab.Fullscreen() {
		t.Fatal("f should enter fullscreen")
	}
	if cmd == nil || cmd() != (app.MapResizeMsg{}) {
		t.Error("fullscreen should request a resize")
	}

	tab.Update(runes("f"))
	if tab.Fullscreen() {
		t.Error("f again should leave fullscreen")
	}
}

func TestModel_ResizeThroughController(t *testing.T) {
	tab, mini := newTab(t, models.MapViewAll)
	tab.SetSize(80, 20)

	tab.SetSize(120, 40)
	if w, _ := mini.Size(); w != 76 {
		t.Fatalf("size changed before Resize: width %d", w)
	}
	mini.Resize()
	if w, h := mini.Size(); w != 116 || h != 40-mapChrome {
		t.Errorf("size after Resize = %dx%d", w, h)
	}
}

func TestModel_ClosePopup(t *testing.T) {
	tab, mini := newTab(t, models.MapViewAll)
	tab.SetSize(100, 30)

	h := mapview.Handle{}
	mini.CreateMarker(mapview.Marker{Handle: h, Record: models.CounterRecord{VehicleID: "V1", Lat: center.Lat, Lng: center.Lng}})
	mini.OpenPopup(h)
	if !strings.Contains(tab.View(), "Vehicle V1") {
		t.Fatal("popup should be drawn beside the map")
	}

	tab.Update(runes("c"))
	if mini.PopupView() != "" {
		t.Error("c should close the popup")
	}
}

func TestModel_Help(t *testing.T) {
	tab, _ := newTab(t, models.MapViewAll)
	if len(tab.ShortHelp()) == 0 || len(tab.FullHelp()) != 3 {
		t.Error("unexpected help bindings")
	}
}
