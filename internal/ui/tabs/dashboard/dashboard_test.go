package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bus-counter-tui/internal/aggregate"
	"github.com/j-veylop/bus-counter-tui/internal/app"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/services/dashboard"
	"github.com/j-veylop/bus-counter-tui/internal/ui/components"
)

func sampleSnapshot() dashboard.Snapshot {
	records := []models.CounterRecord{
		{ID: 1, VehicleID: "V1", CompanyID: "1", CameraID: "C1", InCount: 10, OutCount: 4, Active: true},
		{ID: 2, VehicleID: "V2", CompanyID: "1", CameraID: "C2", InCount: 3, OutCount: 3},
		{ID: 3, VehicleID: "V3", CompanyID: "2", CameraID: "C3", InCount: 7, OutCount: 2, Route: "R7"},
	}
	filter := models.DefaultFilterState()
	return dashboard.Snapshot{
		Filter:       filter,
		Result:       aggregate.Aggregate(records, filter),
		Companies:    aggregate.Companies(records),
		Vehicles:     aggregate.Vehicles(records, filter.CompanyID),
		Routes:       aggregate.Routes(records),
		TotalFetched: len(records),
	}
}

func newLoaded(t *testing.T) *Model {
	t.Helper()
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	state.SetSnapshot(sampleSnapshot())
	m := New(state)
	m.SetSize(120, 60)
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// emitted runs cmd and returns the filter change it requests.
func emitted(t *testing.T, cmd tea.Cmd) app.SetFilterMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(app.SetFilterMsg)
	if !ok {
		t.Fatalf("expected SetFilterMsg, got %T", cmd())
	}
	return msg
}

func TestModel_Init(t *testing.T) {
	m := New(app.NewState())
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(80, 24)
	if !strings.Contains(m.View(), "Fetching counters") {
		t.Error("initial view should say counters are being fetched")
	}
}

func TestModel_ActivityInTitle(t *testing.T) {
	m := newLoaded(t)
	if strings.Contains(m.View(), "Fetching counters") {
		t.Error("idle dashboard should not show the activity line")
	}

	m.state.SetLoading(app.ResourceFetch, true)
	m.state.SetLoading(app.ResourceExport, true)
	m.Update(app.SnapshotUpdatedMsg{Snapshot: m.state.GetSnapshot()})

	view := m.View()
	if !strings.Contains(view, "Fetching counters for") || !strings.Contains(view, "writing workbook") {
		t.Error("title should describe the running fetch and export")
	}
}

func TestModel_View(t *testing.T) {
	m := newLoaded(t)
	view := m.View()

	for _, want := range []string{"Bus Passenger Counter", "Filters", "All companies", "Today", "Passengers on board", "Company 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_CycleCompany(t *testing.T) {
	m := newLoaded(t)

	_, cmd := m.Update(keyMsg("l"))
	msg := emitted(t, cmd)
	if msg.Key != models.FilterCompany || msg.Value != "1" {
		t.Errorf("next = %+v, want company 1", msg)
	}

	_, cmd = m.Update(keyMsg("h"))
	msg = emitted(t, cmd)
	if msg.Value != "2" {
		t.Errorf("prev from all = %q, want wrap to 2", msg.Value)
	}
}

func TestModel_SelectFilter(t *testing.T) {
	m := newLoaded(t)

	m.Update(keyMsg("j"))
	_, cmd := m.Update(keyMsg("l"))
	msg := emitted(t, cmd)
	if msg.Key != models.FilterDateRange || msg.Value != string(models.RangeYesterday) {
		t.Errorf("got %+v, want date range yesterday", msg)
	}

	m.Update(keyMsg("k"))
	m.Update(keyMsg("k"))
	if m.selectedKey() != models.FilterMapView {
		t.Errorf("selected = %v, want wrap to map view", m.selectedKey())
	}
}

func TestModel_ToggleChart(t *testing.T) {
	m := newLoaded(t)
	_, cmd := m.Update(keyMsg("c"))
	if msg := emitted(t, cmd); msg.Key != models.FilterChartType || msg.Value != string(models.ChartPie) {
		t.Errorf("got %+v", msg)
	}
}

func TestModel_EditCustomDate(t *testing.T) {
	m := newLoaded(t)

	if cmd := m.startEdit(); cmd != nil || m.CapturingInput() {
		t.Fatal("company filter is not editable")
	}

	m.selected = 2
	m.Update(keyMsg("enter"))
	if !m.CapturingInput() {
		t.Fatal("enter on a date filter should start editing")
	}

	for _, r := range "2024-06-01" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if m.selected != 2 {
		t.Error("typing j/k must not move the selection")
	}

	_, cmd := m.Update(keyMsg("enter"))
	msg := emitted(t, cmd)
	if msg.Key != models.FilterCustomStart || msg.Value != "2024-06-01" {
		t.Errorf("got %+v", msg)
	}
	if m.CapturingInput() {
		t.Error("editing should stop after enter")
	}
}

func TestModel_CancelEdit(t *testing.T) {
	m := newLoaded(t)
	m.selected = 3
	m.Update(keyMsg("enter"))
	m.Update(keyMsg("9"))

	if _, cmd := m.Update(keyMsg("esc")); cmd != nil {
		t.Error("cancel should not change filters")
	}
	if m.CapturingInput() {
		t.Error("esc should stop editing")
	}
}

func TestModel_ProgressFollowsSnapshot(t *testing.T) {
	m := newLoaded(t)

	_, cmd := m.Update(app.SnapshotUpdatedMsg{Snapshot: sampleSnapshot()})
	if cmd == nil {
		t.Fatal("a new share should start the animation")
	}
	for range 100 {
		m.Update(components.AnimationTickMsg(time.Now()))
	}
	want := 100.0 / 3
	if got := m.progress.Percent(); got < want-0.01 || got > want+0.01 {
		t.Errorf("progress = %.2f, want %.2f", got, want)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		key  models.FilterKey
		want int
	}{
		{models.FilterCompany, 3},
		{models.FilterRoute, 2},
		{models.FilterDateRange, len(models.DateRangeModes)},
		{models.FilterTimeOfDay, len(models.TimesOfDay)},
		{models.FilterChartType, 2},
		{models.FilterMapView, 3},
		{models.FilterCustomStart, 0},
	}
	for _, tt := range tests {
		got := options(tt.key, []string{"1", "2"}, []string{"R7"}, []string{"V1"})
		if len(got) != tt.want {
			t.Errorf("options(%s) = %v, want %d entries", tt.key, got, tt.want)
		}
	}
}

func TestApplies(t *testing.T) {
	f := models.DefaultFilterState()
	if !applies(models.FilterTimeOfDay, f) {
		t.Error("time of day applies to today")
	}
	if applies(models.FilterCustomEnd, f) {
		t.Error("custom end does not apply to today")
	}
	f.DateRange = models.RangeSingleDay
	if !applies(models.FilterCustomStart, f) || applies(models.FilterCustomEnd, f) {
		t.Error("single day uses only the start date")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) == 0 || len(m.FullHelp()) == 0 {
		t.Error("help bindings empty")
	}
}
