package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bus-counter-tui/internal/export"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/services"
	"github.com/j-veylop/bus-counter-tui/internal/services/dashboard"
)

type fakeTab struct {
	received []tea.Msg
	width    int
	height   int
	full     bool
	capture  bool
}

func (f *fakeTab) Init() tea.Cmd { return nil }

func (f *fakeTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	f.received = append(f.received, msg)
	return f, nil
}

func (f *fakeTab) View() string { return "fake tab body" }
func (f *fakeTab) SetSize(w, h int) { f.width, f.height = w, h }
func (f *fakeTab) ShortHelp() []key.Binding { return nil }
func (f *fakeTab) FullHelp() [][]key.Binding { return nil }
func (f *fakeTab) Fullscreen() bool { return f.full }
func (f *fakeTab) CapturingInput() bool { return f.capture }

// collect runs cmds and flattens batches into their messages.
func collect(cmds ...tea.Cmd) []tea.Msg {
	var out []tea.Msg
	for _, c := range cmds {
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			out = append(out, collect(batch...)...)
			continue
		}
		out = append(out, msg)
	}
	return out
}

func notifications(msgs []tea.Msg) []AddNotificationMsg {
	var out []AddNotificationMsg
	for _, m := range msgs {
		if n, ok := m.(AddNotificationMsg); ok {
			out = append(out, n)
		}
	}
	return out
}

func hasMsg[T any](msgs []tea.Msg) bool {
	for _, m := range msgs {
		if _, ok := m.(T); ok {
			return true
		}
	}
	return false
}

func readyModel(mgr *services.Manager) *Model {
	model := NewModel(mgr)
	model.ready = true
	model.width = 100
	model.height = 30
	return model
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabDashboard {
		t.Error("Default tab should be Dashboard")
	}
	if len(model.tabs) != 4 {
		t.Errorf("Should have 4 tab placeholders, got %d", len(model.tabs))
	}
}

func TestNewModel_CopiesManagerState(t *testing.T) {
	mgr := newTestManager(t, &stubRepo{records: sampleRecords()})
	model := NewModel(mgr)

	if model.state.GetSource() != "http://localhost:3000/api" {
		t.Errorf("source = %q", model.state.GetSource())
	}
	if model.state.GetExport().Status != export.StatusIdle {
		t.Error("export should start idle")
	}
}

func TestModel_Init(t *testing.T) {
	if NewModel(nil).Init() == nil {
		t.Error("Init returned nil command")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)
	tab := &fakeTab{}
	model.SetTabs([]Tab{tab})

	newModel, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	m := newModel.(*Model)

	if m.width != 100 || m.height != 50 || !m.ready {
		t.Errorf("model = %dx%d ready=%v", m.width, m.height, m.ready)
	}
	if tab.width != 100 || tab.height != 50-navbarHeight {
		t.Errorf("tab size = %dx%d", tab.width, tab.height)
	}
}

func TestModel_TabSwitch(t *testing.T) {
	model := readyModel(nil)
	model.SetTabs([]Tab{&fakeTab{}, &fakeTab{}, &fakeTab{}, &fakeTab{}})

	model.Update(TabSwitchMsg{Tab: TabRecords})
	if model.activeTab != TabRecords {
		t.Errorf("ActiveTab = %v, want Records", model.activeTab)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	if model.activeTab != TabMap {
		t.Errorf("ActiveTab = %v, want Map", model.activeTab)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.activeTab != TabInfo {
		t.Errorf("ActiveTab = %v, want Info", model.activeTab)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.activeTab != TabDashboard {
		t.Errorf("ActiveTab = %v, want wrap to Dashboard", model.activeTab)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if model.activeTab != TabInfo {
		t.Errorf("ActiveTab = %v, want Info", model.activeTab)
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	if _, cmd := model.Update(TickMsg{Time: time.Now()}); cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	if !strings.Contains(model.View(), "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.ready = true
	model.width = 80
	model.height = 24

	view := model.View()
	for _, name := range []string{"Dashboard", "Records", "Map", "Info"} {
		if !strings.Contains(view, name) {
			t.Errorf("View should show %s tab", name)
		}
	}
	if !strings.Contains(view, "not yet implemented") {
		t.Error("View should show placeholder text")
	}
}

func TestModel_Fullscreen(t *testing.T) {
	model := readyModel(nil)
	tab := &fakeTab{full: true}
	model.SetTabs([]Tab{tab})

	view := model.View()
	if strings.Contains(view, "Records") {
		t.Error("fullscreen tab should hide the navbar")
	}
	if tab.height != 30 {
		t.Errorf("fullscreen tab height = %d, want 30", tab.height)
	}

	tab.full = false
	model.Update(MapResizeMsg{})
	if tab.height != 30-navbarHeight {
		t.Errorf("tab height after leaving fullscreen = %d", tab.height)
	}
}

func TestModel_InputCapture(t *testing.T) {
	model := readyModel(nil)
	tab := &fakeTab{capture: true}
	model.SetTabs([]Tab{tab, &fakeTab{}})

	if cmd := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd != nil {
		t.Error("q should reach the tab while it captures input")
	}
	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if model.activeTab != TabDashboard {
		t.Error("digits should not switch tabs while capturing")
	}
	if len(tab.received) == 0 {
		t.Error("tab should receive the keys")
	}

	cmd := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should always quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should return tea.Quit")
	}
}

func TestModel_Help(t *testing.T) {
	model := readyModel(nil)

	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Error("showHelp should be true")
	}
	if !strings.Contains(model.View(), "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}

	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEsc})
	if model.showHelp {
		t.Error("Esc should close help")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := readyModel(nil)

	model.Update(AddNotificationMsg{Message: "Test Note", Type: NotificationInfo})
	if len(model.state.GetNotifications()) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(model.state.GetNotifications()))
	}
	if !strings.Contains(model.View(), "Test Note") {
		t.Error("View should show notification")
	}

	id := model.state.GetNotifications()[0].ID
	model.Update(RemoveNotificationMsg{ID: id})
	if len(model.state.GetNotifications()) != 0 {
		t.Error("notification should be removed")
	}
}

func TestModel_Loading(t *testing.T) {
	model := NewModel(nil)

	model.Update(StartLoadingMsg{Resource: ResourceExport})
	if !model.state.Loading.Export {
		t.Error("Loading.Export should be true")
	}
	notifs := model.state.GetNotifications()
	if len(notifs) != 1 || notifs[0].Message != "Exporting..." {
		t.Errorf("notifications = %+v", notifs)
	}

	model.Update(StopLoadingMsg{Resource: ResourceExport})
	model.Update(StopLoadingMsg{Resource: ResourceInitial})
	if model.state.AnyLoading() {
		t.Error("nothing should be loading")
	}
	if len(model.state.GetNotifications()) != 0 {
		t.Error("loading notification should be cleared")
	}
}

func TestModel_NilManagerIgnoresRequests(t *testing.T) {
	model := NewModel(nil)
	model.Update(SetFilterMsg{Key: models.FilterCompany, Value: "1"})
	model.Update(PageMsg{Action: PageNext})
	model.Update(ResetExportMsg{})
	model.Update(MapZoomedMsg{})
	if model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}) != nil {
		t.Error("refresh without a manager should do nothing")
	}
}

func TestModel_FetchDone(t *testing.T) {
	mgr := newTestManager(t, &stubRepo{records: sampleRecords()})
	model := readyModel(mgr)

	res, err := mgr.Refresh(t.Context())
	msgs := collect(model.handleFetchDone(FetchDoneMsg{Result: res, Err: err})...)

	if model.state.IsInitialLoading() {
		t.Error("initial loading should end")
	}
	if got := model.state.GetSnapshot().TotalFetched; got != 3 {
		t.Errorf("TotalFetched = %d, want 3", got)
	}
	if len(notifications(msgs)) != 0 {
		t.Error("the initial load should not toast")
	}
	if !hasMsg[SnapshotUpdatedMsg](msgs) || !hasMsg[HistoryLoadedMsg](msgs) {
		t.Errorf("expected snapshot and history messages, got %T", msgs)
	}

	msgs = collect(model.handleFetchDone(FetchDoneMsg{Result: res})...)
	notes := notifications(msgs)
	if len(notes) != 1 || notes[0].Message != "Loaded 3 records" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestModel_FetchDoneErrors(t *testing.T) {
	model := readyModel(nil)

	model.state.SetLoading(ResourceFetch, true)
	if notes := notifications(collect(model.handleFetchDone(FetchDoneMsg{Err: dashboard.ErrStaleResponse})...)); len(notes) != 0 {
		t.Errorf("stale responses should not toast: %+v", notes)
	}
	if model.state.IsFetching() {
		t.Error("a stale response with nothing else in flight should end loading")
	}

	notes := notifications(collect(model.handleFetchDone(FetchDoneMsg{Err: errors.New("boom")})...))
	if len(notes) != 1 || notes[0].Type != NotificationError || !strings.Contains(notes[0].Message, "boom") {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestModel_StaleFetchKeepsNewerLoading(t *testing.T) {
	gate := make(chan struct{})
	repo := &stubRepo{records: sampleRecords(), gate: gate}
	mgr := newTestManager(t, repo)
	model := readyModel(mgr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = mgr.Refresh(t.Context())
	}()
	for !mgr.Dashboard().Snapshot().Loading {
		time.Sleep(time.Millisecond)
	}
	model.state.SetLoading(ResourceFetch, true)

	if cmds := model.handleFetchDone(FetchDoneMsg{Err: dashboard.ErrStaleResponse}); cmds != nil {
		t.Errorf("stale response produced commands: %v", cmds)
	}
	if !model.state.IsFetching() {
		t.Error("a stale response must not end the newer fetch's loading state")
	}

	close(gate)
	<-done
}

func TestModel_SetFilter(t *testing.T) {
	mgr := newTestManager(t, &stubRepo{records: sampleRecords()})
	model := readyModel(mgr)
	if _, err := mgr.Refresh(t.Context()); err != nil {
		t.Fatal(err)
	}

	cmds := model.handleSetFilter(SetFilterMsg{Key: models.FilterCompany, Value: "2"})
	if len(cmds) != 1 {
		t.Errorf("company change should only sync, got %d commands", len(cmds))
	}
	snap := model.state.GetSnapshot()
	if snap.Filter.CompanyID != "2" || snap.Result.TotalPassengers != 5 {
		t.Errorf("snapshot filter=%q total=%d", snap.Filter.CompanyID, snap.Result.TotalPassengers)
	}

	cmds = model.handleSetFilter(SetFilterMsg{Key: models.FilterDateRange, Value: string(models.RangeLast7Days)})
	if len(cmds) != 2 {
		t.Errorf("range change should sync and fetch, got %d commands", len(cmds))
	}

	notes := notifications(collect(model.handleSetFilter(SetFilterMsg{Key: models.FilterChartType, Value: "donut"})...))
	if len(notes) != 1 || notes[0].Type != NotificationWarning {
		t.Errorf("invalid value should warn, got %+v", notes)
	}

	notes = notifications(collect(model.handleSetFilter(SetFilterMsg{Key: models.FilterDateRange, Value: string(models.RangeCustom)})...))
	if len(notes) != 1 || notes[0].Type != NotificationWarning {
		t.Errorf("custom range without bounds should warn, got %+v", notes)
	}
}

func TestModel_SetFilterVehicleReset(t *testing.T) {
	mgr := newTestManager(t, &stubRepo{records: sampleRecords()})
	model := readyModel(mgr)
	if _, err := mgr.Refresh(t.Context()); err != nil {
		t.Fatal(err)
	}

	model.handleSetFilter(SetFilterMsg{Key: models.FilterVehicle, Value: "V1"})
	notes := notifications(collect(model.handleSetFilter(SetFilterMsg{Key: models.FilterCompany, Value: "2"})...))
	if len(notes) != 1 || notes[0].Type != NotificationInfo {
		t.Errorf("company change should report the vehicle reset, got %+v", notes)
	}
	if model.state.GetSnapshot().Filter.VehicleID != models.AllValue {
		t.Error("vehicle filter should be reset")
	}
}

func TestModel_Page(t *testing.T) {
	mgr := newTestManager(t, &stubRepo{records: sampleRecords()})
	model := readyModel(mgr)
	if _, err := mgr.Refresh(t.Context()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		msg  PageMsg
		want int
	}{
		{PageMsg{Action: PageNext}, 2},
		{PageMsg{Action: PageNext}, 2},
		{PageMsg{Action: PagePrev}, 1},
		{PageMsg{Action: PageLast}, 2},
		{PageMsg{Action: PageFirst}, 1},
		{PageMsg{Action: PageSet, Page: 2}, 2},
	}
	for _, tt := range tests {
		model.Update(tt.msg)
		if got := model.state.GetSnapshot().Page.PageIndex; got != tt.want {
			t.Errorf("after %+v page = %d, want %d", tt.msg, got, tt.want)
		}
	}
}

func TestModel_ExportResult(t *testing.T) {
	model := readyModel(nil)

	tests := []struct {
		name string
		msg  ExportResultMsg
		want NotificationType
	}{
		{"success", ExportResultMsg{State: export.State{Status: export.StatusSuccess, Count: 2, Path: "/tmp/x.xlsx"}}, NotificationSuccess},
		{"not idle", ExportResultMsg{Err: export.ErrNotIdle, State: export.State{Status: export.StatusSuccess}}, NotificationWarning},
		{"still writing", ExportResultMsg{Err: export.ErrNotIdle, State: export.State{Status: export.StatusPending}}, NotificationWarning},
		{"failure", ExportResultMsg{Err: errors.New("disk full"), State: export.State{Status: export.StatusError}}, NotificationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := notifications(collect(model.handleExportResult(tt.msg)...))
			if len(notes) != 1 || notes[0].Type != tt.want {
				t.Fatalf("notifications = %+v", notes)
			}
			if tt.msg.State.Status == export.StatusPending && strings.Contains(notes[0].Message, "press x") {
				t.Errorf("pending export suggested a reset: %q", notes[0].Message)
			}
			if model.state.GetExport().Status != tt.msg.State.Status {
				t.Error("export state not stored")
			}
		})
	}
}

func TestModel_ResetExport(t *testing.T) {
	mgr := newTestManager(t, &stubRepo{records: sampleRecords()})
	model := readyModel(mgr)
	if _, err := mgr.Refresh(t.Context()); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Export(export.ScopeFull); err != nil {
		t.Fatal(err)
	}

	model.Update(ResetExportMsg{})
	if model.state.GetExport().Status != export.StatusIdle {
		t.Errorf("export status = %v, want idle", model.state.GetExport().Status)
	}
}

func TestModel_HandleServiceEvent(t *testing.T) {
	model := NewModel(nil)

	snap := dashboard.Snapshot{TotalFetched: 9}
	if cmd := model.handleServiceEvent(services.DataUpdatedEvent{Snapshot: snap}); cmd == nil {
		t.Error("data update should notify tabs")
	}
	if model.state.GetSnapshot().TotalFetched != 9 {
		t.Error("snapshot should be replaced")
	}

	model.handleServiceEvent(services.ExportFinishedEvent{State: export.State{Status: export.StatusSuccess}})
	if model.state.GetExport().Status != export.StatusSuccess {
		t.Error("export state should be replaced")
	}

	for _, ev := range []services.ServiceEvent{
		services.FetchFailedEvent{Error: errors.New("down")},
		services.SourceChangedEvent{Path: "data.json"},
		services.ErrorEvent{Service: "db", Error: errors.New("locked")},
	} {
		if model.handleServiceEvent(ev) == nil {
			t.Errorf("%T should produce a command", ev)
		}
	}
}

func TestModel_HistoryLoaded(t *testing.T) {
	model := NewModel(nil)
	model.Update(HistoryLoadedMsg{Fetches: []models.FetchLog{{RangeKey: "all"}}})
	if len(model.state.GetFetchLogs()) != 1 {
		t.Error("fetch log should be stored")
	}
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	if _, cmd := model.Update(model.spinner.Tick()); cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestModel_StatusInNavbar(t *testing.T) {
	model := readyModel(nil)
	model.width = 160
	model.state.SetSnapshot(dashboard.Snapshot{
		LastFetched: time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC),
		FromCache:   true,
	})
	nav := model.renderNavbar()
	if !strings.Contains(nav, "09:30:00") || !strings.Contains(nav, "(cached)") {
		t.Errorf("navbar = %q", nav)
	}
}

func TestTabID_String(t *testing.T) {
	tests := map[TabID]string{
		TabDashboard: "Dashboard",
		TabRecords:   "Records",
		TabMap:       "Map",
		TabInfo:      "Info",
		TabID(999):   "Unknown",
	}
	for id, want := range tests {
		if got := id.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", id, got, want)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 || len(km.FullHelp()) == 0 {
		t.Error("help bindings empty")
	}
}
