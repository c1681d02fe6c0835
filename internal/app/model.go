// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/bus-counter-tui/internal/export"
	"github.com/j-veylop/bus-counter-tui/internal/logger"
	"github.com/j-veylop/bus-counter-tui/internal/services"
	"github.com/j-veylop/bus-counter-tui/internal/services/dashboard"
	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabDashboard is the ID for the dashboard tab.
	TabDashboard TabID = iota
	// TabRecords is the ID for the records table tab.
	TabRecords
	// TabMap is the ID for the map tab.
	TabMap
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabDashboard:
		return "Dashboard"
	case TabRecords:
		return "Records"
	case TabMap:
		return "Map"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// Fullscreener is implemented by tabs that can take over the whole
// terminal. While Fullscreen reports true the navbar is hidden.
type Fullscreener interface {
	Fullscreen() bool
}

// InputCapturer is implemented by tabs with text inputs. While
// CapturingInput reports true, global shortcuts other than ctrl+c are
// left to the tab.
type InputCapturer interface {
	CapturingInput() bool
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	Tab4    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	k.Tab1 = key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "dashboard"))
	k.Tab2 = key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "records"))
	k.Tab3 = key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "map"))
	k.Tab4 = key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "info"))
	k.NextTab = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.Refresh = key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4},
		{k.NextTab, k.PrevTab},
		{k.Refresh, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	// Tab bar styles
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	Status      lipgloss.Style

	// Notification styles
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	// Content styles
	Content lipgloss.Style
	Toast   lipgloss.Style

	// Common styles
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)
	s.Status = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Toast = styles.ToastStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)

	return s
}

// navbarHeight is the navbar plus its bottom border and spacing.
const navbarHeight = 5

// Model is the main application model.
type Model struct {
	// Tab management
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	// Shared state
	state    *State
	services *services.Manager
	commands *Commands
	keymap   KeyMap
	styles   Styles

	// UI components
	spinner spinner.Model

	// Window dimensions
	width  int
	height int

	// UI state
	showHelp bool
	ready    bool

	// Service subscription
	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	state := NewState()
	if mgr != nil {
		state.SetSnapshot(mgr.Dashboard().Snapshot())
		state.SetExport(mgr.ExportState())
		state.SetSource(mgr.SourceDescription())
	}

	return &Model{
		activeTab: TabDashboard,
		tabNames:  []string{"Dashboard", "Records", "Map", "Info"},
		tabs:      make([]Tab, 4),
		state:     state,
		services:  mgr,
		commands:  NewCommands(mgr),
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager {
	return m.services
}

// GetCommands returns the commands helper.
func (m *Model) GetCommands() *Commands {
	return m.commands
}

// GetKeyMap returns the key bindings.
func (m *Model) GetKeyMap() KeyMap {
	return m.keymap
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading counters...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds,
			subscribeToServicesCmd(m.services),
			fetchCmd(m.services),
			loadHistoryCmd(m.services),
		)
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg, tea.KeyMsg, spinner.TickMsg:
		if cmd := m.handleTeaMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		if appCmds := m.handleAppMsg(msg); len(appCmds) > 0 {
			cmds = append(cmds, appCmds...)
		}
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleTeaMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	}
	return nil
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		cmds = append(cmds, m.handleTick())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEventMsg(msg)...)
	case RefreshMsg:
		cmds = append(cmds, m.commands.Fetch())
	case FetchDoneMsg:
		cmds = append(cmds, m.handleFetchDone(msg)...)
	case SetFilterMsg:
		cmds = append(cmds, m.handleSetFilter(msg)...)
	case PageMsg:
		cmds = append(cmds, m.handlePage(msg))
	case ExportMsg:
		cmds = append(cmds, m.commands.Export(msg.Scope))
	case ExportResultMsg:
		cmds = append(cmds, m.handleExportResult(msg)...)
	case ResetExportMsg:
		if m.services != nil {
			m.services.ResetExport()
			m.state.SetExport(m.services.ExportState())
		}
	case HistoryLoadedMsg:
		if msg.Err != nil {
			logger.Warn("failed to load history", "error", msg.Err)
		}
		m.state.SetHistory(msg.Fetches, msg.Stats, msg.Exports)
	case MapResizeMsg:
		m.updateTabSizes()
		if m.services != nil {
			m.services.Resize()
		}
	case MapZoomedMsg:
		if m.services != nil {
			m.services.SyncZoom()
		}
	case AddNotificationMsg:
		cmds = append(cmds, m.handleAddNotification(msg)...)
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case StartLoadingMsg:
		m.handleStartLoading(msg)
	case StopLoadingMsg:
		m.handleStopLoading(msg)
	case ErrorMsg:
		cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("%s: %v", msg.Context, msg.Error)))
	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
	if m.services != nil {
		m.services.Resize()
	}
}

func (m *Model) handleSpinnerTick(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return cmd
}

func (m *Model) handleTick() tea.Cmd {
	m.state.ClearExpiredNotifications()
	return defaultTickCmd()
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.eventChannel != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	}
	return cmds
}

// syncSnapshot copies the dashboard into the shared state and tells the
// tabs about it.
func (m *Model) syncSnapshot() tea.Cmd {
	if m.services == nil {
		return nil
	}
	snap := m.services.Dashboard().Snapshot()
	m.state.SetSnapshot(snap)
	return Emit(SnapshotUpdatedMsg{Snapshot: snap})
}

func (m *Model) handleFetchDone(msg FetchDoneMsg) []tea.Cmd {
	stale := errors.Is(msg.Err, dashboard.ErrStaleResponse)
	if stale && m.fetchInFlight() {
		return nil
	}

	initial := m.state.IsInitialLoading()
	m.state.SetLoading(ResourceInitial, false)
	m.state.SetLoading(ResourceFetch, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}

	var cmds []tea.Cmd
	switch {
	case stale:
		return []tea.Cmd{m.syncSnapshot()}
	case msg.Err != nil:
		cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Fetch failed: %v", msg.Err)))
	case !initial:
		cmds = append(cmds, notifyInfoCmd(fmt.Sprintf("Loaded %d records", msg.Result.RecordCount)))
	}

	cmds = append(cmds, m.syncSnapshot(), m.commands.LoadHistory())
	return cmds
}

// fetchInFlight reports whether a newer fetch is still running.
func (m *Model) fetchInFlight() bool {
	return m.services != nil && m.services.Dashboard().Snapshot().Loading
}

func (m *Model) handleSetFilter(msg SetFilterMsg) []tea.Cmd {
	if m.services == nil {
		return nil
	}

	change, err := m.services.SetFilter(msg.Key, msg.Value)
	if err != nil {
		return []tea.Cmd{notifyWarningCmd(err.Error())}
	}

	cmds := []tea.Cmd{m.syncSnapshot()}
	if change.VehicleReset {
		cmds = append(cmds, notifyInfoCmd("Vehicle filter reset for the new company"))
	}
	if change.RangeErr != nil {
		cmds = append(cmds, notifyWarningCmd(change.RangeErr.Error()))
	}
	if change.NeedsFetch {
		cmds = append(cmds, m.commands.Fetch())
	}
	return cmds
}

func (m *Model) handlePage(msg PageMsg) tea.Cmd {
	if m.services == nil {
		return nil
	}

	d := m.services.Dashboard()
	switch msg.Action {
	case PageNext:
		d.NextPage()
	case PagePrev:
		d.PrevPage()
	case PageFirst:
		d.SetPage(1)
	case PageLast:
		d.SetPage(d.Page().TotalPages)
	case PageSet:
		d.SetPage(msg.Page)
	}
	return m.syncSnapshot()
}

func (m *Model) handleExportResult(msg ExportResultMsg) []tea.Cmd {
	m.state.SetLoading(ResourceExport, false)
	m.state.SetExport(msg.State)

	var cmds []tea.Cmd
	switch {
	case errors.Is(msg.Err, export.ErrNotIdle) && msg.State.Status == export.StatusPending:
		cmds = append(cmds, notifyWarningCmd("An export is still being written"))
	case errors.Is(msg.Err, export.ErrNotIdle):
		cmds = append(cmds, notifyWarningCmd("An export already ran; press x to reset it"))
	case msg.Err != nil:
		cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Export failed: %v", msg.Err)))
	default:
		cmds = append(cmds, notifySuccessCmd(fmt.Sprintf("Exported %d rows to %s", msg.State.Count, msg.State.Path)))
	}
	cmds = append(cmds, m.commands.LoadHistory())
	return cmds
}

func (m *Model) handleAddNotification(msg AddNotificationMsg) []tea.Cmd {
	var cmds []tea.Cmd
	id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
	if msg.Duration > 0 {
		cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
	}
	return cmds
}

func (m *Model) handleStartLoading(msg StartLoadingMsg) {
	m.state.SetLoading(msg.Resource, true)
	switch msg.Resource {
	case ResourceExport:
		m.state.SetLoadingNotification("Exporting...")
	default:
		m.state.SetLoadingNotification("Fetching counters...")
	}
}

func (m *Model) handleStopLoading(msg StopLoadingMsg) {
	m.state.SetLoading(msg.Resource, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-navbarHeight)

	for _, tab := range m.tabs {
		if tab == nil {
			continue
		}
		if fs, ok := tab.(Fullscreener); ok && fs.Fullscreen() {
			tab.SetSize(m.width, m.height)
			continue
		}
		tab.SetSize(m.width, contentHeight)
	}
}

func (m *Model) fullscreen() bool {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return false
	}
	fs, ok := m.tabs[m.activeTab].(Fullscreener)
	return ok && fs.Fullscreen()
}

func (m *Model) capturingInput() bool {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return false
	}
	ic, ok := m.tabs[m.activeTab].(InputCapturer)
	return ok && ic.CapturingInput()
}

func (m *Model) switchTab(tab TabID) {
	m.activeTab = tab
	m.updateTabSizes()
	if tab == TabMap && m.services != nil {
		m.services.Resize()
	}
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.capturingInput() {
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		return nil
	}

	// Global keybindings (work regardless of tab)
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keymap.Tab1):
		m.switchTab(TabDashboard)

	case key.Matches(msg, m.keymap.Tab2):
		m.switchTab(TabRecords)

	case key.Matches(msg, m.keymap.Tab3):
		m.switchTab(TabMap)

	case key.Matches(msg, m.keymap.Tab4):
		m.switchTab(TabInfo)

	case key.Matches(msg, m.keymap.NextTab):
		if !m.showHelp && len(m.tabs) > 0 {
			m.switchTab(TabID((int(m.activeTab) + 1) % len(m.tabs)))
		}

	case key.Matches(msg, m.keymap.PrevTab):
		if !m.showHelp && len(m.tabs) > 0 {
			m.switchTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs)))
		}

	case key.Matches(msg, m.keymap.Refresh):
		return m.commands.Fetch()

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
		}
	}

	return nil
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.DataUpdatedEvent:
		m.state.SetSnapshot(e.Snapshot)
		return tea.Batch(
			Emit(SnapshotUpdatedMsg{Snapshot: e.Snapshot}),
			m.commands.LoadHistory(),
		)

	case services.FetchFailedEvent:
		return tea.Batch(
			notifyErrorCmd(fmt.Sprintf("Background refresh failed: %v", e.Error)),
			m.commands.LoadHistory(),
		)

	case services.ExportFinishedEvent:
		m.state.SetExport(e.State)

	case services.SourceChangedEvent:
		return notifyInfoCmd(fmt.Sprintf("%s changed, reloading", e.Path))

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}

	return nil
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	fullscreen := m.fullscreen()
	if m.width > 0 && !fullscreen {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}

	mainView := b.String()

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	if notifications := m.renderNotifications(); len(notifications) > 0 {
		return m.overlayToasts(mainView, notifications)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayWidth := lipgloss.Width(overlay)

	y := max((m.height-len(overlayLines))/2, 0)
	x := max((m.width-overlayWidth)/2, 0)

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}

		mainLine := mainLines[mainY]

		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNavbar() string {
	var tabs []string

	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	if status := m.renderStatus(); status != "" {
		gap := m.width - lipgloss.Width(tabBar) - lipgloss.Width(status) - 4
		if gap > 0 {
			tabBar += strings.Repeat(" ", gap) + status
		}
	}

	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

// renderStatus shows the fetched range and how fresh it is.
func (m *Model) renderStatus() string {
	snap := m.state.GetSnapshot()
	if snap.LastFetched.IsZero() {
		return ""
	}
	status := snap.Range.String() + "  updated " + snap.LastFetched.Format("15:04:05")
	if snap.FromCache {
		status += " (cached)"
	}
	return m.styles.Status.Render(status)
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	var toasts []string
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		case NotificationInfo:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		case NotificationLoading:
			style = m.styles.NotificationInfo
			prefix = m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	toastWidth := lipgloss.Width(toastStack)
	startX := max(m.width-toastWidth-2, 0)

	startY := 2

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}

		mainLine := mainLines[lineIdx]
		mainLineWidth := lipgloss.Width(mainLine)

		if mainLineWidth < startX {
			padding := strings.Repeat(" ", startX-mainLineWidth)
			mainLines[lineIdx] = mainLine + padding + toastLine
		} else {
			truncated := ansi.Truncate(mainLine, startX, "")
			mainLines[lineIdx] = truncated + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, "  1-4        Switch tabs")
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  r          Refetch counters")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")
	lines = append(lines, "")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.tabNames[m.activeTab])))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
		}
	}

	lines = append(lines, "")
	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlaceholder() string {
	content := fmt.Sprintf(
		"Tab %d: %s\n\n%s",
		m.activeTab+1,
		m.tabNames[m.activeTab],
		m.styles.Subtle.Render("This tab is not yet implemented."),
	)
	return m.styles.Content.Render(content)
}
