// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/bus-counter-tui/internal/config"
	"github.com/j-veylop/bus-counter-tui/internal/db"
	"github.com/j-veylop/bus-counter-tui/internal/export"
	"github.com/j-veylop/bus-counter-tui/internal/logger"
	"github.com/j-veylop/bus-counter-tui/internal/mapview"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/services/counters"
	"github.com/j-veylop/bus-counter-tui/internal/services/dashboard"
)

// snapshotKeep is the number of cached range keys kept in the database.
const snapshotKeep = 8

type (
	// DataUpdatedEvent is emitted when a background refresh replaced the
	// record set.
	DataUpdatedEvent struct {
		Snapshot dashboard.Snapshot
		Result   dashboard.FetchResult
	}

	// FetchFailedEvent is emitted when a background refresh failed. The
	// previous data stays in place.
	FetchFailedEvent struct {
		Error error
	}

	// ExportFinishedEvent is emitted when an export reaches a terminal state.
	ExportFinishedEvent struct {
		State export.State
	}

	// SourceChangedEvent is emitted when the watched data file changed.
	SourceChangedEvent struct {
		Path string
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (DataUpdatedEvent) isServiceEvent()    {}
func (FetchFailedEvent) isServiceEvent()    {}
func (ExportFinishedEvent) isServiceEvent() {}
func (SourceChangedEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()          {}

// Notifier shows a desktop notification.
type Notifier func(title, body string) error

// Option customises a Manager.
type Option func(*Manager)

// WithRepository replaces the repository built from the configuration.
func WithRepository(repo counters.Repository) Option {
	return func(m *Manager) {
		m.repo = repo
	}
}

// WithRenderer attaches a map renderer. Markers follow the filtered records.
func WithRenderer(r mapview.Renderer) Option {
	return func(m *Manager) {
		m.renderer = r
	}
}

// WithNotifier replaces the desktop notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notify = n
	}
}

// Manager orchestrates services and event routing.
type Manager struct {
	repo        counters.Repository
	file        *counters.FileRepository
	renderer    mapview.Renderer
	markers     *mapview.Controller
	dashboard   *dashboard.Controller
	composer    *export.Composer
	database    *db.DB
	notify      Notifier
	cfg         *config.Config
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	wg          sync.WaitGroup
	closeOnce   sync.Once
	mu          sync.RWMutex
	failing     bool
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
		composer:  export.NewComposer(cfg.ExportDir),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.notify == nil {
		m.notify = func(title, body string) error {
			return beeep.Notify(title, body, "")
		}
	}
	if !cfg.DesktopNotifications {
		m.notify = func(string, string) error { return nil }
	}

	if m.repo == nil {
		if err := m.openRepository(); err != nil {
			return nil, err
		}
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		m.closeRepository()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	dashOpts := []dashboard.Option{dashboard.WithPageSize(cfg.PageSize)}
	if m.renderer != nil {
		m.markers = mapview.NewController(m.renderer)
		dashOpts = append(dashOpts, dashboard.WithMarkers(m.markers))
	}
	m.dashboard = dashboard.New(m.repo, dashOpts...)

	m.seedFromCache()

	if m.file != nil {
		m.wg.Add(1)
		go m.routeEvents()
	}
	if cfg.AutoRefreshInterval > 0 {
		m.wg.Add(1)
		go m.autoRefresh(cfg.AutoRefreshInterval)
	}

	return m, nil
}

func (m *Manager) openRepository() error {
	if m.cfg.CounterDataFile != "" {
		file, err := counters.NewFileRepository(m.cfg.CounterDataFile)
		if err != nil {
			return err
		}
		m.file = file
		m.repo = file
		return nil
	}

	httpConfig := counters.DefaultConfig()
	httpConfig.BaseURL = m.cfg.CounterAPIURL
	httpConfig.Timeout = m.cfg.APITimeout
	httpConfig.RetryAttempts = m.cfg.RetryAttempts
	httpConfig.RetryDelay = m.cfg.RetryDelay
	m.repo = counters.NewHTTPRepository(httpConfig, &http.Client{Timeout: httpConfig.Timeout})
	return nil
}

func (m *Manager) closeRepository() {
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			logger.Warn("failed to close data file watcher", "error", err)
		}
	}
}

// seedFromCache shows the last cached records for the initial range until
// the first fetch completes.
func (m *Manager) seedFromCache() {
	r, err := m.dashboard.CurrentRange()
	if err != nil {
		return
	}
	records, fetchedAt, found, err := m.database.LoadSnapshot(r.Key())
	if err != nil {
		logger.Warn("failed to load cached snapshot", "error", err)
		return
	}
	if found && m.dashboard.Seed(records, fetchedAt) {
		logger.Info("seeded dashboard from cache", "range", r.Key(), "records", len(records))
	}
}

// routeEvents turns data file changes into refreshes.
func (m *Manager) routeEvents() {
	defer m.wg.Done()
	for {
		select {
		case event := <-m.file.Events():
			m.handleFileEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleFileEvent(event counters.Event) {
	switch event.Type {
	case counters.EventSourceChanged:
		m.broadcast(SourceChangedEvent{Path: m.file.Path()})
		m.backgroundRefresh()

	case counters.EventSourceError:
		m.broadcast(ErrorEvent{
			Service: "counters",
			Error:   event.Error,
		})
	}
}

func (m *Manager) autoRefresh(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.backgroundRefresh()
		case <-m.stopChan:
			return
		}
	}
}

// backgroundRefresh fetches outside the UI's command loop and reports the
// outcome as an event.
func (m *Manager) backgroundRefresh() {
	res, err := m.Refresh(context.Background())
	switch {
	case errors.Is(err, dashboard.ErrStaleResponse):
	case err != nil:
		m.broadcast(FetchFailedEvent{Error: err})
	default:
		m.broadcast(DataUpdatedEvent{Snapshot: m.dashboard.Snapshot(), Result: res})
	}
}

// Refresh fetches the current range, records the attempt and caches the
// result.
func (m *Manager) Refresh(ctx context.Context) (dashboard.FetchResult, error) {
	res, err := m.dashboard.FetchBuses(ctx)

	entry := &models.FetchLog{
		Generation:  res.Generation,
		RecordCount: res.RecordCount,
		DurationMs:  int(res.Duration.Milliseconds()),
		RangeKey:    res.Range.Key(),
		Stale:       errors.Is(err, dashboard.ErrStaleResponse),
	}
	if err != nil && !entry.Stale {
		entry.Error = err.Error()
	}
	if dbErr := m.database.InsertFetchLog(entry); dbErr != nil {
		logger.Warn("failed to record fetch", "error", dbErr)
	}

	switch {
	case entry.Stale:
		return res, err
	case err != nil:
		logger.Error("fetch failed", "range", entry.RangeKey, "error", err)
		m.notifyFailure(err)
		return res, err
	}

	m.mu.Lock()
	m.failing = false
	m.mu.Unlock()

	if err := m.database.SaveSnapshot(entry.RangeKey, res.Fetched); err != nil {
		logger.Warn("failed to cache snapshot", "error", err)
	} else if err := m.database.PruneSnapshots(snapshotKeep); err != nil {
		logger.Warn("failed to prune snapshots", "error", err)
	}

	logger.Info("fetch completed", "range", entry.RangeKey, "records", res.RecordCount, "duration", res.Duration)
	return res, nil
}

// notifyFailure alerts once when fetches start failing, not on every retry.
func (m *Manager) notifyFailure(err error) {
	m.mu.Lock()
	already := m.failing
	m.failing = true
	m.mu.Unlock()

	if already {
		return
	}
	if nErr := m.notify("Bus counter: fetch failed", err.Error()); nErr != nil {
		logger.Debug("desktop notification failed", "error", nErr)
	}
}

// SetFilter applies a filter change. The caller refreshes when the
// returned Change needs it.
func (m *Manager) SetFilter(key models.FilterKey, value string) (dashboard.Change, error) {
	return m.dashboard.SetFilter(key, value)
}

// Export writes the chosen scope of the filtered records to a workbook.
func (m *Manager) Export(scope export.Scope) (export.State, error) {
	visible := m.dashboard.Page().VisibleRecords
	full := m.dashboard.GetFilteredBuses()

	state, err := m.composer.Export(visible, full, scope)
	if errors.Is(err, export.ErrNotIdle) {
		return state, err
	}

	entry := &models.ExportLog{
		Path:     state.Path,
		Scope:    scope.String(),
		RowCount: state.Count,
		Error:    state.Message,
	}
	if dbErr := m.database.InsertExportLog(entry); dbErr != nil {
		logger.Warn("failed to record export", "error", dbErr)
	}

	if err != nil {
		logger.Error("export failed", "scope", scope, "error", err)
		_ = m.notify("Bus counter: export failed", err.Error())
	} else {
		logger.Info("export written", "path", state.Path, "rows", state.Count)
		_ = m.notify("Bus counter: export ready", fmt.Sprintf("%d rows written to %s", state.Count, state.Path))
	}

	m.broadcast(ExportFinishedEvent{State: state})
	return state, err
}

// ExportState returns the export composer's state.
func (m *Manager) ExportState() export.State {
	return m.composer.State()
}

// ResetExport returns a finished export to idle.
func (m *Manager) ResetExport() {
	m.composer.Reset()
}

// Resize re-lays the map after a layout change.
func (m *Manager) Resize() {
	if m.markers != nil {
		m.markers.Resize()
	}
}

// SyncZoom re-reads the map zoom after the user zoomed.
func (m *Manager) SyncZoom() {
	if m.markers != nil {
		m.markers.SyncZoom()
	}
}

// MapRepresentation returns how markers are currently drawn.
func (m *Manager) MapRepresentation() mapview.Representation {
	if m.markers == nil {
		return mapview.Simplified
	}
	return m.markers.Representation()
}

// FetchHistory returns recent fetch attempts, newest first.
func (m *Manager) FetchHistory(limit int) ([]models.FetchLog, error) {
	return m.database.GetRecentFetchLogs(limit)
}

// FetchStats summarises all recorded fetches.
func (m *Manager) FetchStats() (*db.FetchStats, error) {
	return m.database.GetFetchStats()
}

// ExportHistory returns recent exports, newest first.
func (m *Manager) ExportHistory(limit int) ([]models.ExportLog, error) {
	return m.database.GetRecentExports(limit)
}

// Dashboard returns the dashboard controller.
func (m *Manager) Dashboard() *dashboard.Controller {
	return m.dashboard
}

// Config returns the configuration the manager was built from.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// SourceDescription names where records come from.
func (m *Manager) SourceDescription() string {
	if m.file != nil {
		return "file " + m.file.Path()
	}
	return m.cfg.CounterAPIURL
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close stops background work and releases every service.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.markers != nil {
			m.markers.Close()
		}

		if m.file != nil {
			if err := m.file.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	return errors.Join(errs...)
}
