// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/bus-counter-tui/internal/db"
	"github.com/j-veylop/bus-counter-tui/internal/export"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/services/dashboard"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// Loadable resources.
const (
	ResourceInitial = "initial"
	ResourceFetch   = "fetch"
	ResourceExport  = "export"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Fetch   bool
	Export  bool
}

// State is the view state shared by every tab. The dashboard snapshot is
// copied in after each change so views never touch the controller.
type State struct {
	LastUpdated     time.Time
	FetchStats      *db.FetchStats
	Source          string
	Snapshot        dashboard.Snapshot
	FetchLogs       []models.FetchLog
	Exports         []models.ExportLog
	notifications   []Notification
	Export          export.State
	notificationSeq int
	mu              sync.RWMutex
	Loading         LoadingState
}

// NewState creates the initial state with the initial load pending.
func NewState() *State {
	return &State{
		Snapshot: dashboard.Snapshot{
			Filter: models.DefaultFilterState(),
		},
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case ResourceInitial:
		s.Loading.Initial = loading
	case ResourceFetch:
		s.Loading.Fetch = loading
	case ResourceExport:
		s.Loading.Export = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial || s.Loading.Fetch || s.Loading.Export
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// IsFetching reports whether a fetch is in flight.
func (s *State) IsFetching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Fetch
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, ResourceInitial)
	}
	if s.Loading.Fetch {
		resources = append(resources, ResourceFetch)
	}
	if s.Loading.Export {
		resources = append(resources, ResourceExport)
	}
	return resources
}

// SetSnapshot replaces the dashboard snapshot.
func (s *State) SetSnapshot(snap dashboard.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Snapshot = snap
	s.LastUpdated = time.Now()
	if !snap.LastFetched.IsZero() {
		s.LastUpdated = snap.LastFetched
	}
}

// GetSnapshot returns the current dashboard snapshot.
func (s *State) GetSnapshot() dashboard.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Snapshot
}

// SetExport records the export composer state.
func (s *State) SetExport(st export.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Export = st
}

// GetExport returns the export composer state.
func (s *State) GetExport() export.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Export
}

// SetHistory replaces the fetch and export logs.
func (s *State) SetHistory(fetches []models.FetchLog, stats *db.FetchStats, exports []models.ExportLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchLogs = fetches
	s.FetchStats = stats
	s.Exports = exports
}

// GetFetchLogs returns a copy of the recent fetch log.
func (s *State) GetFetchLogs() []models.FetchLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]models.FetchLog, len(s.FetchLogs))
	copy(logs, s.FetchLogs)
	return logs
}

// GetFetchStats returns the fetch log summary, or nil before it loads.
func (s *State) GetFetchStats() *db.FetchStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FetchStats
}

// GetExports returns a copy of the recent export history.
func (s *State) GetExports() []models.ExportLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exports := make([]models.ExportLog, len(s.Exports))
	copy(exports, s.Exports)
	return exports
}

// SetSource records where records are read from.
func (s *State) SetSource(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Source = source
}

// GetSource returns where records are read from.
func (s *State) GetSource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Source
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the last time the state was updated.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
