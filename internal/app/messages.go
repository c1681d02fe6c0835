package app

import (
	"time"

	"github.com/j-veylop/bus-counter-tui/internal/db"
	"github.com/j-veylop/bus-counter-tui/internal/export"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/services"
	"github.com/j-veylop/bus-counter-tui/internal/services/dashboard"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// RefreshMsg requests a fetch for the current filters.
type RefreshMsg struct{}

// FetchDoneMsg carries the outcome of a fetch.
type FetchDoneMsg struct {
	Err    error
	Result dashboard.FetchResult
}

// SnapshotUpdatedMsg is sent after the shared snapshot changed so tabs can
// react to new data.
type SnapshotUpdatedMsg struct {
	Snapshot dashboard.Snapshot
}

// SetFilterMsg asks the dashboard to change one filter.
type SetFilterMsg struct {
	Key   models.FilterKey
	Value string
}

// PageAction selects how PageMsg moves the table.
type PageAction int

// Page actions.
const (
	PageNext PageAction = iota
	PagePrev
	PageFirst
	PageLast
	PageSet
)

// PageMsg moves the records table to another page.
type PageMsg struct {
	Action PageAction
	Page   int
}

// ExportMsg requests a spreadsheet export.
type ExportMsg struct {
	Scope export.Scope
}

// ExportResultMsg contains the result of an export operation.
type ExportResultMsg struct {
	Err   error
	State export.State
}

// ResetExportMsg returns a finished export to idle.
type ResetExportMsg struct{}

// HistoryLoadedMsg contains the fetch and export logs.
type HistoryLoadedMsg struct {
	Err     error
	Stats   *db.FetchStats
	Fetches []models.FetchLog
	Exports []models.ExportLog
}

// MapResizeMsg asks the map to re-run its layout.
type MapResizeMsg struct{}

// MapZoomedMsg reports that the user changed the map zoom.
type MapZoomedMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
