package app

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bus-counter-tui/internal/export"
	"github.com/j-veylop/bus-counter-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// HistoryLimit is how many log rows the info tab shows.
	HistoryLimit = 10
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

func startLoadingCmd(resource string) tea.Cmd {
	return func() tea.Msg {
		return StartLoadingMsg{Resource: resource}
	}
}

// fetchCmd runs a fetch for the current filters. The manager bounds the
// request with its own timeout and retry policy.
func fetchCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		res, err := mgr.Refresh(context.Background())
		return FetchDoneMsg{Result: res, Err: err}
	}
}

// loadHistoryCmd reads the fetch and export logs.
func loadHistoryCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		fetches, fErr := mgr.FetchHistory(HistoryLimit)
		stats, sErr := mgr.FetchStats()
		exports, eErr := mgr.ExportHistory(HistoryLimit)
		return HistoryLoadedMsg{
			Fetches: fetches,
			Stats:   stats,
			Exports: exports,
			Err:     errors.Join(fErr, sErr, eErr),
		}
	}
}

// exportCmd writes the chosen scope to a workbook.
func exportCmd(mgr *services.Manager, scope export.Scope) tea.Cmd {
	return func() tea.Msg {
		st, err := mgr.Export(scope)
		return ExportResultMsg{State: st, Err: err}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// Emit wraps msg in a command. Tabs use it to hand requests to the root model.
func Emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

// DefaultTick returns a tick command with the default interval.
func (c *Commands) DefaultTick() tea.Cmd {
	return defaultTickCmd()
}

// Fetch returns a command that starts a fetch and reports its outcome.
func (c *Commands) Fetch() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return tea.Batch(startLoadingCmd(ResourceFetch), fetchCmd(c.manager))
}

// LoadHistory returns a command that loads the fetch and export logs.
func (c *Commands) LoadHistory() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return loadHistoryCmd(c.manager)
}

// Export returns a command that exports the given scope.
func (c *Commands) Export(scope export.Scope) tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return tea.Batch(startLoadingCmd(ResourceExport), exportCmd(c.manager, scope))
}

// SubscribeToServices returns a command that subscribes to service events.
func (c *Commands) SubscribeToServices() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return subscribeToServicesCmd(c.manager)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// ClearNotification returns a command that removes a notification after a delay.
func (c *Commands) ClearNotification(id string, delay time.Duration) tea.Cmd {
	return clearNotificationCmd(id, delay)
}

// Quit returns a command that quits the application.
func (c *Commands) Quit() tea.Cmd {
	return tea.Quit
}
