package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
)

// Activity is a background job the dashboard can wait on.
type Activity int

// Activities, in the order their captions are shown.
const (
	ActivityFetch Activity = iota
	ActivityExport
)

// ActivityIndicator is a spinner whose caption says what is running.
type ActivityIndicator struct {
	spinner    spinner.Model
	style      lipgloss.Style
	rangeLabel string
	fetching   bool
	exporting  bool
}

// NewActivityIndicator returns an idle indicator.
func NewActivityIndicator() ActivityIndicator {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return ActivityIndicator{
		spinner: s,
		style:   lipgloss.NewStyle().Foreground(styles.TextSecondary),
	}
}

// Track replaces the set of running activities. rangeLabel names the
// interval being fetched.
func (a *ActivityIndicator) Track(rangeLabel string, running ...Activity) {
	a.rangeLabel = rangeLabel
	a.fetching, a.exporting = false, false
	for _, act := range running {
		switch act {
		case ActivityFetch:
			a.fetching = true
		case ActivityExport:
			a.exporting = true
		}
	}
}

// Busy reports whether any activity is running.
func (a ActivityIndicator) Busy() bool {
	return a.fetching || a.exporting
}

// Caption describes the running activities.
func (a ActivityIndicator) Caption() string {
	var parts []string
	if a.fetching {
		if a.rangeLabel == "" {
			parts = append(parts, "Fetching counters")
		} else {
			parts = append(parts, "Fetching counters for "+a.rangeLabel)
		}
	}
	if a.exporting {
		parts = append(parts, "writing workbook")
	}
	if len(parts) == 0 {
		return "Waiting for counters"
	}
	caption := strings.Join(parts, " · ")
	return strings.ToUpper(caption[:1]) + caption[1:]
}

// Init starts the spinner.
func (a ActivityIndicator) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update advances the spinner.
func (a ActivityIndicator) Update(msg tea.Msg) (ActivityIndicator, tea.Cmd) {
	var cmd tea.Cmd
	a.spinner, cmd = a.spinner.Update(msg)
	return a, cmd
}

// View renders the spinner and caption.
func (a ActivityIndicator) View() string {
	return a.spinner.View() + " " + a.style.Render(a.Caption())
}

// RenderActivityCentered renders the indicator in the middle of the area.
func RenderActivityCentered(a ActivityIndicator, width, height int) string {
	return styles.CenterBoth(a.View(), width, height)
}
