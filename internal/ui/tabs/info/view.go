package info

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/ui/components"
	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
	"github.com/j-veylop/bus-counter-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderFetchCard(),
		m.renderExportCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, fetch log and exports")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 100)
}

// renderConfigCard renders the configuration card.
func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	autoRefresh := "off"
	if m.config.AutoRefreshInterval > 0 {
		autoRefresh = m.config.AutoRefreshInterval.String()
	}

	rows = append(rows,
		renderConfigRow("Source", orDash(m.state.GetSource())),
		renderConfigRow("Database", m.config.DatabasePath),
		renderConfigRow("Export Dir", m.config.ExportDir),
		renderConfigRow("Page Size", strconv.Itoa(m.config.PageSize)),
		renderConfigRow("API Timeout", m.config.APITimeout.String()),
		renderConfigRow("Retries", fmt.Sprintf("%d (delay %s)", m.config.RetryAttempts, m.config.RetryDelay)),
		renderConfigRow("Auto Refresh", autoRefresh),
		renderConfigRow("Log File", orDash(m.config.LogFile)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderFetchCard summarises recorded fetches.
func (m *Model) renderFetchCard() string {
	rows := []string{styles.CardTitleStyle.Render("Fetches"), ""}

	if stats := m.state.GetFetchStats(); stats != nil {
		rows = append(rows,
			renderConfigRow("Total", strconv.Itoa(stats.TotalFetches)),
			renderConfigRow("Failed", strconv.Itoa(stats.FailedFetches)),
			renderConfigRow("Superseded", strconv.Itoa(stats.StaleFetches)),
			renderConfigRow("Avg Duration", fmt.Sprintf("%.0f ms", stats.AvgDurationMs)),
		)
	}

	logs := m.state.GetFetchLogs()
	if len(logs) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No fetches recorded yet"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	// Oldest first so the sparkline reads left to right.
	durations := make([]float64, len(logs))
	for i, l := range logs {
		durations[len(logs)-1-i] = float64(l.DurationMs)
	}
	rows = append(rows,
		renderConfigRow("Durations", components.RenderSparkline(durations, len(durations))),
		"",
	)

	for _, l := range logs {
		rows = append(rows, renderFetchLog(l))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderFetchLog(l models.FetchLog) string {
	when := l.Timestamp.Local().Format("15:04:05")
	line := fmt.Sprintf("%s  %-24s %5d records %6d ms", when, l.RangeKey, l.RecordCount, l.DurationMs)
	switch {
	case l.Stale:
		return styles.HelpStyle.Render(line + "  superseded")
	case l.Error != "":
		return styles.ErrorTextStyle.Render(fmt.Sprintf("%s  %-24s %s", when, l.RangeKey, l.Error))
	}
	return line
}

// renderExportCard lists recent exports.
func (m *Model) renderExportCard() string {
	rows := []string{styles.CardTitleStyle.Render("Exports"), ""}

	exports := m.state.GetExports()
	if len(exports) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No exports yet"))
	}
	for _, e := range exports {
		when := e.Timestamp.Local().Format("2006-01-02 15:04")
		if e.Succeeded() {
			rows = append(rows, fmt.Sprintf("%s  %-7s %5d rows  %s", when, e.Scope, e.RowCount, e.Path))
		} else {
			rows = append(rows, styles.ErrorTextStyle.Render(fmt.Sprintf("%s  %-7s failed: %s", when, e.Scope, e.Error)))
		}
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderConfigRow renders a key-value row.
func renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(14).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the version information card.
func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About " + version.Name),
		"",
		renderConfigRow("Version", version.GetVersion()),
		renderConfigRow("Build Date", version.GetDate()),
		renderConfigRow("Git Commit", version.GetCommit()),
		renderConfigRow("Go Version", runtime.Version()),
		renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
