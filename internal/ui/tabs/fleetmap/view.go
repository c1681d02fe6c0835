package fleetmap

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bus-counter-tui/internal/mapview"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/ui/components"
	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
)

// View renders the map tab.
func (m *Model) View() string {
	snap := m.state.GetSnapshot()

	grid := m.minimap.View()
	if popup := m.minimap.PopupView(); popup != "" {
		grid = lipgloss.JoinHorizontal(lipgloss.Top, grid, " ", popup)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(snap.Result.Records, snap.Filter.MapViewMode),
		grid,
		m.renderLegend(),
		styles.HelpStyle.Render(m.minimap.Caption()),
	)

	return lipgloss.NewStyle().
		Padding(0, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader(records []models.CounterRecord, mode models.MapViewMode) string {
	positioned := 0
	for _, r := range records {
		if r.HasPosition() {
			positioned++
		}
	}

	title := styles.TitleStyle.Render("Fleet map")
	count := styles.HelpStyle.Render(fmt.Sprintf("Showing %d buses", positioned))
	if hidden := len(records) - positioned; hidden > 0 {
		count += styles.HelpStyle.Render(fmt.Sprintf(" (%d without position)", hidden))
	}

	labels := "Labels: " + modeLabel(mode)
	if m.minimap.Zoom() < mapview.ZoomThreshold {
		labels += " (zoom in to show)"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", count),
		styles.InfoTextStyle.Render(labels),
	)
}

func modeLabel(mode models.MapViewMode) string {
	switch mode {
	case models.MapViewIn:
		return "boarded"
	case models.MapViewOut:
		return "alighted"
	}
	return "on board"
}

func (m *Model) renderLegend() string {
	return components.RenderLegend([]components.LegendItem{
		{Label: string(models.StatusInProgress), Color: styles.Warning},
		{Label: string(models.StatusCompleted), Color: styles.Success},
	})
}
