package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/services/dashboard"
	"github.com/j-veylop/bus-counter-tui/internal/ui/components"
	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	snap := m.state.GetSnapshot()
	if m.state.IsInitialLoading() && snap.TotalFetched == 0 {
		return m.renderLoading()
	}

	sections := []string{
		m.renderTitle(snap),
		m.renderFilters(snap.Filter),
		m.renderStats(snap.Result),
		m.renderProgress(snap.Result),
		m.renderCompanyCard(snap),
		m.renderFlowCard(snap.Result),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderLoading renders the loading state.
func (m *Model) renderLoading() string {
	m.syncActivity()
	return components.RenderActivityCentered(m.activity, m.width, m.height)
}

// renderTitle renders the dashboard title.
func (m *Model) renderTitle(snap dashboard.Snapshot) string {
	title := styles.TitleStyle.Render("Bus Passenger Counter")
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%s  ·  %d records fetched", snap.Range, snap.TotalFetched))

	lines := []string{title, subtitle}
	if m.activity.Busy() {
		lines = append(lines, m.activity.View())
	}
	if snap.FetchErr != nil {
		lines = append(lines, styles.ErrorTextStyle.Render("Last fetch failed: "+snap.FetchErr.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "")...)
}

// renderFilters renders one line per filter, the selected one marked.
func (m *Model) renderFilters(f models.FilterState) string {
	rows := []string{styles.CardTitleStyle.Render("Filters")}

	for i, k := range filterKeys {
		prefix := "  "
		keyStyle := styles.FilterKeyStyle
		if i == m.selected {
			prefix = styles.FocusedStyle.Render("▸ ")
			keyStyle = styles.FilterSelectedStyle
		}

		value := styles.FilterValueStyle.Render(displayValue(k, f.Get(k)))
		if i == m.selected && m.editing {
			value = m.input.View()
		}
		if !applies(k, f) {
			value = styles.HelpStyle.Render(displayValue(k, f.Get(k)) + " (unused)")
		}

		rows = append(rows, fmt.Sprintf("%s%s %s", prefix, keyStyle.Render(filterLabel(k)), value))
	}

	return styles.CardStyle.Width(max(m.width-6, 40)).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// applies reports whether a filter currently affects the result.
func applies(k models.FilterKey, f models.FilterState) bool {
	switch k {
	case models.FilterCustomStart, models.FilterCustomEnd:
		return f.DateRange == models.RangeCustom || (k == models.FilterCustomStart && f.DateRange == models.RangeSingleDay)
	case models.FilterTimeOfDay:
		return f.DateRange == models.RangeToday || f.DateRange == models.RangeYesterday
	}
	return true
}

func filterLabel(k models.FilterKey) string {
	switch k {
	case models.FilterCompany:
		return "Company    "
	case models.FilterDateRange:
		return "Date range "
	case models.FilterCustomStart:
		return "From       "
	case models.FilterCustomEnd:
		return "To         "
	case models.FilterTimeOfDay:
		return "Time of day"
	case models.FilterRoute:
		return "Route      "
	case models.FilterVehicle:
		return "Vehicle    "
	case models.FilterChartType:
		return "Chart      "
	case models.FilterMapView:
		return "Map shows  "
	}
	return string(k)
}

func displayValue(k models.FilterKey, v string) string {
	switch k {
	case models.FilterCompany:
		if v == models.AllValue {
			return "All companies"
		}
		return "Company " + v
	case models.FilterRoute, models.FilterVehicle:
		if v == models.AllValue {
			return "All"
		}
	case models.FilterDateRange:
		return models.DateRangeMode(v).Label()
	case models.FilterTimeOfDay:
		return models.TimeOfDay(v).Label()
	case models.FilterCustomStart, models.FilterCustomEnd:
		if v == "" {
			return "YYYY-MM-DD"
		}
	case models.FilterMapView:
		switch models.MapViewMode(v) {
		case models.MapViewIn:
			return "Boarded"
		case models.MapViewOut:
			return "Alighted"
		}
		return "On board"
	}
	return v
}

// renderStats renders the headline figures as a row of cards.
func (m *Model) renderStats(res models.AggregateResult) string {
	cards := []struct {
		label string
		value int
	}{
		{"Passengers on board", res.TotalPassengers},
		{"Active vehicles", res.ActiveVehicleCount},
		{"Cameras", res.DistinctCameraCount},
		{"Trips in progress", res.InProgressCount},
	}

	cardWidth := max((m.width-6)/len(cards)-2, 16)
	rendered := make([]string, len(cards))
	for i, c := range cards {
		body := lipgloss.JoinVertical(lipgloss.Left,
			styles.StatValueStyle.Render(fmt.Sprintf("%d", c.value)),
			styles.StatLabelStyle.Render(c.label),
		)
		rendered[i] = styles.CardStyle.Width(cardWidth).Render(body)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m *Model) renderProgress(res models.AggregateResult) string {
	line := "  " + m.progress.View()
	if len(res.Records) > 0 {
		line += styles.HelpStyle.Render(fmt.Sprintf("  %d of %d trips", res.InProgressCount, len(res.Records)))
	}
	return line + "\n"
}

// renderCompanyCard renders boarded passengers per company.
func (m *Model) renderCompanyCard(snap dashboard.Snapshot) string {
	cardWidth := max(m.width-6, 40)
	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	header := fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render("Passengers boarded by company"))

	chart := components.RenderCompanyChart(snap.Result.SeriesByCompany, snap.Filter.ChartType, cardWidth-8)
	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", chart))
}

// renderFlowCard plots boarding against alighting for the filtered trips.
func (m *Model) renderFlowCard(res models.AggregateResult) string {
	cardWidth := max(m.width-6, 40)
	header := styles.CardTitleStyle.Render("Boarding and alighting")

	in, out := 0, 0
	for _, r := range res.Records {
		in += r.InCount
		out += r.OutCount
	}

	rows := []string{
		header,
		components.RenderFlowSplit(in, out, cardWidth-8),
		"",
		components.RenderFlowChart(res.Records, cardWidth-16, 6, ""),
		"",
		components.RenderLegend([]components.LegendItem{
			{Label: fmt.Sprintf("Boarded %d", in), Color: components.ChartBoardingColor},
			{Label: fmt.Sprintf("Alighted %d", out), Color: components.ChartAlightingColor},
		}),
	}
	return styles.CardStyle.Width(cardWidth).Render(strings.Join(rows, "\n"))
}
