package records

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bus-counter-tui/internal/export"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/ui/components"
	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
)

// View renders the records tab.
func (m *Model) View() string {
	snap := m.state.GetSnapshot()
	if snap.Page.TotalRecords == 0 {
		return m.renderEmpty()
	}

	body := m.table.View()
	if m.showDetails {
		if r, ok := m.selected(); ok {
			body = lipgloss.JoinVertical(lipgloss.Left, body, components.PopupContent(r))
		}
	}

	sections := []string{
		m.renderHeader(),
		body,
		"",
		m.renderPager(snap.Page),
		styles.HelpStyle.Render(showing(snap.Page)),
		m.renderExport(),
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Records"),
		"",
		styles.HelpStyle.Render("No records match the current filters."),
		styles.HelpStyle.Render("Change the filters on the dashboard or press r to refetch."),
		"",
		m.renderExport(),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	f := m.state.GetSnapshot().Filter
	title := styles.TitleStyle.Render("Records")

	parts := []string{f.DateRange.Label()}
	if f.CompanyID != models.AllValue {
		parts = append(parts, "company "+f.CompanyID)
	}
	if f.Route != models.AllValue {
		parts = append(parts, "route "+f.Route)
	}
	if f.VehicleID != models.AllValue {
		parts = append(parts, "vehicle "+f.VehicleID)
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", styles.HelpStyle.Render(strings.Join(parts, " · ")))
}

// renderPager renders the page number list with the current page marked.
func (m *Model) renderPager(p models.PageWindow) string {
	active := lipgloss.NewStyle().Bold(true).Foreground(styles.Primary)
	idle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	disabled := lipgloss.NewStyle().Foreground(styles.TextMuted)

	prev, next := disabled.Render("« Prev"), disabled.Render("Next »")
	if p.HasPrev() {
		prev = idle.Render("« Prev")
	}
	if p.HasNext() {
		next = idle.Render("Next »")
	}

	items := []string{prev}
	for _, item := range p.PageNumbers {
		switch {
		case item.Ellipsis:
			items = append(items, disabled.Render(item.String()))
		case item.Number == p.PageIndex:
			items = append(items, active.Render("["+item.String()+"]"))
		default:
			items = append(items, idle.Render(item.String()))
		}
	}
	items = append(items, next)

	return strings.Join(items, " ")
}

// renderExport shows the export composer state.
func (m *Model) renderExport() string {
	st := m.state.GetExport()
	label := styles.FilterKeyStyle.Render("Export: ")

	switch st.Status {
	case export.StatusPending:
		return label + styles.WarningTextStyle.Render("writing workbook...")
	case export.StatusSuccess:
		return label + styles.SuccessTextStyle.Render(fmt.Sprintf("%d rows → %s", st.Count, st.Path)) +
			styles.HelpStyle.Render("  (x to reset)")
	case export.StatusError:
		return label + styles.ErrorTextStyle.Render(st.Message) + styles.HelpStyle.Render("  (x to reset)")
	}
	return label + styles.HelpStyle.Render("e page · E all filtered records")
}
