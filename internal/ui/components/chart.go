// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
)

// ChartColors defines colors for chart elements.
var (
	ChartBoardingColor  = styles.Boarding
	ChartAlightingColor = styles.Alighting
	ChartPrimaryColor   = lipgloss.Color("#7D56F4")
)

// pieColors cycles through distinct colors for company slices.
var pieColors = []lipgloss.Color{"39", "205", "42", "220", "63", "208", "45", "170"}

// RenderCompanyChart renders the per-company boarding series as the chosen
// chart type.
func RenderCompanyChart(series []models.CompanySeries, chart models.ChartType, width int) string {
	if len(series) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	values := make([]float64, len(series))
	labels := make([]string, len(series))
	for i, s := range series {
		values[i] = float64(s.Value)
		labels[i] = "Company " + s.CompanyID
	}

	if chart == models.ChartPie {
		return RenderShareChart(values, labels, width)
	}
	return RenderBarChart(values, labels, width)
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := max(width-maxLabelLen-10, 10) // Leave room for label and value

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		paddedLabel := fmt.Sprintf("%*s", maxLabelLen, label)
		barLen := max(int((v/maxVal)*float64(barWidth)), 0)

		bar := lipgloss.NewStyle().Foreground(ChartBoardingColor).Render(strings.Repeat("█", barLen))
		lines = append(lines, fmt.Sprintf("%s │%s %.0f", paddedLabel, bar, v))
	}

	return strings.Join(lines, "\n")
}

// RenderShareChart renders each value's share of the total as a stacked
// bar followed by a percentage legend. It is the terminal form of a pie.
func RenderShareChart(values []float64, labels []string, width int) string {
	total := 0.0
	for _, v := range values {
		total += max(v, 0)
	}
	if total == 0 {
		return styles.HelpStyle.Render("No passengers boarded")
	}

	barWidth := max(width-2, 10)
	var bar strings.Builder
	used := 0
	items := make([]LegendItem, 0, len(values))

	for i, v := range values {
		color := pieColors[i%len(pieColors)]
		share := max(v, 0) / total

		cells := int(share*float64(barWidth) + 0.5)
		if i == len(values)-1 {
			cells = barWidth - used
		}
		cells = max(min(cells, barWidth-used), 0)
		used += cells

		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", cells)))

		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		items = append(items, LegendItem{
			Label: fmt.Sprintf("%s %.1f%%", label, share*100),
			Color: color,
		})
	}

	return bar.String() + "\n\n" + RenderLegend(items)
}

// RenderFlowChart plots boarding and alighting counts across records as
// two line series.
func RenderFlowChart(records []models.CounterRecord, width, height int, caption string) string {
	if len(records) < 2 {
		return styles.HelpStyle.Render("Not enough records to plot")
	}

	width = max(width, 20)
	height = max(height, 3)

	in := make([]float64, len(records))
	out := make([]float64, len(records))
	for i, r := range records {
		in[i] = float64(r.InCount)
		out[i] = float64(r.OutCount)
	}

	return asciigraph.PlotMany([][]float64{in, out},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Green,
			asciigraph.DarkOrange,
		),
	)
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	sparkChars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Sample values to fit width
	var result strings.Builder
	step := max(float64(len(values))/float64(width), 1)

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		normalized := int((val / maxVal) * float64(len(sparkChars)-1))
		normalized = max(min(normalized, len(sparkChars)-1), 0)
		result.WriteRune(sparkChars[normalized])
	}

	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
