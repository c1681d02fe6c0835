package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/bus-counter-tui/internal/logger"
	"github.com/j-veylop/bus-counter-tui/internal/ui/styles"
)

// AnimationTickMsg advances share bar animations.
type AnimationTickMsg time.Time

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// ShareBar renders a labelled share of a whole, such as the fraction of
// trips still in progress.
type ShareBar struct {
	progress progress.Model
	label    string
	current  float64
	target   float64
	animate  bool
}

// NewShareBar creates a share bar of the given width.
func NewShareBar(width int) ShareBar {
	p := progress.New(
		progress.WithScaledGradient("#5fafff", "#5fd787"),
		progress.WithWidth(max(width, 5)),
		progress.WithoutPercentage(),
	)
	return ShareBar{progress: p}
}

// SetPercent moves the bar towards percent and returns the animation
// command when the value changed.
func (b *ShareBar) SetPercent(percent float64) tea.Cmd {
	percent = max(min(percent, 100), 0)
	if percent == b.target {
		return nil
	}
	b.target = percent
	b.animate = true
	return animationTick()
}

// SetLabel sets the text shown before the bar.
func (b *ShareBar) SetLabel(label string) {
	b.label = label
}

// SetWidth resizes the bar.
func (b *ShareBar) SetWidth(width int) {
	b.progress.Width = max(width, 5)
}

// Percent returns the currently displayed percentage.
func (b ShareBar) Percent() float64 {
	return b.current
}

// Update steps the animation.
func (b ShareBar) Update(msg tea.Msg) (ShareBar, tea.Cmd) {
	if _, ok := msg.(AnimationTickMsg); !ok || !b.animate {
		return b, nil
	}

	diff := b.target - b.current
	step := max(abs(diff)/10, 0.5)
	switch {
	case diff > 0:
		b.current = min(b.current+step, b.target)
	case diff < 0:
		b.current = max(b.current-step, b.target)
	}

	if b.current == b.target {
		b.animate = false
		return b, nil
	}
	return b, animationTick()
}

// View renders the label, bar and percentage.
func (b ShareBar) View() string {
	label := styles.ProgressLabelStyle.Render(b.label)
	bar := b.progress.ViewAs(b.current / 100)
	pct := styles.ProgressPercentStyle.Render(fmt.Sprintf("%.0f%%", b.current))
	return lipgloss.JoinHorizontal(lipgloss.Center, label, bar, pct)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// RenderGradientBar renders a bar of width cells filled to percent.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := max(min(int(float64(width)*percent/100), width), 0)

	var sb strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#5fafff", "#5fd787", t)
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			sb.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return sb.String()
}

// RenderFlowSplit renders boarding against alighting as one two-colour bar.
func RenderFlowSplit(in, out, width int) string {
	width = max(width, 10)
	total := in + out
	if total <= 0 {
		return lipgloss.NewStyle().Foreground(styles.Subtle).Render(strings.Repeat("░", width))
	}
	inCells := int(float64(in)/float64(total)*float64(width) + 0.5)
	inCells = max(min(inCells, width), 0)

	return lipgloss.NewStyle().Foreground(styles.Boarding).Render(strings.Repeat("█", inCells)) +
		lipgloss.NewStyle().Foreground(styles.Alighting).Render(strings.Repeat("█", width-inCells))
}

// SimpleShareBar renders "label [bar] pct" in a single line.
func SimpleShareBar(percent float64, label string, width int) string {
	percentWidth := 6
	barWidth := max(width-lipgloss.Width(label)-percentWidth-4, 5)

	labelStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label)
	percentStr := styles.ProgressPercentStyle.Render(fmt.Sprintf("%.0f%%", percent))

	return fmt.Sprintf("%s [%s] %s", labelStr, RenderGradientBar(percent, barWidth), percentStr)
}

// LoadingBar renders an indeterminate bar that sweeps with frame.
func LoadingBar(label string, width, frame int) string {
	barWidth := max(width-lipgloss.Width(label)-4, 5)
	pos := frame % barWidth

	var sb strings.Builder
	for i := range barWidth {
		if i >= pos && i < pos+3 {
			sb.WriteString(lipgloss.NewStyle().Foreground(styles.Primary).Render("█"))
		} else {
			sb.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return fmt.Sprintf("%s [%s]", lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label), sb.String())
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
