package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/pburn/internal/tui/theme"
)

// Bar is one row of a HorizontalBars chart.
type Bar struct {
	Label string
	Value float64
	// Text is shown after the bar, typically the formatted value.
	Text string
}

// HorizontalBars renders one labeled bar per row, scaled to the largest
// value. Labels are truncated to labelW columns.
func HorizontalBars(bars []Bar, labelW, barW int, color lipgloss.Color) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	peak := 0.0
	for _, b := range bars {
		peak = max(peak, b.Value)
	}
	if peak <= 0 {
		peak = 1
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		n := min(max(int(b.Value/peak*float64(barW)), 0), barW)
		if n == 0 && b.Value > 0 {
			n = 1
		}
		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(b.Label, labelW)))+
				spaceStyle.Render(" ")+
				barStyle.Render(strings.Repeat("▇", n))+
				spaceStyle.Render(strings.Repeat(" ", barW-n+1))+
				textStyle.Render(b.Text))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
