package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/pburn/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, dataAge string, refreshing, autoRefresh bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " [?]help  [r]efresh  [q]uit"
	right := ""
	switch {
	case refreshing:
		right = "refreshing… "
	case dataAge != "":
		right = "loaded " + dataAge + " "
	}
	if autoRefresh {
		right = "auto · " + right
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	bar := left + lipgloss.NewStyle().Width(padding).Render("") + right

	return style.Render(bar)
}
