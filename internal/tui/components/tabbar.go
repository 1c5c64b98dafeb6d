package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/pburn/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  rune
}

// Tabs defines all available tabs. Every shortcut is the first letter.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o'},
	{Name: "Projects", Key: 'p'},
	{Name: "Deadlines", Key: 'd'},
	{Name: "Currencies", Key: 'c'},
}

// TabVisualWidth is the rendered width of a tab: its name plus one column
// of padding each side. Inactive tabs add brackets around the shortcut.
func TabVisualWidth(tab Tab, active bool) int {
	w := lipgloss.Width(tab.Name) + 2
	if !active {
		w += 2
	}
	return w
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	return lipgloss.NewStyle().Background(theme.Active.Surface).Width(width).Render(renderTabs(activeIdx))
}

func renderTabs(activeIdx int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	dimKeyStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	sep := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(tab.Name))
			continue
		}
		parts = append(parts, inactiveStyle.Render(" ")+
			dimKeyStyle.Render("[")+keyStyle.Render(tab.Name[:1])+dimKeyStyle.Render("]")+
			inactiveStyle.Render(tab.Name[1:]+" "))
	}

	return strings.Join(parts, sep)
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
