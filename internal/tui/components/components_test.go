package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, tc := range []struct{ total, n int }{{100, 3}, {81, 4}, {7, 7}, {10, 1}} {
		widths := LayoutRow(tc.total, tc.n)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tc.total || len(widths) != tc.n {
			t.Errorf("LayoutRow(%d, %d) = %v", tc.total, tc.n, widths)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowPadsToTallest(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22, false)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22, true)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i, line := range lines[shortLines:] {
		if !strings.Contains(line, "\x1b[") {
			t.Errorf("padding line %d has no styling", shortLines+i)
		}
	}
	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if lipgloss.Width(line) != want {
			t.Errorf("line %d width %d, want %d", i, lipgloss.Width(line), want)
		}
	}
}

func TestBudgetBarShowsUnclampedPercent(t *testing.T) {
	out := BudgetBar(146, model.StatusCritical, 20)
	if !strings.Contains(out, "146.0%") {
		t.Fatalf("BudgetBar = %q, want unclamped label", out)
	}
	if !strings.Contains(BudgetBar(-5, model.StatusOK, 20), "-5.0%") {
		t.Fatal("negative percent label lost")
	}
}

func TestTabBarWidths(t *testing.T) {
	for active := range Tabs {
		total := 0
		for i, tab := range Tabs {
			total += TabVisualWidth(tab, i == active)
		}
		total += len(Tabs) - 1
		if got := lipgloss.Width(renderTabs(active)); got != total {
			t.Errorf("active=%d: rendered width %d, want %d", active, got, total)
		}
	}
	if TabIdxByKey('d') != 2 || TabIdxByKey('z') != -1 {
		t.Error("TabIdxByKey mismatch")
	}
}

func TestHorizontalBars(t *testing.T) {
	out := HorizontalBars([]Bar{
		{Label: "hosting", Value: 100, Text: "100"},
		{Label: "a-very-long-category-name", Value: 1, Text: "1"},
	}, 10, 20, theme.Active.Accent)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	if strings.Count(lines[0], "▇") != 20 || strings.Count(lines[1], "▇") != 1 {
		t.Fatalf("bar lengths wrong:\n%s", out)
	}
	if !strings.Contains(lines[1], "a-very-lo…") {
		t.Fatalf("label not truncated: %q", lines[1])
	}
}
