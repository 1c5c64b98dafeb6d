package cli

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/pburn/internal/model"
)

func TestFormatCurrency(t *testing.T) {
	SetLocale("en")
	tests := []struct {
		amount float64
		code   string
		want   string
	}{
		{1460, "EUR", "1,460.00 €"},
		{540, "EUR", "540.00 €"},
		{-460, "EUR", "-460.00 €"},
		{0.5, "USD", "0.50 $"},
		{1234567.891, "GBP", "1,234,567.89 £"},
		{12, "ZZZ", "12.00 ZZZ"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.amount, tt.code); got != tt.want {
			t.Errorf("FormatCurrency(%v, %q) = %q, want %q", tt.amount, tt.code, got, tt.want)
		}
	}
}

func TestSetLocale(t *testing.T) {
	t.Cleanup(func() { SetLocale("en") })

	SetLocale("de")
	if got := FormatCurrency(1460, "EUR"); !strings.HasSuffix(got, ",00 €") {
		t.Fatalf("de FormatCurrency = %q, want decimal comma", got)
	}

	SetLocale("not a locale!")
	if got := FormatCurrency(1460, "EUR"); got != "1,460.00 €" {
		t.Fatalf("fallback FormatCurrency = %q, want English formatting", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
		{math.MinInt64, "-9,223,372,036,854,775,808"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumberFollowsLocale(t *testing.T) {
	t.Cleanup(func() { SetLocale("en") })

	SetLocale("de")
	if got := FormatNumber(1460); got != "1.460" {
		t.Fatalf("de FormatNumber(1460) = %q, want 1.460", got)
	}
	if got := FormatCurrency(1460, "EUR"); got != "1.460,00 €" {
		t.Fatalf("de FormatCurrency(1460) = %q, want 1.460,00 €", got)
	}
}

func TestFormatPercentAndDate(t *testing.T) {
	if got := FormatPercent(73); got != "73.0%" {
		t.Errorf("FormatPercent(73) = %q", got)
	}
	if got := FormatDate(nil); got != "-" {
		t.Errorf("FormatDate(nil) = %q", got)
	}
	d := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(&d); got != "2025-04-01" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestStatusAndSeverityColors(t *testing.T) {
	statuses := map[model.BudgetStatus]lipgloss.Color{
		model.StatusOK:       ColorGreen,
		model.StatusWarning:  ColorOrange,
		model.StatusCritical: ColorRed,
	}
	for s, want := range statuses {
		if got := StatusColor(s); got != want {
			t.Errorf("StatusColor(%q) = %q, want %q", s, got, want)
		}
	}

	severities := map[model.Severity]lipgloss.Color{
		model.SeverityInfo:    ColorBlue,
		model.SeverityWarning: ColorOrange,
		model.SeverityDanger:  ColorRed,
	}
	for s, want := range severities {
		if got := SeverityColor(s); got != want {
			t.Errorf("SeverityColor(%q) = %q, want %q", s, got, want)
		}
	}

	if StatusLabel(model.StatusWarning) != "WARNING" || SeverityLabel(model.SeverityWarning) != "SOON" {
		t.Error("unexpected labels")
	}
}

func TestRenderBudgetBarClamps(t *testing.T) {
	over := RenderBudgetBar(146, model.StatusCritical, 10)
	if strings.Count(over, "█") != 10 || strings.Contains(over, "░") {
		t.Fatalf("overrun bar should be full: %q", over)
	}
	if !strings.Contains(over, "146.0%") {
		t.Fatalf("overrun bar should show the real percentage: %q", over)
	}

	half := RenderBudgetBar(50, model.StatusOK, 10)
	if strings.Count(half, "█") != 5 || strings.Count(half, "░") != 5 {
		t.Fatalf("half bar = %q", half)
	}
}

func TestRenderTableAlignsWideCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Project", "Spent"},
		Rows: [][]string{
			{"website", "1,460.00 €"},
			{"app", "12.00 $"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	want := lipgloss.Width(lines[0])
	for i, l := range lines {
		if w := lipgloss.Width(l); w != want {
			t.Fatalf("line %d width %d, want %d:\n%s", i, w, want, out)
		}
	}
}
