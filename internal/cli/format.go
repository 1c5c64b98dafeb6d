// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/theirongolddev/pburn/internal/currency"
	"github.com/theirongolddev/pburn/internal/model"
)

var printer atomic.Pointer[message.Printer]

func init() {
	printer.Store(message.NewPrinter(language.English))
}

// SetLocale switches number formatting to the given BCP 47 tag.
// Unparseable tags fall back to English.
func SetLocale(tag string) {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.English
	}
	printer.Store(message.NewPrinter(t))
}

// FormatCurrency renders amount with two decimals, locale grouping and the
// currency symbol after it, e.g. 1460 EUR -> "1,460.00 €". Unknown codes are
// shown as-is.
func FormatCurrency(amount float64, code string) string {
	return printer.Load().Sprintf("%.2f", amount) + " " + currency.Symbol(code)
}

// FormatNumber renders an integer with the active locale's grouping,
// e.g. 1234567 -> "1,234,567" in English and "1.234.567" in German.
func FormatNumber(n int64) string {
	return printer.Load().Sprintf("%d", n)
}

// FormatPercent formats a 0-100 percentage with one decimal.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDate renders an optional date as YYYY-MM-DD, or "-" when unset.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// StatusLabel returns the badge text for a budget status.
func StatusLabel(s model.BudgetStatus) string {
	switch s {
	case model.StatusCritical:
		return "CRITICAL"
	case model.StatusWarning:
		return "WARNING"
	default:
		return "OK"
	}
}

// SeverityLabel returns the badge text for a deadline severity.
func SeverityLabel(s model.Severity) string {
	switch s {
	case model.SeverityDanger:
		return "DANGER"
	case model.SeverityWarning:
		return "SOON"
	default:
		return "INFO"
	}
}
