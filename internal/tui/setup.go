package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/text/language"

	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/currency"
	"github.com/theirongolddev/pburn/internal/tui/theme"
)

// SetupValues holds the answers of the setup form as edited strings.
type SetupValues struct {
	Locale          string
	DefaultCurrency string
	Theme           string
	WarningPercent  string
	CriticalPercent string
	DangerDays      string
	WarningDays     string
}

// NewSetupValues seeds the form from an existing config.
func NewSetupValues(cfg config.Config) SetupValues {
	return SetupValues{
		Locale:          cfg.General.Locale,
		DefaultCurrency: cfg.General.DefaultCurrency,
		Theme:           cfg.Appearance.Theme,
		WarningPercent:  strconv.FormatFloat(cfg.Budget.WarningPercent, 'f', -1, 64),
		CriticalPercent: strconv.FormatFloat(cfg.Budget.CriticalPercent, 'f', -1, 64),
		DangerDays:      strconv.Itoa(cfg.Deadline.DangerDays),
		WarningDays:     strconv.Itoa(cfg.Deadline.WarningDays),
	}
}

// NewSetupForm builds the setup wizard bound to vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	currencyOpts := make([]huh.Option[string], 0, len(currency.All()))
	for _, c := range currency.All() {
		currencyOpts = append(currencyOpts, huh.NewOption(fmt.Sprintf("%s  %s (%s)", c.Code, c.Name, c.Symbol), c.Code))
	}
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to pburn").
				Description("Track project budgets and deadlines.\nThese settings are saved to "+config.Path()),
			huh.NewSelect[string]().
				Title("Default currency").
				Description("Used when a project is created without one.").
				Options(currencyOpts...).
				Value(&vals.DefaultCurrency),
			huh.NewInput().
				Title("Locale").
				Description("Number formatting, e.g. en, fr, de-CH.").
				Value(&vals.Locale).
				Validate(validateLocale),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Warning at % of budget").
				Value(&vals.WarningPercent).
				Validate(validatePercent),
			huh.NewInput().
				Title("Critical at % of budget").
				Value(&vals.CriticalPercent).
				Validate(validatePercent),
			huh.NewInput().
				Title("Deadline danger within N days").
				Value(&vals.DangerDays).
				Validate(validateDays),
			huh.NewInput().
				Title("Deadline warning within N days").
				Value(&vals.WarningDays).
				Validate(validateDays),
		).Title("Alert thresholds"),
	).WithTheme(huh.ThemeCharm())
}

func validateLocale(s string) error {
	if _, err := language.Parse(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("not a language tag")
	}
	return nil
}

func validatePercent(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func validateDays(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return fmt.Errorf("enter a whole number of days")
	}
	return nil
}

// Apply copies the answers into cfg and validates the result. cfg is left
// unchanged on error.
func (v SetupValues) Apply(cfg *config.Config) error {
	next := *cfg
	next.General.Locale = strings.TrimSpace(v.Locale)
	next.General.DefaultCurrency = strings.ToUpper(strings.TrimSpace(v.DefaultCurrency))
	next.Appearance.Theme = v.Theme

	var err error
	if next.Budget.WarningPercent, err = strconv.ParseFloat(strings.TrimSpace(v.WarningPercent), 64); err != nil {
		return fmt.Errorf("warning percent: %w", err)
	}
	if next.Budget.CriticalPercent, err = strconv.ParseFloat(strings.TrimSpace(v.CriticalPercent), 64); err != nil {
		return fmt.Errorf("critical percent: %w", err)
	}
	if next.Deadline.DangerDays, err = strconv.Atoi(strings.TrimSpace(v.DangerDays)); err != nil {
		return fmt.Errorf("danger days: %w", err)
	}
	if next.Deadline.WarningDays, err = strconv.Atoi(strings.TrimSpace(v.WarningDays)); err != nil {
		return fmt.Errorf("warning days: %w", err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}
