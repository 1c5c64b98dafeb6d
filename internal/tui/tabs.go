package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/currency"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/tui/components"
	"github.com/theirongolddev/pburn/internal/tui/theme"
)

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabProjects
	tabDeadlines
	tabCurrencies
)

func surface(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Background(theme.Active.Surface)
}

// ─── Overview ───────────────────────────────────────────────────

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active

	var ok, warn, crit, overdue int
	for _, r := range a.reports {
		switch r.Summary.Status {
		case model.StatusCritical:
			crit++
		case model.StatusWarning:
			warn++
		default:
			ok++
		}
		if r.Deadline.Overdue {
			overdue++
		}
	}

	cards := components.MetricCardRow([]components.Metric{
		{Label: "Projects", Value: fmt.Sprintf("%d", len(a.reports)), Sub: fmt.Sprintf("%d on track", ok)},
		{Label: "Warning", Value: fmt.Sprintf("%d", warn), Color: t.Orange,
			Sub: fmt.Sprintf(">= %.0f%% consumed", a.cfg.Budget.WarningPercent)},
		{Label: "Critical", Value: fmt.Sprintf("%d", crit), Color: t.Red,
			Sub: fmt.Sprintf(">= %.0f%% consumed", a.cfg.Budget.CriticalPercent)},
		{Label: "Overdue", Value: fmt.Sprintf("%d", overdue), Color: t.Red, Sub: "past end date"},
	}, cw)

	nameW := 24
	barW := max(cw-nameW-40, 10)
	var b strings.Builder
	for i, r := range a.reports {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(surface(t.TextPrimary).Render(fmt.Sprintf("%-*s ", nameW, truncStr(r.Project.Name, nameW))))
		b.WriteString(components.BudgetBar(r.Summary.ConsumptionPercent, r.Summary.Status, barW))
		b.WriteString(surface(t.TextMuted).Render("  "))
		b.WriteString(surface(t.Severity(r.Deadline.Severity)).Render(r.Deadline.Message))
	}
	list := components.ContentCard("Budget consumption", b.String(), cw, false)

	return cards + "\n" + list
}

// ─── Projects ───────────────────────────────────────────────────

func (a App) renderProjectsTab(cw, h int) string {
	if len(a.reports) == 0 {
		return components.ContentCard("Projects", surface(theme.Active.TextMuted).Render("No project matches the current filter."), cw, false)
	}

	listW := cw * 2 / 5
	detailW := cw - listW
	return components.CardRow([]string{
		a.renderProjectList(listW, h),
		a.renderProjectDetail(a.reports[a.cursor], detailW),
	})
}

func (a App) renderProjectList(w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	visible := max(h-3, 1)

	offset := 0
	if a.cursor >= visible {
		offset = a.cursor - visible + 1
	}

	var lines []string
	for i := offset; i < len(a.reports) && i < offset+visible; i++ {
		r := a.reports[i]
		badge := cli.StatusLabel(r.Summary.Status)
		nameW := max(inner-lipgloss.Width(badge)-2, 4)

		bg := t.Surface
		if i == a.cursor {
			bg = t.SurfaceHover
		}
		name := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(bg).
			Render(fmt.Sprintf("%-*s", nameW, truncStr(r.Project.Name, nameW)))
		tag := lipgloss.NewStyle().Foreground(t.Status(r.Summary.Status)).Background(bg).Bold(true).
			Render(" " + badge + " ")
		lines = append(lines, name+tag)
	}
	return components.ContentCard(fmt.Sprintf("Projects (%d)", len(a.reports)), strings.Join(lines, "\n"), w, true)
}

func (a App) renderProjectDetail(r model.ProjectReport, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	s := r.Summary
	cur := s.BudgetCurrency

	label := surface(t.TextMuted)
	value := surface(t.TextPrimary)
	row := func(k, v string) string {
		return label.Render(fmt.Sprintf("%-12s", k)) + value.Render(v)
	}

	remaining := cli.FormatCurrency(s.Remaining, cur)
	if s.Overrun() {
		remaining = surface(t.Red).Render(remaining)
	} else {
		remaining = value.Render(remaining)
	}

	var b strings.Builder
	b.WriteString(components.BudgetBar(s.ConsumptionPercent, s.Status, max(inner-8, 10)))
	b.WriteString("\n\n")
	b.WriteString(row("Budget", cli.FormatCurrency(s.InitialBudget, cur)) + "\n")
	b.WriteString(row("Spent", cli.FormatCurrency(s.TotalSpent, cur)) + "\n")
	b.WriteString(label.Render(fmt.Sprintf("%-12s", "Remaining")) + remaining + "\n")
	b.WriteString(row("Expenses", fmt.Sprintf("%d", s.ExpenseCount)) + "\n")
	b.WriteString(row("Period", cli.FormatDate(r.Project.StartDate)+" → "+cli.FormatDate(r.Project.EndDate)) + "\n")
	b.WriteString(label.Render(fmt.Sprintf("%-12s", "Deadline")) +
		surface(t.Severity(r.Deadline.Severity)).Bold(true).Render(r.Deadline.Message))

	if len(r.Categories) > 0 {
		bars := make([]components.Bar, 0, len(r.Categories))
		for _, c := range r.Categories {
			bars = append(bars, components.Bar{
				Label: c.Category,
				Value: c.Amount,
				Text:  cli.FormatCurrency(c.Amount, cur),
			})
		}
		b.WriteString("\n\n")
		b.WriteString(label.Bold(true).Render("By category"))
		b.WriteString("\n")
		b.WriteString(components.HorizontalBars(bars, 14, max(inner-34, 6), t.Accent))
	}

	return components.ContentCard(r.Project.Name, b.String(), w, false)
}

// ─── Deadlines ──────────────────────────────────────────────────

func (a App) renderDeadlinesTab(cw int) string {
	t := theme.Active
	days := a.cfg.Deadline.ApproachingDays
	due := pipeline.Approaching(a.reports, days, true, a.opts.Now())

	title := fmt.Sprintf("Due within %d days or overdue", days)
	if len(due) == 0 {
		return components.ContentCard(title, surface(t.TextMuted).Render("Nothing due."), cw, false)
	}

	nameW := min(30, cw/3)
	var lines []string
	for _, r := range due {
		lines = append(lines,
			surface(t.TextPrimary).Render(fmt.Sprintf("%-*s ", nameW, truncStr(r.Project.Name, nameW)))+
				surface(t.TextMuted).Render(cli.FormatDate(r.Project.EndDate)+"  ")+
				surface(t.Severity(r.Deadline.Severity)).Bold(true).Render(fmt.Sprintf("%-16s", r.Deadline.Message))+
				surface(t.Status(r.Summary.Status)).Render(cli.FormatPercent(r.Summary.ConsumptionPercent)+" spent"))
	}

	legend := surface(t.TextDim).Render(fmt.Sprintf(
		"danger ≤ %d days · warning ≤ %d days", a.cfg.Deadline.DangerDays, a.cfg.Deadline.WarningDays))
	return components.ContentCard(title, strings.Join(lines, "\n")+"\n\n"+legend, cw, false)
}

// ─── Currencies ─────────────────────────────────────────────────

func (a App) renderCurrenciesTab(cw int) string {
	t := theme.Active
	rates := a.cfg.RateTable()
	base := a.cfg.General.DefaultCurrency

	var lines []string
	lines = append(lines, surface(t.TextMuted).Bold(true).Render(
		fmt.Sprintf("%-5s %-26s %-6s %s", "Code", "Name", "Symbol", "1 unit in "+base)))
	for _, c := range currency.All() {
		rate := cli.FormatCurrency(rates.Resolve(c.Code, base), base)
		rateStyle := surface(t.TextPrimary)
		if !rates.Has(c.Code, base) {
			rate += " (no rate)"
			rateStyle = surface(t.Orange)
		}
		lines = append(lines,
			surface(t.Accent).Render(fmt.Sprintf("%-5s ", c.Code))+
				surface(t.TextPrimary).Render(fmt.Sprintf("%-26s %-6s ", c.Name, c.Symbol))+
				rateStyle.Render(rate))
	}

	note := surface(t.TextDim).Render("Pairs without a direct or reciprocal rate convert 1:1.")
	return components.ContentCard(fmt.Sprintf("Currencies (%d rate pairs)", rates.Pairs()),
		strings.Join(lines, "\n")+"\n\n"+note, cw, false)
}
