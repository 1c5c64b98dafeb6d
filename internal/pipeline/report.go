package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/deadline"
	"github.com/theirongolddev/pburn/internal/model"
)

// BuildReports computes one report per project, sorted by consumption
// descending so the most exhausted budgets come first.
func BuildReports(
	projects []model.Project,
	expenses map[string][]model.Expense,
	eng budget.Engine,
	dt deadline.Thresholds,
	now time.Time,
) []model.ProjectReport {
	reports := make([]model.ProjectReport, 0, len(projects))
	for _, p := range projects {
		exps := expenses[p.ID]
		reports = append(reports, model.ProjectReport{
			Project:    p,
			Summary:    eng.Summarize(p.Budget, p.Currency, exps),
			Deadline:   deadline.Evaluate(p.EndDate, now, dt),
			Categories: eng.Breakdown(p.Currency, exps),
		})
	}

	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i].Summary, reports[j].Summary
		if a.ConsumptionPercent != b.ConsumptionPercent {
			return a.ConsumptionPercent > b.ConsumptionPercent
		}
		return reports[i].Project.Name < reports[j].Project.Name
	})
	return reports
}

// Load reads every project and expense from the ledger and builds reports.
func Load(l Ledger, eng budget.Engine, dt deadline.Thresholds, now time.Time) ([]model.ProjectReport, error) {
	projects, err := l.ListProjects()
	if err != nil {
		return nil, err
	}
	expenses, err := l.AllExpenses()
	if err != nil {
		return nil, err
	}
	return BuildReports(projects, expenses, eng, dt, now), nil
}

// FilterByName returns reports whose project name contains substr.
func FilterByName(reports []model.ProjectReport, substr string) []model.ProjectReport {
	if substr == "" {
		return reports
	}
	var out []model.ProjectReport
	for _, r := range reports {
		if containsIgnoreCase(r.Project.Name, substr) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByStatus returns reports whose budget is in the given status.
func FilterByStatus(reports []model.ProjectReport, status model.BudgetStatus) []model.ProjectReport {
	if status == "" {
		return reports
	}
	var out []model.ProjectReport
	for _, r := range reports {
		if r.Summary.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Approaching returns reports whose deadline falls within days, soonest
// first. Overdue projects are included when withOverdue is set.
func Approaching(reports []model.ProjectReport, days int, withOverdue bool, now time.Time) []model.ProjectReport {
	var out []model.ProjectReport
	for _, r := range reports {
		end := r.Project.EndDate
		if deadline.IsApproaching(end, days, now) || (withOverdue && deadline.IsOverdue(end, now)) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Deadline.DaysUntilDeadline < *out[j].Deadline.DaysUntilDeadline
	})
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
