package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/model"

	"github.com/spf13/cobra"
)

var flagByCategory bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Budget consumption per project",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().BoolVar(&flagByCategory, "by-category", false, "Break spend down by category")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	reports, err := loadReports()
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		if flagProject != "" || flagStatus != "" {
			fmt.Println("\n  No projects match the current filters.")
			return nil
		}
		fmt.Println("\n  No projects yet.")
		fmt.Println("  Create one with: pburn project add NAME --budget 1000")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGET BURN"))
	fmt.Println()

	rows := make([][]string, 0, len(reports))
	var counts [3]int
	for _, r := range reports {
		s := r.Summary
		switch s.Status {
		case model.StatusCritical:
			counts[2]++
		case model.StatusWarning:
			counts[1]++
		default:
			counts[0]++
		}

		rows = append(rows, []string{
			truncate(r.Project.Name, 20),
			cli.FormatCurrency(s.InitialBudget, s.BudgetCurrency),
			cli.FormatCurrency(s.TotalSpent, s.BudgetCurrency),
			cli.FormatCurrency(s.Remaining, s.BudgetCurrency),
			cli.RenderBudgetBar(s.ConsumptionPercent, s.Status, 12),
			cli.StatusBadge(s.Status),
			deadlineCell(r.Deadline),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "Budget", "Spent", "Remaining", "Consumed", "Status", "Deadline"},
		Rows:    rows,
	}))

	fmt.Printf("  %d projects: %d ok, %d warning, %d critical\n",
		len(reports), counts[0], counts[1], counts[2])

	if flagByCategory {
		for _, r := range reports {
			printCategories(r)
		}
	}
	fmt.Println()
	return nil
}

func deadlineCell(a model.DeadlineAlert) string {
	if a.DaysUntilDeadline == nil {
		return cli.Muted("-")
	}
	return cli.SeverityBadge(a)
}

func printCategories(r model.ProjectReport) {
	if len(r.Categories) == 0 {
		return
	}

	fmt.Println()
	fmt.Printf("  %s\n", strings.ToUpper(r.Project.Name))

	maxAmount := 0.0
	labelW := 0
	for _, c := range r.Categories {
		maxAmount = max(maxAmount, c.Amount)
		labelW = max(labelW, len([]rune(c.Category)))
	}
	labelW = min(labelW, 16)

	for _, c := range r.Categories {
		label := fmt.Sprintf("%-*s %14s", labelW, truncate(c.Category, labelW),
			cli.FormatCurrency(c.Amount, r.Summary.BudgetCurrency))
		fmt.Println(cli.RenderHorizontalBar(label, c.Amount, maxAmount, 30))
	}
}
