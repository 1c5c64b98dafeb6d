package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagWithin    int
	flagNoOverdue bool
)

var deadlinesCmd = &cobra.Command{
	Use:   "deadlines",
	Short: "Projects with approaching or missed deadlines",
	RunE:  runDeadlines,
}

func init() {
	deadlinesCmd.Flags().IntVarP(&flagWithin, "within", "w", 0, "Window in days (default from config)")
	deadlinesCmd.Flags().BoolVar(&flagNoOverdue, "no-overdue", false, "Hide projects already past their deadline")
	rootCmd.AddCommand(deadlinesCmd)
}

func runDeadlines(_ *cobra.Command, _ []string) error {
	within := flagWithin
	if within <= 0 {
		within = appConfig.Deadline.ApproachingDays
	}

	reports, err := loadReports()
	if err != nil {
		return err
	}
	due := pipeline.Approaching(reports, within, !flagNoOverdue, time.Now())

	if len(due) == 0 {
		fmt.Printf("\n  No deadlines in the next %d days.\n", within)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DEADLINES  Next %dd", within)))
	fmt.Println()

	rows := make([][]string, 0, len(due))
	for _, r := range due {
		rows = append(rows, []string{
			truncate(r.Project.Name, 20),
			cli.FormatDate(r.Project.EndDate),
			strconv.Itoa(*r.Deadline.DaysUntilDeadline),
			cli.SeverityBadge(r.Deadline),
			cli.FormatCurrency(r.Summary.Remaining, r.Summary.BudgetCurrency),
			cli.StatusBadge(r.Summary.Status),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "Deadline", "Days", "Alert", "Remaining", "Budget"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
