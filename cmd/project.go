package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/currency"
	"github.com/theirongolddev/pburn/internal/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var (
	flagProjectBudget   float64
	flagProjectCurrency string
	flagProjectStart    string
	flagProjectEnd      string
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage budgeted projects",
	RunE:    runProjectList,
}

var projectAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a project with a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectAdd,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectList,
}

var projectRmCmd = &cobra.Command{
	Use:   "rm PROJECT",
	Short: "Delete a project and its expenses",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectRm,
}

func init() {
	projectAddCmd.Flags().Float64Var(&flagProjectBudget, "budget", 0, "Initial budget")
	projectAddCmd.Flags().StringVar(&flagProjectCurrency, "currency", "", "Budget currency (default from config)")
	projectAddCmd.Flags().StringVar(&flagProjectStart, "start", "", "Start date (YYYY-MM-DD)")
	projectAddCmd.Flags().StringVar(&flagProjectEnd, "end", "", "Deadline (YYYY-MM-DD)")
	_ = projectAddCmd.MarkFlagRequired("budget")

	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectRmCmd)
	rootCmd.AddCommand(projectCmd)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return &t, nil
}

func runProjectAdd(_ *cobra.Command, args []string) error {
	code := strings.ToUpper(flagProjectCurrency)
	if code == "" {
		code = appConfig.General.DefaultCurrency
	}
	if !currency.Known(code) {
		logger.Warn("unsupported currency, conversions will fall back to face value", zap.String("currency", code))
	}

	start, err := parseDate(flagProjectStart)
	if err != nil {
		return err
	}
	end, err := parseDate(flagProjectEnd)
	if err != nil {
		return err
	}

	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	p, err := l.CreateProject(model.Project{
		Name:      args[0],
		Budget:    flagProjectBudget,
		Currency:  code,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return err
	}

	fmt.Printf("  Created %s (%s)\n", p.Name, p.ID)
	fmt.Printf("  Budget: %s\n", cli.FormatCurrency(p.Budget, p.Currency))
	if p.EndDate != nil {
		fmt.Printf("  Deadline: %s\n", cli.FormatDate(p.EndDate))
	}
	return nil
}

func runProjectList(_ *cobra.Command, _ []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	projects, err := l.ListProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("\n  No projects yet.")
		fmt.Println("  Create one with: pburn project add NAME --budget 1000")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			truncate(p.Name, 24),
			cli.FormatCurrency(p.Budget, p.Currency),
			cli.FormatDate(p.StartDate),
			cli.FormatDate(p.EndDate),
			cli.Muted(p.ID[:min(8, len(p.ID))]),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "PROJECTS",
		Headers: []string{"Project", "Budget", "Start", "Deadline", "ID"},
		Rows:    rows,
	}))
	return nil
}

func runProjectRm(_ *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	p, err := l.FindProject(args[0])
	if err != nil {
		return err
	}
	if err := l.DeleteProject(p.ID); err != nil {
		return err
	}
	fmt.Printf("  Deleted %s and its expenses\n", p.Name)
	return nil
}
