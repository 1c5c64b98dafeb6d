package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/source"

	"github.com/spf13/cobra"
)

var (
	flagExpenseProject   string
	flagExpenseAmount    float64
	flagExpenseCurrency  string
	flagExpenseRate      float64
	flagExpenseConverted float64
	flagExpenseCategory  string
	flagExpenseDesc      string
	flagExpenseDate      string
)

var expenseCmd = &cobra.Command{
	Use:     "expense",
	Aliases: []string{"expenses"},
	Short:   "Record and inspect project expenses",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense against a project",
	RunE:  runExpenseAdd,
}

var expenseListCmd = &cobra.Command{
	Use:   "list PROJECT",
	Short: "List a project's expenses",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseList,
}

var expenseRmCmd = &cobra.Command{
	Use:   "rm EXPENSE_ID",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseRm,
}

var expenseImportCmd = &cobra.Command{
	Use:   "import PATH...",
	Short: "Import expenses from JSONL exports (files or directories)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExpenseImport,
}

func init() {
	f := expenseAddCmd.Flags()
	f.StringVar(&flagExpenseProject, "project", "", "Project name or ID")
	f.Float64Var(&flagExpenseAmount, "amount", 0, "Amount in the expense currency")
	f.StringVar(&flagExpenseCurrency, "currency", "", "Expense currency (default: project currency)")
	f.Float64Var(&flagExpenseRate, "rate", 0, "Conversion rate captured at purchase time")
	f.Float64Var(&flagExpenseConverted, "converted", 0, "Amount already expressed in the budget currency")
	f.StringVar(&flagExpenseCategory, "category", "", "Expense category")
	f.StringVar(&flagExpenseDesc, "desc", "", "Description")
	f.StringVar(&flagExpenseDate, "date", "", "Recorded date (YYYY-MM-DD, default today)")
	_ = expenseAddCmd.MarkFlagRequired("project")
	_ = expenseAddCmd.MarkFlagRequired("amount")

	expenseCmd.AddCommand(expenseAddCmd, expenseListCmd, expenseRmCmd, expenseImportCmd)
	rootCmd.AddCommand(expenseCmd)
}

func runExpenseAdd(cmd *cobra.Command, _ []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	p, err := l.FindProject(flagExpenseProject)
	if err != nil {
		return err
	}

	e := model.Expense{
		ProjectID:   p.ID,
		Amount:      flagExpenseAmount,
		Currency:    strings.ToUpper(flagExpenseCurrency),
		Category:    flagExpenseCategory,
		Description: flagExpenseDesc,
	}
	if e.Currency == "" {
		e.Currency = p.Currency
	}
	if cmd.Flags().Changed("rate") {
		rate := flagExpenseRate
		e.ConversionRate = &rate
	}
	if cmd.Flags().Changed("converted") {
		converted := flagExpenseConverted
		e.ConvertedAmount = &converted
	}
	if flagExpenseDate != "" {
		d, err := parseDate(flagExpenseDate)
		if err != nil {
			return err
		}
		e.RecordedAt = d.UTC()
	}

	e, err = l.AddExpense(e)
	if err != nil {
		return err
	}

	fmt.Printf("  Recorded %s on %s (%s)\n", cli.FormatCurrency(e.Amount, e.Currency), p.Name, e.ID)
	if e.Currency != p.Currency {
		if missing := appConfig.Engine().UnresolvedCurrencies(p.Currency, []model.Expense{e}); len(missing) > 0 {
			fmt.Printf("  %s\n", cli.Muted(fmt.Sprintf("No %s->%s rate known; counted at face value.", e.Currency, p.Currency)))
		}
	}
	return nil
}

func runExpenseList(_ *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	p, err := l.FindProject(args[0])
	if err != nil {
		return err
	}
	expenses, err := l.ListExpenses(p.ID)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Printf("\n  No expenses recorded for %s.\n", p.Name)
		return nil
	}

	rates := appConfig.RateTable()
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		recorded := e.RecordedAt.Local()
		inBudget := budget.Normalize(e, p.Currency, rates)
		rows = append(rows, []string{
			cli.FormatDate(&recorded),
			cli.FormatCurrency(e.Amount, e.Currency),
			cli.FormatCurrency(inBudget, p.Currency),
			truncate(e.Category, 14),
			truncate(e.Description, 28),
			cli.Muted(e.ID[:min(8, len(e.ID))]),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   strings.ToUpper(p.Name) + "  EXPENSES",
		Headers: []string{"Date", "Amount", "In " + p.Currency, "Category", "Description", "ID"},
		Rows:    rows,
	}))
	return nil
}

func runExpenseRm(_ *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.DeleteExpense(args[0]); err != nil {
		return err
	}
	fmt.Printf("  Deleted expense %s\n", args[0])
	return nil
}

func runExpenseImport(_ *cobra.Command, args []string) error {
	files, err := collectExportFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no .jsonl export files found")
	}

	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 24))
	}

	start := time.Now()
	res, err := pipeline.Import(l, files, progressFn, logger)
	if !flagQuiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	fmt.Printf("  Imported %s expenses from %d files in %s\n",
		cli.FormatNumber(int64(res.Imported)), res.ParsedFiles, time.Since(start).Round(time.Millisecond))
	if res.Duplicates > 0 {
		fmt.Printf("  Skipped %s already recorded\n", cli.FormatNumber(int64(res.Duplicates)))
	}
	if res.Rejected > 0 || res.ParseErrors > 0 || res.FileErrors > 0 {
		fmt.Printf("  %s\n", cli.Muted(fmt.Sprintf("%d rejected, %d unparseable lines, %d unreadable files",
			res.Rejected, res.ParseErrors, res.FileErrors)))
	}
	if len(res.UnknownProjects) > 0 {
		fmt.Printf("  Unknown projects: %s\n", strings.Join(res.UnknownProjects, ", "))
	}
	return nil
}

// collectExportFiles expands directories into their export files and keeps
// plain file arguments as-is.
func collectExportFiles(paths []string) ([]source.DiscoveredFile, error) {
	var files []source.DiscoveredFile
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, source.DiscoveredFile{Path: p})
			continue
		}
		found, err := source.ScanDir(p)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
		files = append(files, found...)
	}
	return files, nil
}
