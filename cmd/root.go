package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/observability"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/store"
	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagDBPath  string
	flagProject string
	flagStatus  string
	flagQuiet   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pburn",
	Short: "Project budget burn tracker",
	Long:  "Track project budgets across currencies: spend, remaining, consumption tiers, and deadlines.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initRuntime()
	},
	RunE: runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Ledger database path (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "Filter to project (substring match)")
	rootCmd.PersistentFlags().StringVar(&flagStatus, "status", "", "Filter to budget status (ok, warning, critical)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

var (
	appConfig config.Config
	logger    = zap.NewNop()
)

// initRuntime loads config and applies locale, theme, and log level.
func initRuntime() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appConfig = cfg

	cli.SetLocale(cfg.General.Locale)
	theme.SetActive(cfg.Appearance.Theme)

	// Warnings only unless --verbose; the daemon uses cfg.Log.Level.
	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	logger = observability.NewLogger(level)
	return nil
}

func dbPath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	return config.DBPath(appConfig)
}

func openLedger() (*store.Ledger, error) {
	l, err := store.Open(dbPath())
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return l, nil
}

func statusFilter() (model.BudgetStatus, error) {
	switch s := model.BudgetStatus(flagStatus); s {
	case "", model.StatusOK, model.StatusWarning, model.StatusCritical:
		return s, nil
	default:
		return "", fmt.Errorf("unknown status %q (want ok, warning, or critical)", flagStatus)
	}
}

// loadReports is the shared data loading path used by the report commands.
func loadReports() ([]model.ProjectReport, error) {
	status, err := statusFilter()
	if err != nil {
		return nil, err
	}

	l, err := openLedger()
	if err != nil {
		return nil, err
	}
	defer l.Close()

	eng := appConfig.Engine()
	eng.Logger = logger

	projects, err := l.ListProjects()
	if err != nil {
		return nil, err
	}
	expenses, err := l.AllExpenses()
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if missing := eng.UnresolvedCurrencies(p.Currency, expenses[p.ID]); len(missing) > 0 {
			logger.Warn("no exchange rate, counting at face value",
				zap.String("project", p.Name),
				zap.String("budget_currency", p.Currency),
				zap.Strings("currencies", missing),
			)
		}
	}

	reports := pipeline.BuildReports(projects, expenses, eng, appConfig.DeadlineThresholds(), time.Now())
	reports = pipeline.FilterByName(reports, flagProject)
	return pipeline.FilterByStatus(reports, status), nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
