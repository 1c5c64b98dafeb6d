// Package cmd implements the pburn CLI commands.
package cmd

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/pburn/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Ledger:      %s\n", dbPath())
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Locale:           %s\n", cfg.General.Locale)
	fmt.Printf("    Default currency: %s\n", cfg.General.DefaultCurrency)
	fmt.Println()

	fmt.Println("  [Budget]")
	fmt.Printf("    Warning at:  %.0f%%\n", cfg.Budget.WarningPercent)
	fmt.Printf("    Critical at: %.0f%%\n", cfg.Budget.CriticalPercent)
	fmt.Println()

	fmt.Println("  [Deadline]")
	fmt.Printf("    Danger within:  %d days\n", cfg.Deadline.DangerDays)
	fmt.Printf("    Warning within: %d days\n", cfg.Deadline.WarningDays)
	fmt.Printf("    Approaching:    %d days\n", cfg.Deadline.ApproachingDays)
	fmt.Println()

	fmt.Println("  [Rates]")
	if len(cfg.Rates.Overrides) == 0 {
		fmt.Println("    No overrides (built-in table)")
	} else {
		froms := make([]string, 0, len(cfg.Rates.Overrides))
		for from := range cfg.Rates.Overrides {
			froms = append(froms, from)
		}
		sort.Strings(froms)
		for _, from := range froms {
			row := cfg.Rates.Overrides[from]
			tos := make([]string, 0, len(row))
			for to := range row {
				tos = append(tos, to)
			}
			sort.Strings(tos)
			for _, to := range tos {
				fmt.Printf("    %s -> %s: %g\n", from, to, row[to])
			}
		}
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Printf("    Events:   %d retained\n", cfg.Daemon.EventsBuffer)
	if cfg.Daemon.InboxDir != "" {
		fmt.Printf("    Inbox:    %s\n", cfg.Daemon.InboxDir)
	}
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Println("  Run `pburn setup` to reconfigure.")
	return nil
}
