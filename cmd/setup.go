package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	// An invalid config file must not lock the user out of fixing it.
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		err := initRuntime()
		if errors.Is(err, config.ErrInvalid) {
			fmt.Printf("  Existing config is invalid (%v); starting from defaults.\n\n", err)
			appConfig = config.DefaultConfig()
			return nil
		}
		return err
	},
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appConfig
	vals := tui.NewSetupValues(cfg)

	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if err := vals.Apply(&cfg); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `pburn setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
