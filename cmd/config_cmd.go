package cmd

import (
	"fmt"

	"github.com/theirongolddev/fintrack/internal/config"
	"github.com/theirongolddev/fintrack/internal/ledger"

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

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", dataDir())
	fmt.Printf("    Ledger:         %s\n", ledger.DocumentPath(dataDir()))
	fmt.Printf("    Currency:       %s\n", cfg.General.Currency)
	fmt.Printf("    Week starts:    %s\n", cfg.General.WeekStart)
	fmt.Println()

	fmt.Println("  [Budget]")
	fmt.Printf("    Warn at: %g%%\n", cfg.Budget.WarnPercent)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval:      %s\n", cfg.Daemon.Interval)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	if cfg.Daemon.LogFile != "" {
		fmt.Printf("    Log file:      %s\n", cfg.Daemon.LogFile)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level:  %s\n", cfg.Logging.Level)
	fmt.Printf("    Format: %s\n", cfg.Logging.Format)
	fmt.Println()

	fmt.Printf("  SQL mirror: %s\n", ledger.MirrorPath())
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Printf("  %v\n\n", err)
	}

	fmt.Println("  Run `fintrack setup` to reconfigure.")
	return nil
}
