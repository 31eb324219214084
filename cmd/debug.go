package cmd

import (
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var (
	flagDebugConfig bool
	flagDebugDepth  int
)

var debugCmd = &cobra.Command{
	Use:    "debug",
	Short:  "Developer diagnostics",
	Hidden: true,
}

var debugDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the loaded ledger document (or config) as Go values",
	RunE:  runDebugDump,
}

func init() {
	debugDumpCmd.Flags().BoolVar(&flagDebugConfig, "config", false, "Dump the effective config instead of the ledger")
	debugDumpCmd.Flags().IntVar(&flagDebugDepth, "depth", 0, "Maximum nesting depth (0 = unlimited)")
	debugCmd.AddCommand(debugDumpCmd)
	rootCmd.AddCommand(debugCmd)
}

func runDebugDump(_ *cobra.Command, _ []string) error {
	cs := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                flagDebugDepth,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	if flagDebugConfig {
		cs.Fdump(os.Stdout, appConfig)
		return nil
	}

	lg, err := openLedger()
	if err != nil {
		return err
	}
	defer lg.Close()
	cs.Fdump(os.Stdout, lg.Document())
	return nil
}
