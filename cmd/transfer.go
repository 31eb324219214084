package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/ledger"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the ledger with a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write the ledger as a JSON export (stdout when FILE is omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importDryRun bool

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the file without applying it")
	rootCmd.AddCommand(importCmd, exportCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening import: %w", err)
	}
	defer func() { _ = f.Close() }()

	if importDryRun {
		doc, err := ledger.ParseExport(f)
		if err != nil {
			return importFailure(err)
		}
		fmt.Printf("  %s is valid: %d transactions, %d recurring rules, %d budgets, %d goals\n",
			args[0], len(doc.Transactions), len(doc.Rules), len(doc.Budgets), len(doc.Goals))
		return nil
	}

	// The imported document replaces everything, so an on-load pass is wasted work.
	flagNoRegen = true
	return withLedger(func(lg *ledger.Store) error {
		doc, err := lg.Import(f)
		if err != nil {
			return importFailure(err)
		}
		fmt.Printf("  Imported %d transactions, %d recurring rules, %d budgets, %d goals\n",
			len(doc.Transactions), len(doc.Rules), len(doc.Budgets), len(doc.Goals))
		return nil
	})
}

// importFailure lists every rejected entity before returning the error.
func importFailure(err error) error {
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		errs := multi.Unwrap()
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  rejected: %v\n", e)
		}
		return fmt.Errorf("import rejected: %d invalid entities, nothing applied: %w", len(errs), errs[0])
	}
	return err
}

func runExport(_ *cobra.Command, args []string) error {
	return withLedger(func(lg *ledger.Store) error {
		var w io.Writer = os.Stdout
		if len(args) == 1 {
			f, err := os.OpenFile(args[0], os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
			if err != nil {
				return fmt.Errorf("creating export: %w", err)
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		if err := lg.Export(w, time.Now()); err != nil {
			return err
		}
		if len(args) == 1 {
			progressNote("Exported %d transactions to %s", len(lg.Transactions()), args[0])
		}
		return nil
	})
}
