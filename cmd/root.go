// Package cmd implements the fintrack CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/config"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/logging"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/recurrence"
	"github.com/theirongolddev/fintrack/internal/store"
)

var (
	flagDataDir  string
	flagMonth    string
	flagCategory string
	flagQuiet    bool
	flagNoRegen  bool
)

// Loaded once per invocation in PersistentPreRunE.
var (
	appConfig config.Config
	logger    *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "fintrack",
	Short:         "Personal finance tracker",
	Long:          "Track income and expenses, budgets, savings goals and recurring transactions.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSummary,

	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initRuntime()
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  %s\n", describeError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Ledger directory (default $FINTRACK_DATA_DIR or ~/.local/share/fintrack)")
	rootCmd.PersistentFlags().StringVarP(&flagMonth, "month", "m", "", "Report month as YYYY-MM (default current month)")
	rootCmd.PersistentFlags().StringVarP(&flagCategory, "category", "c", "", "Filter to category (substring match)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagNoRegen, "no-regen", false, "Skip the recurring regeneration pass on load")
}

func initRuntime() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appConfig = cfg
	cli.Currency = cfg.General.Currency

	level := cfg.Logging.Level
	if flagQuiet {
		level = "warn"
	}
	logger, err = logging.New(level, cfg.Logging.Format, os.Stderr)
	return err
}

// dataDir resolves the ledger directory: flag, then config/env, then default.
func dataDir() string {
	switch {
	case flagDataDir != "":
		return flagDataDir
	case appConfig.General.DataDir != "":
		return appConfig.General.DataDir
	default:
		return ledger.DataDir()
	}
}

func openLedger() (*ledger.Store, error) {
	return ledger.Open(ledger.DocumentPath(dataDir()), ledger.Options{
		Logger:     logger,
		Regenerate: !flagNoRegen,
	})
}

// withLedger opens the ledger, runs fn and saves if anything changed,
// including transactions materialized by the on-load regeneration pass.
func withLedger(fn func(lg *ledger.Store) error) error {
	lg, err := openLedger()
	if err != nil {
		return err
	}
	defer lg.Close()

	if err := fn(lg); err != nil {
		return err
	}
	return persist(lg)
}

func persist(lg *ledger.Store) error {
	if !lg.Dirty() {
		return nil
	}
	if err := lg.Save(); err != nil {
		return err
	}
	syncMirror(lg, nil)
	return nil
}

// syncMirror refreshes the SQLite mirror and optionally records a run. The
// mirror is a derived copy, so failures are logged and never fail the command.
func syncMirror(lg *ledger.Store, run *store.Run) {
	log := logging.Component(logger, "mirror")
	m, err := store.Open(ledger.MirrorPath())
	if err != nil {
		log.WithError(err).Debug("mirror unavailable")
		return
	}
	defer func() { _ = m.Close() }()

	if err := m.SyncTransactions(lg.Transactions()); err != nil {
		log.WithError(err).Warn("mirror sync failed")
	}
	if run != nil {
		if err := m.RecordRun(*run); err != nil {
			log.WithError(err).Warn("recording run failed")
		}
	}
}

// reportMonth returns the first day of the --month flag, or of today.
func reportMonth(today calendar.Date) (calendar.Date, error) {
	if flagMonth == "" {
		return today.StartOfMonth(), nil
	}
	d, err := calendar.Parse(flagMonth + "-01")
	if err != nil {
		return calendar.Date{}, fmt.Errorf("--month %q: want YYYY-MM", flagMonth)
	}
	return d, nil
}

// parseDateFlag parses an optional date flag, defaulting to today.
func parseDateFlag(name, value string, today calendar.Date) (calendar.Date, error) {
	if value == "" {
		return today, nil
	}
	d, err := calendar.Parse(value)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

var validationErrors = []error{
	model.ErrInvalidAmount,
	model.ErrMissingCategory,
	model.ErrInvalidType,
	model.ErrInvalidFrequency,
	model.ErrMissingDate,
	model.ErrInvalidDateRange,
	model.ErrInvalidTarget,
	recurrence.ErrInvalidCount,
}

// describeError prefixes rejected input so it reads differently from I/O failures.
func describeError(err error) string {
	var importErr *ledger.ImportError
	if errors.As(err, &importErr) {
		return "rejected: " + err.Error()
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return "rejected: " + err.Error()
		}
	}
	if errors.Is(err, ledger.ErrNotFound) {
		return err.Error()
	}
	return "Error: " + err.Error()
}

func progressNote(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}

func elapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
