package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/logging"
	"github.com/theirongolddev/fintrack/internal/tui"
	"github.com/theirongolddev/fintrack/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appConfig.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	var month calendar.Date
	if flagMonth != "" {
		m, err := reportMonth(calendar.Today(nil))
		if err != nil {
			return err
		}
		month = m
	}

	tuiLog, closeLog := tuiLogger()
	defer closeLog()

	app := tui.NewApp(tui.Options{
		Path:   ledger.DocumentPath(dataDir()),
		Config: appConfig,
		Logger: tuiLog,
		Month:  month,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// tuiLogger sends logs to a file in the cache dir, since anything written to
// stderr would tear the alternate screen.
func tuiLogger() (*logrus.Logger, func()) {
	path := filepath.Join(ledger.CacheDir(), "fintrack-tui.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return logging.Discard(), func() {}
	}
	//nolint:gosec // log path is under the user's cache dir
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return logging.Discard(), func() {}
	}
	l, err := logging.New(appConfig.Logging.Level, logging.FormatJSON, f)
	if err != nil {
		_ = f.Close()
		return logging.Discard(), func() {}
	}
	return l, func() { _ = f.Close() }
}
