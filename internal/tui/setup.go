package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/config"
	"github.com/theirongolddev/fintrack/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the answers of the first-run form.
type setupValues struct {
	currency  string
	warn      string
	theme     string
	weekStart string
	dataDir   string
	base      config.Config
}

func defaultSetupValues(cfg config.Config) *setupValues {
	return &setupValues{
		currency:  cfg.General.Currency,
		warn:      strconv.FormatFloat(cfg.Budget.WarnPercent, 'f', -1, 64),
		theme:     cfg.Appearance.Theme,
		weekStart: cfg.General.WeekStart,
		dataDir:   cfg.General.DataDir,
		base:      cfg,
	}
}

func validateWarn(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || v > 1000 {
		return errors.New("enter a percentage between 1 and 1000")
	}
	return nil
}

func newSetupForm(txCount int, vals *setupValues) *huh.Form {
	welcome := "Let's get you set up."
	if txCount > 0 {
		welcome = fmt.Sprintf("Found %s transactions in your ledger.", cli.FormatNumber(int64(txCount)))
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fintrack").
				Description(welcome+"\n\nThese answers are saved to "+config.ConfigPath()+"\nand can be changed later in the Settings tab."),
			huh.NewInput().
				Title("Currency symbol").
				Description("Shown in front of every amount.").
				CharLimit(4).
				Value(&vals.currency),
			huh.NewInput().
				Title("Budget warning threshold (%)").
				Description("Budgets at or above this share of their limit are flagged.").
				Validate(validateWarn).
				Value(&vals.warn),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
			huh.NewSelect[string]().
				Title("Weeks start on").
				Options(huh.NewOption("Monday", "monday"), huh.NewOption("Sunday", "sunday")).
				Value(&vals.weekStart),
			huh.NewInput().
				Title("Data directory").
				Description("Leave empty for the default location.").
				Value(&vals.dataDir),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)
}

// config merges the answers into the config they started from.
func (v *setupValues) config() (config.Config, error) {
	cfg := v.base
	cfg.General.Currency = strings.TrimSpace(v.currency)
	if cfg.General.Currency == "" {
		cfg.General.Currency = config.DefaultConfig().General.Currency
	}
	warn, err := strconv.ParseFloat(strings.TrimSpace(v.warn), 64)
	if err != nil {
		return cfg, fmt.Errorf("warning threshold %q: %w", v.warn, err)
	}
	cfg.Budget.WarnPercent = warn
	cfg.Appearance.Theme = v.theme
	cfg.General.WeekStart = v.weekStart
	cfg.General.DataDir = strings.TrimSpace(v.dataDir)
	return cfg, cfg.Validate()
}

func (a *App) saveSetupConfig() error {
	cfg, err := a.setupVals.config()
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	a.applyConfig(cfg)
	return nil
}

// applyConfig makes cfg the live configuration of the dashboard.
func (a *App) applyConfig(cfg config.Config) {
	a.cfg = cfg
	cli.Currency = cfg.General.Currency
	theme.SetActive(cfg.Appearance.Theme)
}

// RunSetup runs the setup form outside the dashboard and saves the result.
// txCount is only used for the greeting.
func RunSetup(cfg config.Config, txCount int) (config.Config, error) {
	vals := defaultSetupValues(cfg)
	if err := newSetupForm(txCount, vals).Run(); err != nil {
		return cfg, err
	}
	out, err := vals.config()
	if err != nil {
		return cfg, err
	}
	if err := config.Save(out); err != nil {
		return cfg, err
	}
	return out, nil
}
