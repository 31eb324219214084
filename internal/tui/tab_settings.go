package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/config"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldCurrency
	settingsFieldWarn
	settingsFieldWeekStart
	settingsFieldInterval
	settingsFieldAddr
	settingsFieldLogLevel
	settingsFieldCount // sentinel
)

var settingsLabels = [settingsFieldCount]string{
	"Theme", "Currency", "Budget warning", "Week starts", "Daemon interval", "Daemon address", "Log level",
}

var logLevels = []string{"debug", "info", "warn", "error"}

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

// cycles reports whether a field toggles through fixed values instead of
// taking text input.
func cycles(field int) bool {
	switch field {
	case settingsFieldTheme, settingsFieldWeekStart, settingsFieldLogLevel:
		return true
	}
	return false
}

func settingValue(cfg config.Config, field int) string {
	switch field {
	case settingsFieldTheme:
		return cfg.Appearance.Theme
	case settingsFieldCurrency:
		return cfg.General.Currency
	case settingsFieldWarn:
		return strconv.FormatFloat(cfg.Budget.WarnPercent, 'f', -1, 64)
	case settingsFieldWeekStart:
		return cfg.General.WeekStart
	case settingsFieldInterval:
		return cfg.Daemon.Interval
	case settingsFieldAddr:
		return cfg.Daemon.Addr
	case settingsFieldLogLevel:
		return cfg.Logging.Level
	}
	return ""
}

// withSetting returns cfg with field set to val.
func withSetting(cfg config.Config, field int, val string) (config.Config, error) {
	switch field {
	case settingsFieldTheme:
		cfg.Appearance.Theme = val
	case settingsFieldCurrency:
		cfg.General.Currency = val
	case settingsFieldWarn:
		pct, err := strconv.ParseFloat(strings.TrimSuffix(val, "%"), 64)
		if err != nil {
			return cfg, fmt.Errorf("budget warning %q: not a number", val)
		}
		cfg.Budget.WarnPercent = pct
	case settingsFieldWeekStart:
		cfg.General.WeekStart = val
	case settingsFieldInterval:
		cfg.Daemon.Interval = val
	case settingsFieldAddr:
		cfg.Daemon.Addr = val
	case settingsFieldLogLevel:
		cfg.Logging.Level = val
	}
	return cfg, cfg.Validate()
}

func nextValue(cfg config.Config, field int) string {
	cur := settingValue(cfg, field)
	switch field {
	case settingsFieldTheme:
		return theme.Next(cur)
	case settingsFieldWeekStart:
		if cur == "monday" {
			return "sunday"
		}
		return "monday"
	case settingsFieldLogLevel:
		i := slices.Index(logLevels, cur)
		return logLevels[(i+1)%len(logLevels)]
	}
	return cur
}

func (a App) updateSettingsKey(key string) (App, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
	case "k", "up":
		a.settings.cursor = max(a.settings.cursor-1, 0)
	case "enter":
		if cycles(a.settings.cursor) {
			a.commitSetting(nextValue(a.cfg, a.settings.cursor))
			return a, nil, true
		}
		a.settings.editing = true
		a.settings.saved = false
		ti := textinput.New()
		ti.CharLimit = 64
		ti.Width = 30
		ti.SetValue(settingValue(a.cfg, a.settings.cursor))
		ti.Focus()
		a.settings.input = ti
		return a, textinput.Blink, true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.commitSetting(strings.TrimSpace(a.settings.input.Value()))
		a.settings.editing = false
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}
	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// commitSetting validates, saves and applies one changed field. An invalid
// value leaves the live config untouched.
func (a *App) commitSetting(val string) {
	cfg, err := withSetting(a.cfg, a.settings.cursor, val)
	if err == nil {
		err = config.Save(cfg)
	}
	a.settings.saveErr = err
	a.settings.saved = err == nil
	if err != nil {
		return
	}
	a.applyConfig(cfg)
	a.recompute()
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	innerW := components.CardInnerWidth(cw)

	var form strings.Builder
	for i := range settingsFieldCount {
		label := fmt.Sprintf("%-18s ", settingsLabels[i]+":")
		value := settingValue(a.cfg, i)
		if i == settingsFieldWarn {
			value += "%"
		}
		if cycles(i) {
			value += "  ⟳"
		}

		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(selectedLabelStyle.Render(label))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			row := markerStyle.Render("▸ ") + selectedLabelStyle.Render(label) + selectedStyle.Render(value)
			form.WriteString(row)
			if pad := innerW - lipgloss.Width(row); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		default:
			form.WriteString(valueStyle.Render("  "))
			form.WriteString(labelStyle.Render(label))
			form.WriteString(valueStyle.Render(value))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).
			Render("Not saved: " + a.settings.saveErr.Error()))
		form.WriteString("\n")
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.IncomeBright).Background(t.Surface).Render("Saved"))
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(hintStyle.Render("[j/k] navigate  [Enter] edit or cycle  [Esc] cancel"))

	var info strings.Builder
	line := func(label, value string) {
		info.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", label)))
		info.WriteString(valueStyle.Render(truncStr(value, innerW-16)))
		info.WriteString("\n")
	}
	line("Ledger", a.path)
	line("Config", config.ConfigPath())
	line("SQL mirror", ledger.MirrorPath())
	if a.lg != nil {
		line("Transactions", cli.FormatNumber(int64(len(a.lg.Transactions()))))
		line("Rules", cli.FormatNumber(int64(len(a.rules))))
		line("Revision", strconv.FormatUint(a.lg.Revision(), 10))
	}
	line("Last regen", fmt.Sprintf("%s · %d generated, %d failed",
		a.lastRegen.At, a.lastRegen.Generated, len(a.lastRegen.Failed)))
	line("Load time", a.loadTime.String())

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("About", strings.TrimRight(info.String(), "\n"), cw)
}
