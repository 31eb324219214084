package components

import (
	"strings"

	"github.com/theirongolddev/fintrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports about the open ledger.
type StatusInfo struct {
	Ledger  string // file path, shortened by the caller
	Dirty   bool
	Busy    bool   // a regeneration or save is in flight
	Flash   string // last action result, shown until replaced
	FlashOK bool
	Right   string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dirtyStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).Bold(true)

	left := base.Render(" ") + keyStyle.Render("?") + base.Render(" help  ") +
		keyStyle.Render("q") + base.Render(" quit  ") +
		keyStyle.Render("[ ]") + base.Render(" month  ")
	if info.Ledger != "" {
		left += base.Render(info.Ledger)
	}
	if info.Dirty {
		left += dirtyStyle.Render(" ●")
	}

	var right string
	switch {
	case info.Busy:
		right = base.Render("working… ")
	case info.Flash != "":
		c := t.Expense
		if info.FlashOK {
			c = t.Income
		}
		right = lipgloss.NewStyle().Foreground(c).Background(t.Surface).Render(info.Flash + " ")
	case info.Right != "":
		right = base.Render(info.Right + " ")
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + base.Render(strings.Repeat(" ", gap)) + right
}
