package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fintrack/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a block bar with a percentage for frac in [0, 1].
func ProgressBar(frac float64, width int) string {
	t := theme.Active
	frac = clamp01(frac)
	filled := int(frac * float64(width))

	barColor := t.Highlight
	switch {
	case frac >= 0.8:
		barColor = t.AccentBright
	case frac >= 0.5:
		barColor = t.Accent
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled)) +
		pctStyle.Render(fmt.Sprintf(" %.0f%%", frac*100))
}

// BudgetBar renders a labeled budget gauge. A nil pct means the category has
// no limit and the gauge is replaced by a note.
func BudgetBar(label string, pct *float64, warnPct float64, labelW, barW int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	head := labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) + space
	if pct == nil {
		return head + lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Italic(true).
			Render("no budget set")
	}

	c := t.Budget(*pct, warnPct)
	pctStyle := lipgloss.NewStyle().Foreground(c).Background(t.Surface).Bold(true)
	return head + solidBar(c, *pct/100, barW) + space + pctStyle.Render(fmt.Sprintf("%5.1f%%", *pct))
}

// GoalBar renders goal progress. Completed goals are drawn in green.
func GoalBar(pct float64, completed bool, barW int) string {
	t := theme.Active
	c := t.Accent
	if completed {
		c = t.Income
	}
	pctStyle := lipgloss.NewStyle().Foreground(c).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	return solidBar(c, pct/100, barW) + space + pctStyle.Render(fmt.Sprintf("%5.1f%%", pct))
}

func solidBar(c lipgloss.Color, frac float64, width int) string {
	bar := progress.New(
		progress.WithSolidFill(string(c)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(theme.Active.TextDim)
	return bar.ViewAs(clamp01(frac))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
