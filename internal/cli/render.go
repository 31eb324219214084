package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by every non-interactive command (Flexoki Dark).
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle   = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorTextMuted)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorTextDim)
	incomeStyle  = lipgloss.NewStyle().Foreground(ColorGreen)
	expenseStyle = lipgloss.NewStyle().Foreground(ColorRed)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorOrange)
)

// SeparatorRow marks a horizontal rule inside Table.Rows.
const SeparatorRow = "---"

// Table is a bordered text table for CLI output. Column 0 is left-aligned and
// the rest right-aligned unless LeftCols widens the left-aligned prefix.
type Table struct {
	Title    string
	Headers  []string
	Rows     [][]string
	Widths   []int // optional; auto-sized when nil
	LeftCols int   // number of leading left-aligned columns, default 1
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

// RenderTable renders t with box-drawing borders.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := columnWidths(t, numCols)
	leftCols := t.LeftCols
	if leftCols <= 0 {
		leftCols = 1
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	b.WriteString(rule(widths, "╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			b.WriteString(headerStyle.Render(" " + pad(cell(t.Headers, i), widths[i], true) + " "))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
		b.WriteString(rule(widths, "├", "┼", "┤"))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == SeparatorRow {
			b.WriteString(rule(widths, "├", "┼", "┤"))
			continue
		}
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			b.WriteString(valueStyle.Render(" " + pad(cell(row, i), widths[i], i < leftCols) + " "))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	b.WriteString(rule(widths, "╰", "┴", "╯"))
	return b.String()
}

func columnWidths(t Table, numCols int) []int {
	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
		return widths
	}
	grow := func(row []string) {
		for i, c := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}
	grow(t.Headers)
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == SeparatorRow {
			continue
		}
		grow(row)
	}
	return widths
}

func rule(widths []int, left, mid, right string) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w+2)
	}
	return dimStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// pad aligns s within w display columns; multi-byte currency symbols count once.
func pad(s string, w int, left bool) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if left {
		return s + strings.Repeat(" ", gap)
	}
	return strings.Repeat(" ", gap) + s
}

// BudgetColor picks green below warnPct, orange up to 100 and red past it.
func BudgetColor(pct, warnPct float64) lipgloss.Color {
	switch {
	case pct > 100:
		return ColorRed
	case pct >= warnPct:
		return ColorOrange
	default:
		return ColorGreen
	}
}

// RenderBudgetBar renders a fixed-width bar for a spent percentage, capped at
// full width. A nil pct renders an empty track.
func RenderBudgetBar(pct *float64, warnPct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if pct == nil {
		return dimStyle.Render(strings.Repeat("░", width))
	}
	filled := int(*pct / 100 * float64(width))
	filled = min(max(filled, 0), width)
	style := lipgloss.NewStyle().Foreground(BudgetColor(*pct, warnPct))
	return style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
}

// RenderProgressBar renders "[████░░░░] 42.0%" for goal progress.
func RenderProgressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = min(max(filled, 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", mutedStyle.Render(bar), FormatPercent(pct))
}

// RenderSparkline draws values as unicode blocks scaled to the largest value.
// Negative values render as the lowest block.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	blocks := []rune("▁▂▃▄▅▆▇█")

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		b.WriteRune(blocks[min(max(idx, 0), len(blocks)-1)])
	}
	return b.String()
}

// RenderHorizontalBar renders "label  ████████ value" scaled against maxValue.
func RenderHorizontalBar(label string, labelWidth int, value, maxValue float64, maxWidth int) string {
	barLen := 0
	if maxValue > 0 {
		barLen = min(max(int(value/maxValue*float64(maxWidth)), 0), maxWidth)
	}
	return fmt.Sprintf("  %s %s %s",
		pad(label, labelWidth, true),
		expenseStyle.Render(strings.Repeat("█", barLen))+strings.Repeat(" ", maxWidth-barLen),
		FormatMoney(value),
	)
}

// ColorAmount renders v green when non-negative and red otherwise.
func ColorAmount(s string, v float64) string {
	if v < 0 {
		return expenseStyle.Render(s)
	}
	return incomeStyle.Render(s)
}

// Muted renders s in the muted text color.
func Muted(s string) string { return mutedStyle.Render(s) }

// Warn renders s in the warning color.
func Warn(s string) string { return warnStyle.Render(s) }
