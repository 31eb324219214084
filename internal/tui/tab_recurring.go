package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/recurrence"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// recurringState holds the recurring tab state.
type recurringState struct {
	cursor int
}

func (s *recurringState) clamp(n int) {
	s.cursor = min(max(s.cursor, 0), max(n-1, 0))
}

func (s *recurringState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

func (a App) updateRecurringKey(key string) (App, tea.Cmd, bool) {
	n := len(a.rules)
	switch key {
	case "j", "down":
		a.recState.move(1, n)
	case "k", "up":
		a.recState.move(-1, n)
	case "home":
		a.recState.cursor = 0
	case "end":
		a.recState.cursor = max(n-1, 0)
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) renderRecurringTab(cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(a.rules) == 0 {
		return components.ContentCard("Recurring",
			muted.Render("No recurring rules. Add one with: fintrack recurring add expense 1200 Rent monthly"), cw)
	}

	title := fmt.Sprintf("Recurring · %d rules", len(a.rules))
	if a.isCompactLayout() {
		return components.ContentCard(title, a.renderRuleList(cw, h), cw)
	}
	leftW := cw / 2
	rightW := cw - leftW
	left := components.ContentCard(title, a.renderRuleList(leftW, h), leftW)
	right := components.ContentCard("Schedule", a.renderRuleDetail(a.rules[a.recState.cursor], rightW), rightW)
	return components.CardRow([]string{left, right})
}

func (a App) renderRuleList(outerW, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(outerW)
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)

	const freqW, amountW, nextW = 10, 12, 11
	catW := max(inner-freqW-amountW-nextW-3, 6)

	visible := max(h-5, 3)
	offset := max(a.recState.cursor-visible+1, 0)
	end := min(offset+visible, len(a.rules))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %*s %-*s", catW, "Category", freqW, "Every", amountW, "Amount", nextW, "Next")))
	for i := offset; i < end; i++ {
		r := a.rules[i]
		next := "-"
		if d, ok := recurrence.NextOccurrence(r.StartDate, r.Frequency, a.today); ok {
			next = cli.FormatDate(d)
		}
		line := fmt.Sprintf("%-*s %-*s %*s %-*s",
			catW, truncStr(r.Category, catW),
			freqW, r.Frequency,
			amountW, cli.FormatSigned(r.Amount, r.Type),
			nextW, next)
		b.WriteString("\n")
		if i == a.recState.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
	}
	return b.String()
}

func (a App) renderRuleDetail(r model.RecurringRule, outerW int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	inner := components.CardInnerWidth(outerW)

	generated := 0
	var total float64
	for _, tx := range a.lg.Transactions() {
		if tx.RecurringID == r.ID {
			generated++
			total += tx.Amount
		}
	}
	last := "never"
	if !r.LastGenerated.IsZero() {
		last = fmt.Sprintf("%s (%s)", r.LastGenerated, cli.FormatRelative(r.LastGenerated, a.today))
	}
	tags := "-"
	if r.Tags.Len() > 0 {
		tags = r.Tags.String()
	}

	rows := [][2]string{
		{"ID", shortID(r.ID)},
		{"Description", r.Description},
		{"Amount", cli.FormatSigned(r.Amount, r.Type)},
		{"Frequency", string(r.Frequency)},
		{"Starts", r.StartDate.String()},
		{"Last run", last},
		{"Generated", fmt.Sprintf("%d transactions, %s", generated, cli.FormatMoney(total))},
		{"Tags", tags},
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", row[0])))
		b.WriteString(valueStyle.Render(truncStr(row[1], inner-12)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Upcoming"))
	dates, err := recurrence.Upcoming(r, a.today, 5)
	if err != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.Expense).Background(t.Surface).Render(err.Error()))
		return b.String()
	}
	for _, d := range dates {
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(fmt.Sprintf("%-12s", cli.FormatDate(d))))
		b.WriteString(labelStyle.Render(cli.FormatRelative(d, a.today)))
	}
	return b.String()
}
