package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/pipeline"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderBudgetsTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warnPct := a.cfg.Budget.WarnPercent

	title := fmt.Sprintf("Budgets · %s (as of %s)", cli.FormatMonth(a.month), cli.FormatDate(a.monthAsOf()))
	if len(a.budgets) == 0 {
		return components.ContentCard(title,
			muted.Render("No budgets yet. Set one with: fintrack budget set CATEGORY AMOUNT"), cw)
	}

	limit, spent := pipeline.BudgetTotals(a.budgets)
	var totalPct *float64
	if limit > 0 {
		p := spent / limit * 100
		totalPct = &p
	}
	over := pipeline.OverBudget(a.budgets, warnPct)

	remainingColor := t.Amount(limit - spent)
	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Budgeted", Value: cli.FormatMoney(limit)},
		{Label: "Spent", Value: cli.FormatMoney(spent), Delta: cli.FormatBudgetPercent(totalPct)},
		{Label: "Remaining", Value: cli.FormatMoney(limit - spent), Color: remainingColor},
		{Label: "Flagged", Value: fmt.Sprintf("%d of %d", len(over), len(a.budgets)), Delta: fmt.Sprintf("at or above %.0f%%", warnPct)},
	}, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	labelW := 16
	const amountsW = 28
	barW := max(inner-labelW-amountsW-9, 10)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	overStyle := lipgloss.NewStyle().Foreground(t.Expense).Background(t.Surface).Bold(true)

	var body strings.Builder
	for i, s := range a.budgets {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString(components.BudgetBar(s.Category, s.Percentage, warnPct, labelW, barW))
		body.WriteString(amountStyle.Render(fmt.Sprintf("  %s / %s", cli.FormatMoney(s.Spent), cli.FormatMoney(s.Budget))))
		if s.HasLimit() && s.Over() {
			body.WriteString(overStyle.Render(fmt.Sprintf("  %s over", cli.FormatMoney(-s.Remaining))))
		}
	}
	b.WriteString(components.ContentCard(title, body.String(), cw))
	return b.String()
}
