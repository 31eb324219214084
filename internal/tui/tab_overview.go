package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/recurrence"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func deltaText(cur, prev float64) string {
	if prev == 0 {
		return "no prior month"
	}
	return cli.FormatDelta(cur, prev) + " vs last month"
}

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	stats := a.stats
	prev := a.prevStats
	var b strings.Builder

	// Row 1: metric cards
	netColor := t.Amount(stats.Net)
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Income", Value: cli.FormatMoney(stats.Income), Delta: deltaText(stats.Income, prev.Income), Color: t.Income},
		{Label: "Expenses", Value: cli.FormatMoney(stats.Expense), Delta: deltaText(stats.Expense, prev.Expense)},
		{Label: "Net", Value: cli.FormatMoney(stats.Net), Delta: cli.FormatPercent(stats.SavingsRate) + " saved", Color: netColor},
		{
			Label: "Transactions",
			Value: cli.FormatNumber(int64(stats.Transactions)),
			Delta: fmt.Sprintf("%d from recurring", stats.GeneratedCount),
		},
	}, cw))
	b.WriteString("\n")

	// Row 2: daily spending
	if len(a.dailyStats) > 0 {
		days := slices.Clone(a.dailyStats)
		slices.Reverse(days)
		vals := make([]float64, len(days))
		for i, d := range days {
			vals[i] = d.Expense
		}
		chartH := 10
		if a.isCompactLayout() {
			chartH = 7
		}
		title := fmt.Sprintf("Daily Spending · %s/day", cli.FormatMoney(stats.ExpensePerDay))
		b.WriteString(components.ContentCard(title,
			components.BarChart(vals, chartDateLabels(days), t.Warning, components.CardInnerWidth(cw), chartH),
			cw))
		b.WriteString("\n")
	}

	// Row 3: top categories + budgets/upcoming
	var left, right string
	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}
	left = components.ContentCard("Top Expense Categories", a.renderTopCategories(halves[0]), halves[0])
	right = components.ContentCard("Coming Up", a.renderUpcoming(halves[1], 6), halves[1])
	if a.isCompactLayout() {
		b.WriteString(left + "\n" + right)
	} else {
		b.WriteString(components.CardRow([]string{left, right}))
	}
	return b.String()
}

func (a App) renderTopCategories(outerW int) string {
	t := theme.Active
	cats := a.expenseCats
	if len(cats) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No expenses this month")
	}
	inner := components.CardInnerWidth(outerW)
	labelW := min(16, inner/3)
	barW := max(inner-labelW-14, 4)

	var b strings.Builder
	for i, c := range cats[:min(len(cats), 6)] {
		if i > 0 {
			b.WriteString("\n")
		}
		color := t.Info
		if c.Budget != nil && *c.Budget > 0 {
			color = t.Budget(c.Amount / *c.Budget * 100, a.cfg.Budget.WarnPercent)
		}
		b.WriteString(components.HBar(c.Category, cli.FormatCompactMoney(c.Amount), c.Amount, cats[0].Amount, labelW, barW, color))
	}
	return b.String()
}

type upcomingItem struct {
	date calendar.Date
	rule model.RecurringRule
}

// upcoming merges the next occurrences of every rule, soonest first.
func upcoming(rules []model.RecurringRule, today calendar.Date, n int) []upcomingItem {
	var items []upcomingItem
	for _, r := range rules {
		dates, err := recurrence.Upcoming(r, today, n)
		if err != nil {
			continue
		}
		for _, d := range dates {
			items = append(items, upcomingItem{date: d, rule: r})
		}
	}
	slices.SortStableFunc(items, func(x, y upcomingItem) int { return x.date.Compare(y.date) })
	return items[:min(len(items), n)]
}

func (a App) renderUpcoming(outerW, n int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	items := upcoming(a.rules, a.today, n)
	if len(items) == 0 {
		return muted.Render("No recurring transactions scheduled")
	}

	inner := components.CardInnerWidth(outerW)
	dateStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		amount := cli.FormatSigned(it.rule.Amount, it.rule.Type)
		amtColor := t.Expense
		if it.rule.Type == model.Income {
			amtColor = t.Income
		}
		label := it.rule.Description
		if label == "" {
			label = it.rule.Category
		}
		when := fmt.Sprintf("%-11s", cli.FormatDate(it.date))
		room := max(inner-len(when)-len(amount)-2, 4)
		b.WriteString(dateStyle.Render(when))
		b.WriteString(textStyle.Render(fmt.Sprintf(" %-*s ", room, truncStr(label, room))))
		b.WriteString(lipgloss.NewStyle().Foreground(amtColor).Background(t.Surface).Render(amount))
	}
	return b.String()
}
