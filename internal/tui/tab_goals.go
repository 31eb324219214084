package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func goalTitle(g model.Goal) string {
	label := g.Description
	if label == "" {
		label = strings.ReplaceAll(string(g.Type), "_", " ")
	}
	if g.Category != "" {
		label += " · " + g.Category
	}
	return label
}

func (a App) renderGoalsTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(a.goals) == 0 {
		return components.ContentCard("Goals",
			muted.Render("No goals yet. Add one with: fintrack goal add savings 5000 --by 2025-12-31"), cw)
	}

	inner := components.CardInnerWidth(cw)
	barW := max(inner-10, 10)
	titleStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	doneStyle := lipgloss.NewStyle().Foreground(t.Income).Background(t.Surface).Bold(true)
	dueStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	lateStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface)

	completed := 0
	var b strings.Builder
	for i, r := range a.goals {
		g, p := r.Goal, r.Progress
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(titleStyle.Render(truncStr(goalTitle(g), inner-12)))
		if p.IsCompleted {
			completed++
			b.WriteString(doneStyle.Render("  ✓ done"))
		}
		b.WriteString("\n")
		b.WriteString(components.GoalBar(p.Percentage, p.IsCompleted, barW))
		b.WriteString("\n")

		line := fmt.Sprintf("%s of %s", cli.FormatMoney(p.Current), cli.FormatMoney(g.TargetAmount))
		if !p.IsCompleted {
			line += fmt.Sprintf(" · %s to go", cli.FormatMoney(p.Remaining))
		}
		b.WriteString(muted.Render(line))

		due := fmt.Sprintf("  due %s (%s)", g.TargetDate, cli.FormatRelative(g.TargetDate, a.today))
		if !p.IsCompleted && g.TargetDate.Before(a.today) {
			b.WriteString(lateStyle.Render(due))
		} else {
			b.WriteString(dueStyle.Render(due))
		}
	}

	title := fmt.Sprintf("Goals · %d of %d complete", completed, len(a.goals))
	return components.ContentCard(title, b.String(), cw)
}
