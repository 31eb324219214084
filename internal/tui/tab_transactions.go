package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// transactionsState holds the transactions tab state.
type transactionsState struct {
	cursor     int
	offset     int
	typeFilter model.TxType // "" shows both
	searching  bool
	input      textinput.Model
	query      string
}

func (s *transactionsState) clamp(n int) {
	s.cursor = min(max(s.cursor, 0), max(n-1, 0))
}

func (s *transactionsState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

func newSearchInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "description, category or tag"
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = "/ "
	ti.SetValue(value)
	return ti
}

// matchTransaction reports whether q appears in tx's description, category
// or one of its tags, ignoring case.
func matchTransaction(tx model.Transaction, q string) bool {
	if q == "" {
		return true
	}
	if pipeline.MatchCategory(tx.Category, q) || pipeline.MatchCategory(tx.Description, q) {
		return true
	}
	for _, tag := range tx.Tags.Slice() {
		if pipeline.MatchCategory(tag, q) {
			return true
		}
	}
	return false
}

// visibleTransactions applies the type filter and search query to the month.
func (a App) visibleTransactions() []model.Transaction {
	txs := a.txs
	if a.txState.typeFilter != "" {
		txs = pipeline.FilterByType(txs, a.txState.typeFilter)
	}
	if a.txState.query == "" {
		return txs
	}
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if matchTransaction(tx, a.txState.query) {
			out = append(out, tx)
		}
	}
	return out
}

func (a App) updateTransactionsKey(key string) (App, tea.Cmd, bool) {
	n := len(a.visibleTransactions())
	switch key {
	case "j", "down":
		a.txState.move(1, n)
	case "k", "up":
		a.txState.move(-1, n)
	case "home":
		a.txState.cursor = 0
	case "end":
		a.txState.clamp(n)
		a.txState.cursor = max(n-1, 0)
	case "ctrl+d":
		a.txState.move(a.halfPage(), n)
	case "ctrl+u":
		a.txState.move(-a.halfPage(), n)
	case "f":
		switch a.txState.typeFilter {
		case "":
			a.txState.typeFilter = model.Expense
		case model.Expense:
			a.txState.typeFilter = model.Income
		default:
			a.txState.typeFilter = ""
		}
		a.txState.cursor = 0
	case "/":
		a.txState.searching = true
		a.txState.input = newSearchInput(a.txState.query)
		a.txState.input.Focus()
		return a, textinput.Blink, true
	case "esc":
		if a.txState.query == "" && a.txState.typeFilter == "" {
			return a, nil, false
		}
		a.txState.query = ""
		a.txState.typeFilter = ""
		a.txState.cursor = 0
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) updateTransactionSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.txState.query = strings.TrimSpace(a.txState.input.Value())
		a.txState.searching = false
		a.txState.cursor = 0
		a.txState.offset = 0
		return a, nil
	case "esc":
		a.txState.searching = false
		return a, nil
	}
	var cmd tea.Cmd
	a.txState.input, cmd = a.txState.input.Update(msg)
	return a, cmd
}

func (a App) renderTransactionsTab(cw, h int) string {
	t := theme.Active
	txs := a.visibleTransactions()
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var search string
	if a.txState.searching {
		search = a.txState.input.View() + "\n"
	}

	title := fmt.Sprintf("Transactions · %s", cli.FormatMonth(a.month))
	if len(txs) == 0 {
		msg := "No transactions this month"
		if a.txState.query != "" || a.txState.typeFilter != "" {
			msg = "Nothing matches the current filter (Esc clears it)"
		}
		return components.ContentCard(title, search+muted.Render(msg), cw)
	}

	if a.isCompactLayout() {
		return components.ContentCard(title, search+a.renderTransactionList(txs, cw, h), cw)
	}
	leftW := cw * 3 / 5
	rightW := cw - leftW
	left := components.ContentCard(title, search+a.renderTransactionList(txs, leftW, h), leftW)
	right := components.ContentCard("Details", a.renderTransactionDetail(txs[a.txState.cursor], rightW), rightW)
	return components.CardRow([]string{left, right})
}

func (a App) renderTransactionList(txs []model.Transaction, outerW, h int) string {
	t := theme.Active
	ts := a.txState
	inner := components.CardInnerWidth(outerW)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)

	const dateW, amountW = 11, 12
	catW := min(14, inner/4)
	descW := max(inner-dateW-amountW-catW-3, 6)

	visible := max(h-6, 5) // card border, title, header, footer
	offset := ts.offset
	if ts.cursor < offset {
		offset = ts.cursor
	}
	if ts.cursor >= offset+visible {
		offset = ts.cursor - visible + 1
	}
	end := min(offset+visible, len(txs))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %*s", dateW, "Date", catW, "Category", descW, "Description", amountW, "Amount")))
	b.WriteString("\n")
	for i := offset; i < end; i++ {
		tx := txs[i]
		desc := tx.Description
		if tx.IsGenerated() {
			desc = "↻ " + desc
		}
		line := fmt.Sprintf("%-*s %-*s %-*s %*s",
			dateW, cli.FormatDate(tx.Date),
			catW, truncStr(tx.Category, catW),
			descW, truncStr(desc, descW),
			amountW, cli.FormatSigned(tx.Amount, tx.Type))
		if i == ts.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	muted := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	b.WriteString(muted.Render(fmt.Sprintf("%d of %d  [/] search  [f] filter", ts.cursor+1, len(txs))))
	return b.String()
}

func (a App) renderTransactionDetail(tx model.Transaction, outerW int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	amtColor := t.Expense
	if tx.Type == model.Income {
		amtColor = t.Income
	}
	amountStyle := lipgloss.NewStyle().Foreground(amtColor).Background(t.Surface).Bold(true)

	tags := "-"
	if tx.Tags.Len() > 0 {
		tags = strings.Join(tx.Tags.Slice(), ", ")
	}
	source := "entered by hand"
	if tx.IsGenerated() {
		source = "recurring rule " + shortID(tx.RecurringID)
		for _, r := range a.rules {
			if r.ID == tx.RecurringID {
				source += fmt.Sprintf(" (%s %s)", r.Frequency, r.Description)
				break
			}
		}
	}
	inner := components.CardInnerWidth(outerW)

	rows := [][2]string{
		{"ID", shortID(tx.ID)},
		{"Date", fmt.Sprintf("%s (%s)", tx.Date, cli.FormatRelative(tx.Date, a.today))},
		{"Type", string(tx.Type)},
		{"Category", tx.Category},
		{"Description", tx.Description},
		{"Tags", tags},
		{"Source", source},
	}
	var b strings.Builder
	b.WriteString(amountStyle.Render(cli.FormatSigned(tx.Amount, tx.Type)))
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", r[0])))
		b.WriteString(valueStyle.Render(truncStr(r[1], inner-12)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
