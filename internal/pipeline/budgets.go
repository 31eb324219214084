package pipeline

import (
	"sort"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
)

// BudgetStatus computes month-to-date spending for each budgeted category.
// Spending counts expense transactions dated within [first of now's month, now].
// Results are sorted by category.
func BudgetStatus(txs []model.Transaction, budgets map[string]float64, now calendar.Date) []model.BudgetStatus {
	monthStart := now.StartOfMonth()

	spent := make(map[string]*sum, len(budgets))
	for category := range budgets {
		spent[category] = &sum{}
	}
	for _, tx := range txs {
		if tx.Type != model.Expense || !tx.Date.Between(monthStart, now) {
			continue
		}
		if s, ok := spent[tx.Category]; ok {
			s.add(tx.Amount)
		}
	}

	out := make([]model.BudgetStatus, 0, len(budgets))
	for category, limit := range budgets {
		s := spent[category]
		st := model.BudgetStatus{
			Category:  category,
			Budget:    limit,
			Spent:     s.float(),
			Remaining: dec(limit).Sub(s.d).InexactFloat64(),
		}
		if pct, ok := percent(st.Spent, limit); ok {
			st.Percentage = &pct
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// OverBudget returns the statuses at or above warnPct percent of their limit.
// Categories without a limit are never reported.
func OverBudget(statuses []model.BudgetStatus, warnPct float64) []model.BudgetStatus {
	var out []model.BudgetStatus
	for _, st := range statuses {
		if st.Percentage != nil && *st.Percentage >= warnPct {
			out = append(out, st)
		}
	}
	return out
}

// BudgetTotals sums limits and month-to-date spending across statuses.
func BudgetTotals(statuses []model.BudgetStatus) (limit, spent float64) {
	var l, s sum
	for _, st := range statuses {
		l.add(st.Budget)
		s.add(st.Spent)
	}
	return l.float(), s.float()
}
