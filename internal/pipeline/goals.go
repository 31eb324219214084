package pipeline

import (
	"github.com/theirongolddev/fintrack/internal/model"
)

// GoalProgress measures goal against the transactions dated within
// [goal.StartDate, goal.TargetDate].
//
//   - savings: income minus expense
//   - spending_reduction: target minus expense
//   - debt_payment: every transaction in goal.Category, regardless of type
func GoalProgress(goal model.Goal, txs []model.Transaction) model.GoalProgress {
	window := FilterByTime(txs, goal.StartDate, goal.TargetDate)

	var income, expense, category sum
	for _, tx := range window {
		switch tx.Type {
		case model.Income:
			income.add(tx.Amount)
		case model.Expense:
			expense.add(tx.Amount)
		}
		if goal.Category != "" && tx.Category == goal.Category {
			category.add(tx.Amount)
		}
	}

	target := dec(goal.TargetAmount)
	var current float64
	switch goal.Type {
	case model.Savings:
		current = income.d.Sub(expense.d).InexactFloat64()
	case model.SpendingReduction:
		current = target.Sub(expense.d).InexactFloat64()
	case model.DebtPayment:
		current = category.float()
	}

	p := model.GoalProgress{
		Current:     current,
		Remaining:   sub(goal.TargetAmount, current),
		IsCompleted: current >= goal.TargetAmount,
	}
	if pct, ok := percent(current, goal.TargetAmount); ok {
		p.Percentage = pct
	}
	return p
}

// GoalReport pairs a goal with its computed progress.
type GoalReport struct {
	Goal     model.Goal
	Progress model.GoalProgress
}

// GoalReports computes progress for every goal, preserving order.
func GoalReports(goals []model.Goal, txs []model.Transaction) []GoalReport {
	out := make([]GoalReport, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalReport{Goal: g, Progress: GoalProgress(g, txs)})
	}
	return out
}
