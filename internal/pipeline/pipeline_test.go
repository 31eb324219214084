package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
)

func d(s string) calendar.Date { return calendar.MustParse(s) }

func tx(typ model.TxType, category string, amount float64, date string, tags ...string) model.Transaction {
	return model.Transaction{
		ID:       model.NewID(),
		Type:     typ,
		Category: category,
		Amount:   amount,
		Date:     d(date),
		Tags:     model.NewTagSet(tags...),
	}
}

func TestBudgetStatusGroceries(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Expense, "Groceries", 100, "2024-02-03"),
		tx(model.Expense, "Groceries", 50, "2024-02-10"),
		tx(model.Expense, "Groceries", 80, "2024-01-28"), // previous month
		tx(model.Income, "Groceries", 999, "2024-02-05"), // not an expense
		tx(model.Expense, "Dining", 40, "2024-02-05"),
		tx(model.Expense, "Groceries", 70, "2024-02-20"), // after now
	}
	got := BudgetStatus(txs, map[string]float64{"Groceries": 500}, d("2024-02-15"))
	require.Len(t, got, 1)

	st := got[0]
	assert.Equal(t, "Groceries", st.Category)
	assert.Equal(t, 150.0, st.Spent)
	assert.Equal(t, 350.0, st.Remaining)
	require.NotNil(t, st.Percentage)
	assert.Equal(t, 30.0, *st.Percentage)
}

func TestBudgetStatusZeroLimit(t *testing.T) {
	txs := []model.Transaction{tx(model.Expense, "Fun", 25, "2024-02-03")}
	got := BudgetStatus(txs, map[string]float64{"Fun": 0, "Rent": 1000}, d("2024-02-29"))
	require.Len(t, got, 2)

	assert.Equal(t, "Fun", got[0].Category)
	assert.Nil(t, got[0].Percentage, "zero limit has no percentage")
	assert.False(t, got[0].HasLimit())
	assert.Equal(t, -25.0, got[0].Remaining)
	assert.True(t, got[0].Over())

	assert.Equal(t, "Rent", got[1].Category)
	assert.Equal(t, 0.0, got[1].Spent)
	require.NotNil(t, got[1].Percentage)
	assert.Equal(t, 0.0, *got[1].Percentage)
}

func TestBudgetRemainingIsLimitMinusSpent(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Expense, "A", 0.1, "2024-03-01"),
		tx(model.Expense, "A", 0.2, "2024-03-02"),
		tx(model.Expense, "B", 33.33, "2024-03-02"),
		tx(model.Expense, "B", 66.67, "2024-03-03"),
	}
	for _, st := range BudgetStatus(txs, map[string]float64{"A": 0.3, "B": 100}, d("2024-03-31")) {
		assert.Equal(t, 0.0, st.Remaining, st.Category)
		assert.Equal(t, st.Budget, st.Spent, st.Category)
	}
}

func TestOverBudget(t *testing.T) {
	fifty, ninety := 50.0, 90.0
	statuses := []model.BudgetStatus{
		{Category: "a", Percentage: &fifty},
		{Category: "b", Percentage: &ninety},
		{Category: "c"},
	}
	got := OverBudget(statuses, 80)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Category)
}

func goal(typ model.GoalType, target float64) model.Goal {
	return model.Goal{
		ID: "g", Type: typ, TargetAmount: target,
		StartDate: d("2024-01-01"), TargetDate: d("2024-06-30"),
	}
}

func TestGoalProgressSavings(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Income, "Salary", 1200, "2024-02-01"),
		tx(model.Expense, "Rent", 300, "2024-02-02"),
		tx(model.Income, "Salary", 5000, "2023-12-31"), // before start
		tx(model.Income, "Salary", 5000, "2024-07-01"), // after target
	}
	p := GoalProgress(goal(model.Savings, 1000), txs)
	assert.Equal(t, 900.0, p.Current)
	assert.Equal(t, 90.0, p.Percentage)
	assert.Equal(t, 100.0, p.Remaining)
	assert.False(t, p.IsCompleted)
}

func TestGoalProgressSpendingReduction(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Expense, "Dining", 150, "2024-03-01"),
		tx(model.Income, "Salary", 3000, "2024-03-01"),
	}
	p := GoalProgress(goal(model.SpendingReduction, 400), txs)
	assert.Equal(t, 250.0, p.Current)
	assert.Equal(t, 62.5, p.Percentage)
	assert.False(t, p.IsCompleted)

	none := GoalProgress(goal(model.SpendingReduction, 400), nil)
	assert.Equal(t, 400.0, none.Current)
	assert.True(t, none.IsCompleted)
}

func TestGoalProgressDebtPaymentIsTypeAgnostic(t *testing.T) {
	g := goal(model.DebtPayment, 500)
	g.Category = "Loan"
	txs := []model.Transaction{
		tx(model.Expense, "Loan", 300, "2024-02-01"),
		tx(model.Income, "Loan", 200, "2024-03-01"),
		tx(model.Expense, "Rent", 900, "2024-03-01"),
	}
	p := GoalProgress(g, txs)
	assert.Equal(t, 500.0, p.Current)
	assert.Equal(t, 0.0, p.Remaining)
	assert.True(t, p.IsCompleted)
}

func TestGoalCompletedMatchesCurrent(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Income, "Salary", 700, "2024-02-01"),
		tx(model.Expense, "Loan", 700, "2024-02-01"),
	}
	for _, typ := range []model.GoalType{model.Savings, model.SpendingReduction, model.DebtPayment} {
		for _, target := range []float64{1, 500, 700, 1000} {
			g := goal(typ, target)
			g.Category = "Loan"
			p := GoalProgress(g, txs)
			assert.Equal(t, p.Current >= target, p.IsCompleted, "%s/%v", typ, target)
		}
	}
}

func TestGoalProgressZeroTargetHasNoNaN(t *testing.T) {
	p := GoalProgress(goal(model.Savings, 0), []model.Transaction{tx(model.Income, "x", 10, "2024-02-01")})
	assert.Equal(t, 0.0, p.Percentage)
}

func TestAggregate(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Income, "Salary", 2000, "2024-02-01"),
		tx(model.Expense, "Rent", 1000, "2024-02-01"),
		tx(model.Expense, "Dining", 500, "2024-02-10"),
		tx(model.Expense, "Dining", 40, "2024-03-01"),
	}
	txs[1].RecurringID = "rule"

	s := Aggregate(txs, d("2024-02-01"), d("2024-02-29"))
	assert.Equal(t, 3, s.Transactions)
	assert.Equal(t, 2, s.ActiveDays)
	assert.Equal(t, 29, s.Days)
	assert.Equal(t, 2000.0, s.Income)
	assert.Equal(t, 1500.0, s.Expense)
	assert.Equal(t, 500.0, s.Net)
	assert.Equal(t, 25.0, s.SavingsRate)
	assert.Equal(t, 1, s.GeneratedCount)
	assert.Equal(t, 1000.0, s.LargestExpense)
	assert.Equal(t, 750.0, s.AverageExpense)
}

func TestAggregateDaysFillsGaps(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Income, "Salary", 100, "2024-02-01"),
		tx(model.Expense, "Dining", 30, "2024-02-03"),
	}
	days := AggregateDays(txs, d("2024-02-01"), d("2024-02-04"))
	require.Len(t, days, 4)
	assert.Equal(t, "2024-02-04", days[0].Date.String())
	assert.Equal(t, -30.0, days[1].Net)
	assert.Equal(t, 0, days[2].Transactions)
	assert.Equal(t, 100.0, days[3].Income)
}

func TestAggregateMonths(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Income, "Salary", 100, "2024-01-15"),
		tx(model.Expense, "Dining", 30, "2024-02-03"),
		tx(model.Expense, "Dining", 20, "2024-02-28"),
	}
	months := AggregateMonths(txs)
	require.Len(t, months, 2)
	assert.Equal(t, "2024-02-01", months[0].Month.String())
	assert.Equal(t, 50.0, months[0].Expense)
	assert.Equal(t, 2, months[0].Transactions)
	assert.Equal(t, 100.0, months[1].Net)
}

func TestAggregateCategories(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Expense, "Rent", 750, "2024-02-01"),
		tx(model.Expense, "Dining", 150, "2024-02-02"),
		tx(model.Expense, "Dining", 100, "2024-02-03"),
		tx(model.Income, "Salary", 3000, "2024-02-01"),
	}
	cats := AggregateCategories(txs, model.Expense, map[string]float64{"Dining": 300})
	require.Len(t, cats, 2)
	assert.Equal(t, "Rent", cats[0].Category)
	assert.Equal(t, 75.0, cats[0].SharePercent)
	assert.Nil(t, cats[0].Budget)
	assert.Equal(t, 250.0, cats[1].Amount)
	require.NotNil(t, cats[1].Budget)
	assert.Equal(t, 300.0, *cats[1].Budget)
}

func TestFilters(t *testing.T) {
	txs := []model.Transaction{
		tx(model.Income, "Salary", 1, "2024-02-01", "work"),
		tx(model.Expense, "Groceries", 1, "2024-02-02", "food"),
		tx(model.Expense, "Dining Out", 1, "2024-02-03", "food", "social"),
	}
	assert.Len(t, FilterByTime(txs, d("2024-02-02"), d("2024-02-03")), 2)
	assert.Len(t, FilterByTime(txs, calendar.Date{}, d("2024-02-01")), 1)
	assert.Len(t, FilterByCategory(txs, "dining"), 1)
	assert.Len(t, FilterByType(txs, model.Expense), 2)
	assert.Len(t, FilterByType(txs, ""), 3)
	assert.Len(t, FilterByTag(txs, "food"), 2)

	SortByDate(txs)
	assert.Equal(t, "2024-02-03", txs[0].Date.String())
}

func TestGenerateAllPreservesOrder(t *testing.T) {
	rules := []model.RecurringRule{
		{ID: "weekly", Type: model.Expense, Category: "x", Frequency: model.Weekly, StartDate: d("2024-01-01"), LastGenerated: d("2024-01-01")},
		{ID: "bad", Type: model.Expense, Category: "x", Frequency: "sometimes", StartDate: d("2024-01-01")},
		{ID: "monthly", Type: model.Income, Category: "y", Frequency: model.Monthly, StartDate: d("2024-01-01"), LastGenerated: d("2024-01-01")},
	}
	var calls int
	results := GenerateAll(rules, d("2024-01-31"), 1, func(current, total int) {
		calls++
		assert.Equal(t, 3, total)
	})
	require.Len(t, results, 3)
	assert.Equal(t, 3, calls)

	assert.Equal(t, model.ID("weekly"), results[0].Rule.ID)
	assert.Len(t, results[0].Transactions, 4)
	assert.Error(t, results[1].Err)
	assert.Empty(t, results[2].Transactions)
}
