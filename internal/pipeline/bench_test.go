package pipeline

import (
	"fmt"
	"testing"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
)

func benchLedger(n int) []model.Transaction {
	start := calendar.MustParse("2020-01-01")
	txs := make([]model.Transaction, n)
	for i := range txs {
		typ := model.Expense
		if i%10 == 0 {
			typ = model.Income
		}
		txs[i] = model.Transaction{
			ID:       model.ID(fmt.Sprint(i)),
			Type:     typ,
			Category: fmt.Sprintf("cat-%d", i%12),
			Amount:   float64(i%500) + 0.25,
			Date:     start.AddDays(i % 1500),
		}
	}
	return txs
}

func BenchmarkBudgetStatus(b *testing.B) {
	txs := benchLedger(50_000)
	budgets := make(map[string]float64)
	for i := 0; i < 12; i++ {
		budgets[fmt.Sprintf("cat-%d", i)] = 1000
	}
	now := calendar.MustParse("2023-06-15")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = BudgetStatus(txs, budgets, now)
	}
}

func BenchmarkAggregateMonths(b *testing.B) {
	txs := benchLedger(50_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AggregateMonths(txs)
	}
}

func BenchmarkGenerateAll(b *testing.B) {
	rules := make([]model.RecurringRule, 200)
	for i := range rules {
		rules[i] = model.RecurringRule{
			ID:        model.ID(fmt.Sprint(i)),
			Type:      model.Expense,
			Category:  "bills",
			Amount:    10,
			Frequency: model.Frequencies[i%len(model.Frequencies)],
			StartDate: calendar.MustParse("2020-01-31"),
		}
	}
	asOf := calendar.MustParse("2024-12-31")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GenerateAll(rules, asOf, 0, nil)
	}
}
