// Package pipeline computes budget and goal progress and the report
// aggregates derived from a transaction set. Every function here is pure.
package pipeline

import (
	"sort"
	"strings"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
)

// Aggregate computes summary statistics over transactions dated within
// [since, until]. Zero bounds are open.
func Aggregate(txs []model.Transaction, since, until calendar.Date) model.SummaryStats {
	filtered := FilterByTime(txs, since, until)

	var stats model.SummaryStats
	var income, expense sum
	activeDays := make(map[calendar.Date]struct{})
	first, last := since, until

	for _, tx := range filtered {
		stats.Transactions++
		switch tx.Type {
		case model.Income:
			income.add(tx.Amount)
		case model.Expense:
			expense.add(tx.Amount)
			if tx.Amount > stats.LargestExpense {
				stats.LargestExpense = tx.Amount
			}
		}
		if tx.IsGenerated() {
			stats.GeneratedCount++
		}
		activeDays[tx.Date] = struct{}{}
		if first.IsZero() || tx.Date.Before(first) {
			first = tx.Date
		}
		if last.IsZero() || tx.Date.After(last) {
			last = tx.Date
		}
	}

	stats.ActiveDays = len(activeDays)
	stats.Income = income.float()
	stats.Expense = expense.float()
	stats.Net = income.d.Sub(expense.d).InexactFloat64()
	if pct, ok := percent(stats.Net, stats.Income); ok {
		stats.SavingsRate = pct
	}

	if !first.IsZero() && !last.IsZero() {
		stats.Days = first.DaysUntil(last) + 1
	}
	if stats.Days > 0 {
		days := float64(stats.Days)
		stats.IncomePerDay = stats.Income / days
		stats.ExpensePerDay = stats.Expense / days
	}
	if n := countType(filtered, model.Expense); n > 0 {
		stats.AverageExpense = stats.Expense / float64(n)
	}

	return stats
}

func countType(txs []model.Transaction, t model.TxType) int {
	n := 0
	for _, tx := range txs {
		if tx.Type == t {
			n++
		}
	}
	return n
}

// AggregateDays computes per-day totals, filling every day of the range so
// gaps show as zeros. Most recent first.
func AggregateDays(txs []model.Transaction, since, until calendar.Date) []model.DailyStats {
	filtered := FilterByTime(txs, since, until)

	dayMap := make(map[calendar.Date]*model.DailyStats)
	totals := make(map[calendar.Date]*[2]sum)

	for _, tx := range filtered {
		ds, ok := dayMap[tx.Date]
		if !ok {
			ds = &model.DailyStats{Date: tx.Date}
			dayMap[tx.Date] = ds
			totals[tx.Date] = &[2]sum{}
		}
		ds.Transactions++
		if tx.Type == model.Income {
			totals[tx.Date][0].add(tx.Amount)
		} else {
			totals[tx.Date][1].add(tx.Amount)
		}
	}

	if !since.IsZero() && !until.IsZero() {
		for day := since; !day.After(until); day = day.AddDays(1) {
			if _, ok := dayMap[day]; !ok {
				dayMap[day] = &model.DailyStats{Date: day}
			}
		}
	}

	days := make([]model.DailyStats, 0, len(dayMap))
	for key, ds := range dayMap {
		if t, ok := totals[key]; ok {
			ds.Income = t[0].float()
			ds.Expense = t[1].float()
			ds.Net = t[0].d.Sub(t[1].d).InexactFloat64()
		}
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})

	return days
}

// AggregateMonths computes per-month totals, most recent first.
func AggregateMonths(txs []model.Transaction) []model.MonthlyStats {
	monthMap := make(map[calendar.Date]*model.MonthlyStats)
	totals := make(map[calendar.Date]*[2]sum)

	for _, tx := range txs {
		key := tx.Date.StartOfMonth()
		ms, ok := monthMap[key]
		if !ok {
			ms = &model.MonthlyStats{Month: key}
			monthMap[key] = ms
			totals[key] = &[2]sum{}
		}
		ms.Transactions++
		if tx.Type == model.Income {
			totals[key][0].add(tx.Amount)
		} else {
			totals[key][1].add(tx.Amount)
		}
	}

	months := make([]model.MonthlyStats, 0, len(monthMap))
	for key, ms := range monthMap {
		t := totals[key]
		ms.Income = t[0].float()
		ms.Expense = t[1].float()
		ms.Net = t[0].d.Sub(t[1].d).InexactFloat64()
		months = append(months, *ms)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.After(months[j].Month)
	})
	return months
}

// AggregateCategories computes per-category totals for one transaction type,
// sorted by amount descending. budgets, when non-nil, is attached to each entry.
func AggregateCategories(txs []model.Transaction, t model.TxType, budgets map[string]float64) []model.CategoryStats {
	catMap := make(map[string]*model.CategoryStats)
	amounts := make(map[string]*sum)
	var total sum

	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		cs, ok := catMap[tx.Category]
		if !ok {
			cs = &model.CategoryStats{Category: tx.Category, Type: t}
			catMap[tx.Category] = cs
			amounts[tx.Category] = &sum{}
		}
		cs.Transactions++
		amounts[tx.Category].add(tx.Amount)
		total.add(tx.Amount)
	}

	cats := make([]model.CategoryStats, 0, len(catMap))
	for name, cs := range catMap {
		cs.Amount = amounts[name].float()
		if pct, ok := percent(cs.Amount, total.float()); ok {
			cs.SharePercent = pct
		}
		if limit, ok := budgets[name]; ok {
			cs.Budget = &limit
		}
		cats = append(cats, *cs)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Amount != cats[j].Amount {
			return cats[i].Amount > cats[j].Amount
		}
		return cats[i].Category < cats[j].Category
	})

	return cats
}

// FilterByTime returns transactions dated within [since, until]. Zero bounds are open.
func FilterByTime(txs []model.Transaction, since, until calendar.Date) []model.Transaction {
	if since.IsZero() && until.IsZero() {
		return txs
	}

	var result []model.Transaction
	for _, tx := range txs {
		if !since.IsZero() && tx.Date.Before(since) {
			continue
		}
		if !until.IsZero() && tx.Date.After(until) {
			continue
		}
		result = append(result, tx)
	}
	return result
}

// FilterByCategory returns transactions whose category contains the given
// substring, ignoring case.
func FilterByCategory(txs []model.Transaction, category string) []model.Transaction {
	if category == "" {
		return txs
	}
	var result []model.Transaction
	for _, tx := range txs {
		if MatchCategory(tx.Category, category) {
			result = append(result, tx)
		}
	}
	return result
}

// FilterByType returns transactions of type t. An empty t keeps everything.
func FilterByType(txs []model.Transaction, t model.TxType) []model.Transaction {
	if t == "" {
		return txs
	}
	var result []model.Transaction
	for _, tx := range txs {
		if tx.Type == t {
			result = append(result, tx)
		}
	}
	return result
}

// FilterByTag returns transactions carrying tag.
func FilterByTag(txs []model.Transaction, tag string) []model.Transaction {
	if tag == "" {
		return txs
	}
	var result []model.Transaction
	for _, tx := range txs {
		if tx.Tags.Has(tag) {
			result = append(result, tx)
		}
	}
	return result
}

// SortByDate orders transactions newest first, breaking ties by id so the
// order is stable across runs.
func SortByDate(txs []model.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}

// MatchCategory reports whether category contains filter, ignoring case.
// An empty filter matches everything.
func MatchCategory(category, filter string) bool {
	return strings.Contains(strings.ToLower(category), strings.ToLower(filter))
}
