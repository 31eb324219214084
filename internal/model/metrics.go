package model

import "github.com/theirongolddev/fintrack/internal/calendar"

// SummaryStats holds the top-level aggregate over a date range.
type SummaryStats struct {
	Transactions int
	ActiveDays   int
	Days         int

	Income  float64
	Expense float64
	Net     float64

	SavingsRate    float64 // net / income * 100, zero without income
	IncomePerDay   float64
	ExpensePerDay  float64
	GeneratedCount int // transactions materialized from recurring rules
	LargestExpense float64
	AverageExpense float64
}

// DailyStats holds totals for a single calendar day.
type DailyStats struct {
	Date         calendar.Date
	Transactions int
	Income       float64
	Expense      float64
	Net          float64
}

// MonthlyStats holds totals for one calendar month.
type MonthlyStats struct {
	Month        calendar.Date // first day of the month
	Transactions int
	Income       float64
	Expense      float64
	Net          float64
}

// CategoryStats holds totals for a single category.
type CategoryStats struct {
	Category     string
	Type         TxType
	Transactions int
	Amount       float64
	SharePercent float64
	Budget       *float64
}

// PeriodComparison holds current and previous period data for delta computation.
type PeriodComparison struct {
	Current  SummaryStats
	Previous SummaryStats
}
