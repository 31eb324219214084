package model

import "github.com/theirongolddev/fintrack/internal/calendar"

// GoalType selects how goal progress is measured.
type GoalType string

const (
	Savings           GoalType = "savings"
	SpendingReduction GoalType = "spending_reduction"
	DebtPayment       GoalType = "debt_payment"
)

// Valid reports whether g is a known goal type.
func (g GoalType) Valid() bool {
	switch g {
	case Savings, SpendingReduction, DebtPayment:
		return true
	}
	return false
}

// Goal is a target financial outcome tracked over [StartDate, TargetDate].
type Goal struct {
	ID           ID            `json:"id"`
	Type         GoalType      `json:"type"`
	Category     string        `json:"category,omitempty"`
	TargetAmount float64       `json:"targetAmount"`
	StartDate    calendar.Date `json:"startDate"`
	TargetDate   calendar.Date `json:"targetDate"`
	Description  string        `json:"description"`
}

// GoalProgress is recomputed from the transaction set on every read.
type GoalProgress struct {
	Current     float64
	Percentage  float64
	Remaining   float64
	IsCompleted bool
}
