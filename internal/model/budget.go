package model

// BudgetStatus is the derived month-to-date view of one category budget.
type BudgetStatus struct {
	Category   string
	Budget     float64
	Spent      float64
	Remaining  float64  // may be negative
	Percentage *float64 // nil when Budget is zero
}

// HasLimit reports whether a non-zero limit is set.
func (b BudgetStatus) HasLimit() bool {
	return b.Percentage != nil
}

// Over reports whether spending has passed the limit.
func (b BudgetStatus) Over() bool {
	return b.Remaining < 0
}
