package model

import "slices"

// Categories holds the user's category lists by transaction type.
type Categories struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

// DefaultCategories returns the categories a new ledger starts with.
func DefaultCategories() Categories {
	return Categories{
		Income:  []string{"Salary", "Freelance", "Investments", "Other Income"},
		Expense: []string{"Groceries", "Rent", "Utilities", "Transportation", "Dining", "Entertainment", "Healthcare", "Shopping", "Other"},
	}
}

// For returns the list for t.
func (c Categories) For(t TxType) []string {
	if t == Income {
		return c.Income
	}
	return c.Expense
}

// Has reports whether name is listed under t.
func (c Categories) Has(t TxType, name string) bool {
	return slices.Contains(c.For(t), name)
}

// Add appends name under t if it is not already there.
func (c *Categories) Add(t TxType, name string) bool {
	if name == "" || c.Has(t, name) {
		return false
	}
	if t == Income {
		c.Income = append(c.Income, name)
	} else {
		c.Expense = append(c.Expense, name)
	}
	return true
}

func (c Categories) Clone() Categories {
	return Categories{Income: slices.Clone(c.Income), Expense: slices.Clone(c.Expense)}
}
