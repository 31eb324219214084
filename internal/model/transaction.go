// Package model defines domain types for fintrack transactions, recurring
// rules, budgets and goals.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/theirongolddev/fintrack/internal/calendar"
)

// TxType is the direction of money movement.
type TxType string

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// Valid reports whether t is income or expense.
func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// ID identifies a transaction, rule or goal. Imported documents may carry
// numeric ids; they are kept as their decimal text.
type ID string

// NewID returns a fresh random id.
func NewID() ID {
	return ID(uuid.NewString())
}

func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

// Transaction is one dated movement of money. Only its tags change after creation.
type Transaction struct {
	ID          ID            `json:"id"`
	Type        TxType        `json:"type"`
	Category    string        `json:"category"`
	Amount      float64       `json:"amount"`
	Date        calendar.Date `json:"date"`
	Description string        `json:"description"`
	Tags        TagSet        `json:"tags"`
	RecurringID ID            `json:"recurringId,omitempty"`
}

// Clone returns a copy that shares no tag storage with t.
func (t Transaction) Clone() Transaction {
	t.Tags = t.Tags.Clone()
	return t
}

// IsGenerated reports whether t was materialized from a recurring rule.
func (t Transaction) IsGenerated() bool {
	return t.RecurringID != ""
}
