package ledger

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/theirongolddev/fintrack/internal/model"
)

// Document is the persisted state of a ledger.
type Document struct {
	Transactions []model.Transaction   `json:"transactions"`
	Rules        []model.RecurringRule `json:"recurringTransactions"`
	Categories   model.Categories      `json:"categories"`
	Budgets      map[string]float64    `json:"budgets"`
	Goals        []model.Goal          `json:"goals"`
}

// DefaultDocument is an empty ledger with the default categories.
func DefaultDocument() Document {
	return Document{
		Transactions: []model.Transaction{},
		Rules:        []model.RecurringRule{},
		Categories:   model.DefaultCategories(),
		Budgets:      map[string]float64{},
		Goals:        []model.Goal{},
	}
}

// rawDocument accepts both rule keys used by older files.
type rawDocument struct {
	Transactions          []model.Transaction   `json:"transactions"`
	RecurringTransactions []model.RecurringRule `json:"recurringTransactions"`
	Recurring             []model.RecurringRule `json:"recurring"`
	Categories            *model.Categories     `json:"categories"`
	Budgets               map[string]float64    `json:"budgets"`
	Goals                 []model.Goal          `json:"goals"`
}

func (r rawDocument) document() Document {
	doc := Document{
		Transactions: r.Transactions,
		Rules:        r.RecurringTransactions,
		Budgets:      r.Budgets,
		Goals:        r.Goals,
	}
	if doc.Rules == nil {
		doc.Rules = r.Recurring
	}
	if r.Categories != nil {
		doc.Categories = *r.Categories
	}
	return doc.normalized()
}

// normalized fills missing collections so the document always marshals with
// every key present.
func (d Document) normalized() Document {
	if d.Transactions == nil {
		d.Transactions = []model.Transaction{}
	}
	if d.Rules == nil {
		d.Rules = []model.RecurringRule{}
	}
	if d.Budgets == nil {
		d.Budgets = map[string]float64{}
	}
	if d.Goals == nil {
		d.Goals = []model.Goal{}
	}
	if len(d.Categories.Income) == 0 && len(d.Categories.Expense) == 0 {
		d.Categories = model.DefaultCategories()
	}
	if d.Categories.Income == nil {
		d.Categories.Income = []string{}
	}
	if d.Categories.Expense == nil {
		d.Categories.Expense = []string{}
	}
	return d
}

// Clone deep-copies d.
func (d Document) Clone() Document {
	c := Document{
		Transactions: make([]model.Transaction, len(d.Transactions)),
		Rules:        make([]model.RecurringRule, len(d.Rules)),
		Categories:   d.Categories.Clone(),
		Budgets:      maps.Clone(d.Budgets),
		Goals:        append([]model.Goal(nil), d.Goals...),
	}
	for i, tx := range d.Transactions {
		c.Transactions[i] = tx.Clone()
	}
	for i, r := range d.Rules {
		c.Rules[i] = r.Clone()
	}
	return c.normalized()
}

// decodeDocument parses a persisted ledger file.
func decodeDocument(b []byte) (Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(b, &raw); err != nil {
		return Document{}, fmt.Errorf("parsing ledger: %w", err)
	}
	return raw.document(), nil
}

func encodeDocument(d Document) ([]byte, error) {
	b, err := json.MarshalIndent(d.normalized(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding ledger: %w", err)
	}
	return append(b, '\n'), nil
}
