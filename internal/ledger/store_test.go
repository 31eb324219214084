package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/logging"
	"github.com/theirongolddev/fintrack/internal/model"
)

func d(s string) calendar.Date { return calendar.MustParse(s) }

func fixedToday(s string) func() calendar.Date {
	return func() calendar.Date { return d(s) }
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(DefaultDocument(), Options{Logger: logging.Discard(), Today: fixedToday("2024-04-15")})
	t.Cleanup(s.Close)
	return s
}

func rent() model.RecurringRule {
	return model.RecurringRule{
		Type:          model.Expense,
		Category:      "Rent",
		Amount:        1200,
		Description:   "Apartment",
		Frequency:     model.Monthly,
		StartDate:     d("2024-01-01"),
		LastGenerated: d("2024-01-01"),
	}
}

func TestAddTransactionValidates(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddTransaction(model.Transaction{Type: model.Expense, Category: "", Amount: 5, Date: d("2024-01-01")})
	assert.ErrorIs(t, err, model.ErrMissingCategory)

	_, err = s.AddTransaction(model.Transaction{Type: model.Expense, Category: "Coffee", Amount: -5, Date: d("2024-01-01")})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	assert.Empty(t, s.Transactions())

	tx, err := s.AddTransaction(model.Transaction{Type: model.Expense, Category: " Coffee ", Amount: 5, Date: d("2024-01-01")})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "Coffee", tx.Category)
	assert.True(t, s.Categories().Has(model.Expense, "Coffee"), "new categories are registered")
	assert.True(t, s.Dirty())
}

func TestTags(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.AddTransaction(model.Transaction{Type: model.Expense, Category: "Dining", Amount: 30, Date: d("2024-02-01")})
	require.NoError(t, err)

	added, err := s.AddTag(tx.ID, "date-night")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddTag(tx.ID, "date-night")
	require.NoError(t, err)
	assert.False(t, added, "tags are a set")

	got, err := s.Transaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"date-night"}, got.Tags.Slice())

	removed, err := s.RemoveTag(tx.ID, "date-night")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.AddTag("missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadsReturnCopies(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.AddTransaction(model.Transaction{Type: model.Expense, Category: "Dining", Amount: 30, Date: d("2024-02-01"), Tags: model.NewTagSet("a")})
	require.NoError(t, err)

	txs := s.Transactions()
	txs[0].Tags.Add("b")
	txs[0].Amount = 1

	got, err := s.Transaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Amount)
	assert.False(t, got.Tags.Has("b"))
}

func TestRegenerate(t *testing.T) {
	s := newTestStore(t)
	rule, err := s.AddRule(rent())
	require.NoError(t, err)

	future := rent()
	future.StartDate = d("2025-01-01")
	future.LastGenerated = calendar.Date{}
	_, err = s.AddRule(future)
	require.NoError(t, err)

	res := s.Regenerate(d("2024-04-15"))
	assert.Equal(t, 3, res.Generated)
	assert.Equal(t, 1, res.RulesProcessed)
	assert.Equal(t, 1, res.RulesSkipped)
	assert.Empty(t, res.Failed)

	var dates []string
	for _, tx := range s.Transactions() {
		assert.Equal(t, rule.ID, tx.RecurringID)
		dates = append(dates, tx.Date.String())
	}
	assert.Equal(t, []string{"2024-02-01", "2024-03-01", "2024-04-01"}, dates)

	for _, r := range s.Rules() {
		if r.ID == rule.ID {
			assert.Equal(t, "2024-04-15", r.LastGenerated.String())
		}
	}

	again := s.Regenerate(d("2024-04-15"))
	assert.Zero(t, again.Generated, "second pass on the same day appends nothing")
	assert.Len(t, s.Transactions(), 3)

	later := s.Regenerate(d("2024-05-20"))
	require.Equal(t, 1, later.Generated)
	assert.Equal(t, "2024-05-01", later.Transactions[0].Date.String(), "schedule stays on the first of the month")
}

func TestRegenerateSkipsBadRule(t *testing.T) {
	doc := DefaultDocument()
	bad := rent()
	bad.ID = "bad"
	bad.Frequency = "every-other-tuesday"
	good := rent()
	good.ID = "good"
	doc.Rules = []model.RecurringRule{bad, good}

	var logs bytes.Buffer
	logger, err := logging.New("warn", logging.FormatJSON, &logs)
	require.NoError(t, err)

	s := New(doc, Options{Logger: logger})
	defer s.Close()

	res := s.Regenerate(d("2024-03-15"))
	assert.Equal(t, 2, res.Generated)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, model.ID("bad"), res.Failed[0].RuleID)
	assert.Contains(t, logs.String(), `"rule_id":"bad"`)

	for _, r := range s.Rules() {
		if r.ID == "bad" {
			assert.Equal(t, "2024-01-01", r.LastGenerated.String(), "failed rule is left untouched")
		}
	}
}

func TestRegenerateNeverMovesMarkerBack(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddRule(rent())
	require.NoError(t, err)
	s.Regenerate(d("2024-04-15"))
	s.Regenerate(d("2024-03-01"))

	assert.Equal(t, "2024-04-15", s.Rules()[0].LastGenerated.String())
	s.Regenerate(d("2024-04-15"))
	assert.Len(t, s.Transactions(), 3)
}

func TestDeleteRuleCascades(t *testing.T) {
	s := newTestStore(t)
	rule, err := s.AddRule(rent())
	require.NoError(t, err)
	_, err = s.AddTransaction(model.Transaction{Type: model.Expense, Category: "Dining", Amount: 12, Date: d("2024-02-02")})
	require.NoError(t, err)
	s.Regenerate(d("2024-04-15"))
	require.Len(t, s.Transactions(), 4)

	n, err := s.DeleteRule(rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, s.Transactions(), 1)
	assert.Empty(t, s.Rules())

	_, err = s.DeleteRule(rule.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBudgetsAndGoals(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetBudget("Groceries", 500))
	assert.ErrorIs(t, s.SetBudget("Groceries", -1), model.ErrInvalidAmount)

	for _, amt := range []float64{100, 50} {
		_, err := s.AddTransaction(model.Transaction{Type: model.Expense, Category: "Groceries", Amount: amt, Date: d("2024-04-03")})
		require.NoError(t, err)
	}

	st := s.BudgetStatus(d("2024-04-15"))
	require.Len(t, st, 1)
	assert.Equal(t, 150.0, st[0].Spent)
	assert.Equal(t, 350.0, st[0].Remaining)

	// Cached result must follow writes.
	_, err := s.AddTransaction(model.Transaction{Type: model.Expense, Category: "Groceries", Amount: 50, Date: d("2024-04-10")})
	require.NoError(t, err)
	st = s.BudgetStatus(d("2024-04-15"))
	assert.Equal(t, 200.0, st[0].Spent)

	_, err = s.AddGoal(model.Goal{Type: model.Savings, TargetAmount: 0, StartDate: d("2024-01-01"), TargetDate: d("2024-12-31")})
	assert.ErrorIs(t, err, model.ErrInvalidTarget)

	g, err := s.AddGoal(model.Goal{Type: model.SpendingReduction, TargetAmount: 1000, StartDate: d("2024-04-01"), TargetDate: d("2024-04-30")})
	require.NoError(t, err)
	reports := s.GoalReports()
	require.Len(t, reports, 1)
	assert.Equal(t, 800.0, reports[0].Progress.Current)

	require.NoError(t, s.DeleteGoal(g.ID))
	assert.ErrorIs(t, s.DeleteGoal(g.ID), ErrNotFound)
	require.NoError(t, s.DeleteBudget("Groceries"))
	assert.ErrorIs(t, s.DeleteBudget("Groceries"), ErrNotFound)
}

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	s, err := Open(path, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, s.Transactions())
	assert.Equal(t, model.DefaultCategories(), s.Categories())
}

func TestOpenCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"transactions": [`), 0o600))

	s, err := Open(path, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, s.Transactions())
	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err, "bad file is kept for inspection")
}

func TestOpenAcceptsLegacyKeysAndFillsMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	legacy := `{
		"transactions": [{"id": 17, "type": "expense", "category": "Rent", "amount": 900, "date": "2024-02-01T00:00:00.000Z", "description": "", "tags": ["home", "home"]}],
		"recurring": [{"id": "r1", "type": "expense", "category": "Rent", "amount": 900, "description": "", "frequency": "monthly", "startDate": "2024-01-01", "lastGenerated": "2024-02-01", "tags": []}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	s, err := Open(path, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	defer s.Close()

	txs := s.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, model.ID("17"), txs[0].ID)
	assert.Equal(t, "2024-02-01", txs[0].Date.String())
	assert.Equal(t, 1, txs[0].Tags.Len())
	require.Len(t, s.Rules(), 1)
	assert.NotNil(t, s.Budgets())
	assert.Equal(t, model.DefaultCategories(), s.Categories())
}

func TestOpenRegeneratesOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	doc := DefaultDocument()
	r := rent()
	r.ID = "rent"
	doc.Rules = append(doc.Rules, r)
	b, err := encodeDocument(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	s, err := Open(path, Options{Logger: logging.Discard(), Regenerate: true, Today: fixedToday("2024-04-15")})
	require.NoError(t, err)
	defer s.Close()
	assert.Len(t, s.Transactions(), 3)
	assert.True(t, s.Dirty())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")
	s, err := Open(path, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.AddTransaction(model.Transaction{Type: model.Income, Category: "Salary", Amount: 3000, Date: d("2024-02-01"), Tags: model.NewTagSet("work")})
	require.NoError(t, err)
	require.NoError(t, s.SetBudget("Dining", 200))
	require.NoError(t, s.Save())
	assert.False(t, s.Dirty())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := Open(path, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, s.Document(), reopened.Document())
}

func TestSaveWithoutPath(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.Save(), ErrNoPath)
}

func seeded(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	_, err := s.AddRule(rent())
	require.NoError(t, err)
	_, err = s.AddTransaction(model.Transaction{Type: model.Income, Category: "Salary", Amount: 3000.5, Date: d("2024-02-01"), Description: "Feb pay", Tags: model.NewTagSet("work", "monthly")})
	require.NoError(t, err)
	require.NoError(t, s.SetBudget("Groceries", 500))
	require.NoError(t, s.SetBudget("Dining", 0))
	_, err = s.AddGoal(model.Goal{Type: model.DebtPayment, Category: "Loan", TargetAmount: 2500, StartDate: d("2024-01-01"), TargetDate: d("2024-12-31"), Description: "car"})
	require.NoError(t, err)
	s.Regenerate(d("2024-04-15"))
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	src := seeded(t)
	at := time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)

	var first bytes.Buffer
	require.NoError(t, src.Export(&first, at))

	dst := newTestStore(t)
	_, err := dst.Import(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)

	var second bytes.Buffer
	require.NoError(t, dst.Export(&second, at))
	assert.Equal(t, first.String(), second.String())

	var a, b map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(first.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Bytes(), &b))
	for _, key := range []string{"transactions", "budgets", "goals"} {
		assert.Equal(t, string(a[key]), string(b[key]), key)
	}
	assert.Equal(t, `"1.0"`, string(a["version"]))
	assert.Equal(t, `"2024-04-15T10:00:00Z"`, string(a["exportDate"]))
}

func TestImportRequiresEnvelope(t *testing.T) {
	s := newTestStore(t)
	tests := []struct {
		name string
		body string
		want error
	}{
		{"no version", `{"exportDate":"2024-01-01T00:00:00Z","transactions":[]}`, ErrMissingVersion},
		{"empty version", `{"version":"","exportDate":"2024-01-01T00:00:00Z"}`, ErrMissingVersion},
		{"no export date", `{"version":"1.0","transactions":[]}`, ErrMissingExportDate},
		{"future major", `{"version":"2.0","exportDate":"2024-01-01T00:00:00Z"}`, ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Import(strings.NewReader(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestImportRejectsInvalidEntitiesAtomically(t *testing.T) {
	s := seeded(t)
	before := s.Document()

	body := `{
		"version": "1.0",
		"exportDate": "2024-01-01T00:00:00Z",
		"transactions": [
			{"id": "a", "type": "expense", "category": "Rent", "amount": 10, "date": "2024-01-02", "description": "", "tags": []},
			{"id": "b", "type": "expense", "category": "", "amount": 10, "date": "2024-01-02", "description": "", "tags": []}
		],
		"goals": [{"id": "g", "type": "savings", "targetAmount": 0, "startDate": "2024-01-01", "targetDate": "2024-06-01", "description": ""}],
		"budgets": {"Rent": -4}
	}`
	_, err := s.Import(strings.NewReader(body))
	require.Error(t, err)

	var ie *ImportError
	require.True(t, errors.As(err, &ie))
	assert.ErrorIs(t, err, model.ErrMissingCategory)
	assert.ErrorIs(t, err, model.ErrInvalidTarget)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	assert.Equal(t, before, s.Document(), "nothing applied")
}

func TestImportAcceptsRecurringAlias(t *testing.T) {
	body := `{"version":"1.0","exportDate":"2024-01-01T00:00:00Z","recurring":[{"id":"r","type":"income","category":"Salary","amount":100,"description":"","frequency":"weekly","startDate":"2024-01-01","tags":[]}]}`
	doc, err := ParseExport(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, doc.Rules, 1)
	assert.Equal(t, model.Weekly, doc.Rules[0].Frequency)
}

func TestSaveRefusesToOverwriteNewerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	opts := Options{Logger: logging.Discard(), Today: fixedToday("2024-04-15")}

	stale, err := Open(path, opts)
	require.NoError(t, err)
	defer stale.Close()

	other, err := Open(path, opts)
	require.NoError(t, err)
	defer other.Close()
	_, err = other.AddTransaction(model.Transaction{Type: model.Expense, Category: "Groceries", Amount: 42, Date: d("2024-04-14")})
	require.NoError(t, err)
	require.NoError(t, other.Save())

	require.NoError(t, stale.SetBudget("Dining", 100))
	assert.ErrorIs(t, stale.Save(), ErrConflict)

	// After a reload the other writer's transaction is there and saving works.
	require.NoError(t, stale.Reload())
	assert.False(t, stale.Dirty())
	require.Len(t, stale.Transactions(), 1)
	assert.Equal(t, "Groceries", stale.Transactions()[0].Category)
	require.NoError(t, stale.SetBudget("Dining", 100))
	require.NoError(t, stale.Save())

	reopened, err := Open(path, opts)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Len(t, reopened.Transactions(), 1)
	assert.Equal(t, 100.0, reopened.Budgets()["Dining"])
}

func TestReloadKeepsUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	s, err := Open(path, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"transactions": [`), 0o600))
	assert.Error(t, s.Reload())
	_, err = os.Stat(path)
	assert.NoError(t, err, "reload must not move the file aside")

	assert.ErrorIs(t, newTestStore(t).Reload(), ErrNoPath)
}

func TestBudgetStatusDoesNotShareCachedPercentages(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetBudget("Dining", 100))
	_, err := s.AddTransaction(model.Transaction{Type: model.Expense, Category: "Dining", Amount: 25, Date: d("2024-04-10")})
	require.NoError(t, err)

	first := s.BudgetStatus(d("2024-04-15"))
	require.Len(t, first, 1)
	require.NotNil(t, first[0].Percentage)
	*first[0].Percentage = 999

	again := s.BudgetStatus(d("2024-04-15"))
	require.NotNil(t, again[0].Percentage)
	assert.Equal(t, 25.0, *again[0].Percentage)

	*again[0].Percentage = 1
	third := s.BudgetStatus(d("2024-04-15"))
	assert.Equal(t, 25.0, *third[0].Percentage)
}
