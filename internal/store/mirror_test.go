package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
)

func openTestMirror(t *testing.T) *Mirror {
	t.Helper()
	m, err := Open(filepath.Join(t.TempDir(), "cache", "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func sample() []model.Transaction {
	d := calendar.MustParse
	return []model.Transaction{
		{ID: "1", Type: model.Income, Category: "Salary", Amount: 3000, Date: d("2024-01-31"), Tags: model.NewTagSet("work")},
		{ID: "2", Type: model.Expense, Category: "Rent", Amount: 1200, Date: d("2024-02-01"), RecurringID: "rent", Tags: model.NewTagSet("home")},
		{ID: "3", Type: model.Expense, Category: "Dining", Amount: 45.5, Date: d("2024-02-14"), Tags: model.NewTagSet("social", "home")},
		{ID: "4", Type: model.Income, Category: "Salary", Amount: 3000, Date: d("2024-02-29")},
	}
}

func TestSyncAndMonthlyTotals(t *testing.T) {
	m := openTestMirror(t)
	require.NoError(t, m.SyncTransactions(sample()))

	n, err := m.TransactionCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	months, err := m.MonthlyTotals(calendar.Date{})
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "2024-02-01", months[0].Month.String())
	assert.Equal(t, 3, months[0].Transactions)
	assert.Equal(t, 3000.0, months[0].Income)
	assert.Equal(t, 1245.5, months[0].Expense)
	assert.Equal(t, 1754.5, months[0].Net)

	recent, err := m.MonthlyTotals(calendar.MustParse("2024-02-01"))
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestSyncReplacesPreviousRows(t *testing.T) {
	m := openTestMirror(t)
	require.NoError(t, m.SyncTransactions(sample()))
	require.NoError(t, m.SyncTransactions(sample()[:1]))

	n, err := m.TransactionCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tags, err := m.TagTotals(calendar.MustParse("2024-01-01"), calendar.MustParse("2024-12-31"))
	require.NoError(t, err)
	assert.Empty(t, tags, "tags of removed rows cascade away")
}

func TestTagTotals(t *testing.T) {
	m := openTestMirror(t)
	require.NoError(t, m.SyncTransactions(sample()))

	tags, err := m.TagTotals(calendar.MustParse("2024-02-01"), calendar.MustParse("2024-02-29"))
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, TagTotal{Tag: "home", Transactions: 2, Expense: 1245.5}, tags[0])
	assert.Equal(t, TagTotal{Tag: "social", Transactions: 1, Expense: 45.5}, tags[1])
}

func TestRunHistory(t *testing.T) {
	m := openTestMirror(t)
	base := time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, m.RecordRun(Run{
			RanAt:          base.Add(time.Duration(i) * 24 * time.Hour),
			AsOf:           calendar.FromTime(base).AddDays(i),
			Source:         "daemon",
			RulesProcessed: 2,
			Generated:      i,
			Duration:       15 * time.Millisecond,
		}))
	}

	runs, err := m.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Generated)
	assert.Equal(t, "2024-04-17", runs[0].AsOf.String())
	assert.True(t, runs[0].RanAt.Equal(base.Add(48*time.Hour)))
	assert.Equal(t, 15*time.Millisecond, runs[1].Duration)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")
	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.SyncTransactions(sample()))
	require.NoError(t, m.Close())

	m, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()
	n, err := m.TransactionCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
