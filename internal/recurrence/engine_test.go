package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
)

func d(s string) calendar.Date { return calendar.MustParse(s) }

func dateStrings(ds []calendar.Date) []string {
	out := make([]string, len(ds))
	for i, x := range ds {
		out[i] = x.String()
	}
	return out
}

func TestNextOccurrenceStrictlyAfter(t *testing.T) {
	starts := []string{"2024-01-01", "2024-01-31", "2024-02-29", "2023-12-31", "2025-06-15"}
	for _, f := range model.Frequencies {
		for _, s := range starts {
			start := d(s)
			next, ok := NextOccurrence(start, f, start)
			require.True(t, ok, "%s", f)
			assert.True(t, next.After(start), "%s from %s gave %s", f, s, next)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		start string
		freq  model.Frequency
		asOf  string
		want  string
	}{
		{"2024-01-01", model.Daily, "2024-01-10", "2024-01-11"},
		{"2024-01-01", model.Weekly, "2024-01-10", "2024-01-15"},
		{"2024-01-01", model.Biweekly, "2024-01-15", "2024-01-29"},
		{"2024-01-01", model.Monthly, "2024-04-15", "2024-05-01"},
		{"2024-01-01", model.Monthly, "2024-04-01", "2024-05-01"},
		{"2024-01-31", model.Monthly, "2024-02-10", "2024-02-29"},
		{"2024-01-31", model.Monthly, "2024-02-29", "2024-03-31"},
		{"2024-01-15", model.Quarterly, "2024-04-15", "2024-07-15"},
		{"2024-02-29", model.Yearly, "2024-03-01", "2025-02-28"},
		{"2024-02-29", model.Yearly, "2027-03-01", "2028-02-29"},
		{"2030-01-01", model.Monthly, "2024-01-01", "2030-01-01"},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq)+"/"+tt.start+"/"+tt.asOf, func(t *testing.T) {
			got, ok := NextOccurrence(d(tt.start), tt.freq, d(tt.asOf))
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNextOccurrenceUnknownFrequency(t *testing.T) {
	_, ok := NextOccurrence(d("2024-01-01"), "fortnightly", d("2024-02-01"))
	assert.False(t, ok)
}

func monthlyRent() model.RecurringRule {
	return model.RecurringRule{
		ID:            "rule-1",
		Type:          model.Expense,
		Category:      "Rent",
		Amount:        1200,
		Description:   "Apartment",
		Frequency:     model.Monthly,
		StartDate:     d("2024-01-01"),
		LastGenerated: d("2024-01-01"),
		Tags:          model.NewTagSet("housing"),
	}
}

func TestGenerateDueTransactionsMonthly(t *testing.T) {
	rule := monthlyRent()
	txs, err := GenerateDueTransactions(rule, d("2024-04-15"))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	var got []string
	for _, tx := range txs {
		got = append(got, tx.Date.String())
		assert.Equal(t, rule.ID, tx.RecurringID)
		assert.Equal(t, rule.Type, tx.Type)
		assert.Equal(t, rule.Category, tx.Category)
		assert.Equal(t, rule.Amount, tx.Amount)
		assert.Equal(t, rule.Description, tx.Description)
		assert.True(t, tx.Tags.Has("housing"))
		assert.NotEmpty(t, tx.ID)
	}
	assert.Equal(t, []string{"2024-02-01", "2024-03-01", "2024-04-01"}, got)
	assert.NotEqual(t, txs[0].ID, txs[1].ID)
}

func TestGenerateDueTransactionsIdempotent(t *testing.T) {
	rule := monthlyRent()
	asOf := d("2024-04-15")
	first, err := GenerateDueTransactions(rule, asOf)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	rule.LastGenerated = asOf
	second, err := GenerateDueTransactions(rule, asOf)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestGenerateDueTransactionsAnchorsOnStart(t *testing.T) {
	// LastGenerated advanced to a check date mid-month must not shift the schedule.
	rule := monthlyRent()
	rule.LastGenerated = d("2024-04-15")
	txs, err := GenerateDueTransactions(rule, d("2024-06-20"))
	require.NoError(t, err)

	var got []string
	for _, tx := range txs {
		got = append(got, tx.Date.String())
	}
	assert.Equal(t, []string{"2024-05-01", "2024-06-01"}, got)
}

func TestGenerateDueTransactionsIncludesStartWhenNeverGenerated(t *testing.T) {
	rule := monthlyRent()
	rule.LastGenerated = calendar.Date{}
	txs, err := GenerateDueTransactions(rule, d("2024-02-01"))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2024-01-01", txs[0].Date.String())
}

func TestGenerateDueTransactionsDoesNotShareTags(t *testing.T) {
	rule := monthlyRent()
	txs, err := GenerateDueTransactions(rule, d("2024-02-01"))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	txs[0].Tags.Add("extra")
	assert.False(t, rule.Tags.Has("extra"))
}

func TestGenerateDueTransactionsUnknownFrequency(t *testing.T) {
	rule := monthlyRent()
	rule.Frequency = "hourly"
	txs, err := GenerateDueTransactions(rule, d("2024-06-01"))
	assert.ErrorIs(t, err, ErrUnknownFrequency)
	assert.Empty(t, txs)
}

func TestOccurrencesMonthEnd(t *testing.T) {
	rule := model.RecurringRule{Frequency: model.Monthly, StartDate: d("2024-01-31")}
	got, err := Occurrences(rule, rule.StartDate, d("2024-05-31"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}, dateStrings(got))
}

func TestOccurrencesQuarterlyAndBiweekly(t *testing.T) {
	q := model.RecurringRule{Frequency: model.Quarterly, StartDate: d("2023-11-30")}
	got, err := Occurrences(q, q.StartDate, d("2024-09-01"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-29", "2024-05-30", "2024-08-30"}, dateStrings(got))

	b := model.RecurringRule{Frequency: model.Biweekly, StartDate: d("2024-01-05")}
	got, err = Occurrences(b, b.StartDate, d("2024-02-16"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-19", "2024-02-02", "2024-02-16"}, dateStrings(got))
}

func TestUpcoming(t *testing.T) {
	rule := model.RecurringRule{Frequency: model.Weekly, StartDate: d("2024-01-01")}
	got, err := Upcoming(rule, d("2024-01-03"), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-08", "2024-01-15", "2024-01-22"}, dateStrings(got))
}

func TestUpcomingRejectsNegativeCount(t *testing.T) {
	rule := monthlyRent()
	got, err := Upcoming(rule, d("2024-02-01"), -1)
	require.ErrorIs(t, err, ErrInvalidCount)
	assert.Nil(t, got)

	got, err = Upcoming(rule, d("2024-02-01"), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateDueTransactionsStaysOnAnchorAcrossPasses(t *testing.T) {
	// Each pass moves LastGenerated to its own date, which is rarely a due
	// date. The emitted dates must still follow start + k months.
	rule := model.RecurringRule{
		ID: "r", Type: model.Expense, Category: "Rent", Amount: 1,
		Frequency: model.Monthly, StartDate: d("2024-01-31"),
	}
	var got []string
	for _, now := range []string{"2024-01-31", "2024-02-15", "2024-03-10", "2024-03-31", "2024-04-30"} {
		txs, err := GenerateDueTransactions(rule, d(now))
		require.NoError(t, err)
		for _, tx := range txs {
			got = append(got, tx.Date.String())
		}
		rule.LastGenerated = d(now)
	}
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, got)
}
