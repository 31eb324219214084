package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-01-31", 2, "2024-03-31"},
		{"2024-01-31", 3, "2024-04-30"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-12-15", 1, "2025-01-15"},
		{"2024-11-30", 3, "2025-02-28"},
		{"2024-01-01", 0, "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			got := MustParse(tt.from).AddMonths(tt.n)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestAddYearsLeapDay(t *testing.T) {
	leap := MustParse("2024-02-29")
	assert.Equal(t, "2025-02-28", leap.AddYears(1).String())
	assert.Equal(t, "2028-02-29", leap.AddYears(4).String())
}

func TestMonthBounds(t *testing.T) {
	d := MustParse("2024-02-17")
	assert.Equal(t, "2024-02-01", d.StartOfMonth().String())
	assert.Equal(t, "2024-02-29", d.EndOfMonth().String())
	assert.Equal(t, 31, DaysIn(2024, time.December))
}

func TestBetweenInclusive(t *testing.T) {
	lo, hi := MustParse("2024-01-01"), MustParse("2024-01-31")
	assert.True(t, lo.Between(lo, hi))
	assert.True(t, hi.Between(lo, hi))
	assert.False(t, hi.AddDays(1).Between(lo, hi))
	assert.False(t, lo.AddDays(-1).Between(lo, hi))
}

func TestParseAcceptsTimestamps(t *testing.T) {
	d, err := Parse("2024-02-01T00:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", d.String())

	d, err = Parse("2024-02-01T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", d.String(), "date part is kept as written")

	_, err = Parse("02/01/2024")
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	type wrap struct {
		D Date `json:"d"`
		Z Date `json:"z,omitzero"`
	}
	b, err := json.Marshal(wrap{D: MustParse("2024-03-09")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-03-09"}`, string(b))

	var w wrap
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-03-09T12:00:00Z","z":null}`), &w))
	assert.Equal(t, "2024-03-09", w.D.String())
	assert.True(t, w.Z.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"d":20240309}`), &w))
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 29, MustParse("2024-02-01").DaysUntil(MustParse("2024-03-01")))
	assert.Equal(t, -1, MustParse("2024-03-01").DaysUntil(MustParse("2024-02-29")))
}
