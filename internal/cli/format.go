// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
)

// Currency is the symbol prefixed to money values. Set once at startup from config.
var Currency = "$"

// FormatMoney formats an amount with two decimals and thousands separators.
// e.g., 1234.5 -> "$1,234.50", -20 -> "-$20.00"
func FormatMoney(v float64) string {
	if v < 0 {
		return "-" + Currency + humanize.FormatFloat("#,###.##", -v)
	}
	return Currency + humanize.FormatFloat("#,###.##", v)
}

// FormatCompactMoney formats an amount with K/M suffixes for tight layouts.
// e.g., 1234 -> "$1.2K", 2500000 -> "$2.5M", 42.5 -> "$42.50"
func FormatCompactMoney(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s%s%.1fM", sign, Currency, abs/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%s%s%.0fK", sign, Currency, abs/1_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s%s%.1fK", sign, Currency, abs/1_000)
	default:
		return FormatMoney(v)
	}
}

// FormatSigned formats an amount with + for income and - for expense.
func FormatSigned(amount float64, t model.TxType) string {
	if t == model.Expense {
		return "-" + FormatMoney(amount)
	}
	return "+" + FormatMoney(amount)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a value already scaled to 0-100.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatBudgetPercent formats a budget percentage, or "no budget set" for nil.
func FormatBudgetPercent(pct *float64) string {
	if pct == nil {
		return "no budget set"
	}
	return FormatPercent(*pct)
}

// FormatDelta formats the change between two amounts with an explicit sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatMoney(delta)
	}
	return "-" + FormatMoney(-delta)
}

// FormatDate formats a date as "Mon Jan 02".
func FormatDate(d calendar.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.Time(nil).Format("Mon Jan 02")
}

// FormatMonth formats a month as "January 2024".
func FormatMonth(d calendar.Date) string {
	return d.Time(nil).Format("January 2006")
}

// FormatRelative describes d relative to today, e.g. "3 days from now".
func FormatRelative(d, today calendar.Date) string {
	if d.Equal(today) {
		return "today"
	}
	return humanize.RelTime(d.Time(nil), today.Time(nil), "ago", "from now")
}

// FormatDayOfWeek returns a 3-letter day abbreviation.
func FormatDayOfWeek(weekday time.Weekday) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && int(weekday) < len(days) {
		return days[weekday]
	}
	return "???"
}
