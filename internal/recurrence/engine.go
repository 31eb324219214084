// Package recurrence schedules recurring rules and materializes their due
// occurrences as transactions.
//
// Every schedule is anchored on the rule's start date: the k-th occurrence is
// start + k steps, computed directly rather than by stepping the previous
// occurrence, so month-end rules (Jan 31 -> Feb 29 -> Mar 31) never drift.
package recurrence

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/model"
)

// ErrUnknownFrequency is returned for a rule whose frequency has no stepper.
var ErrUnknownFrequency = errors.New("unknown frequency")

// ErrInvalidCount is returned for a negative number of occurrences.
var ErrInvalidCount = errors.New("occurrence count must not be negative")

// Stepper advances a date by n periods of one frequency.
type Stepper func(d calendar.Date, n int) calendar.Date

func days(per int) Stepper {
	return func(d calendar.Date, n int) calendar.Date { return d.AddDays(per * n) }
}

func months(per int) Stepper {
	return func(d calendar.Date, n int) calendar.Date { return d.AddMonths(per * n) }
}

var steppers = map[model.Frequency]Stepper{
	model.Daily:     days(1),
	model.Weekly:    days(7),
	model.Biweekly:  days(14),
	model.Monthly:   months(1),
	model.Quarterly: months(3),
	model.Yearly:    months(12),
}

// StepperFor returns the stepper registered for freq.
func StepperFor(freq model.Frequency) (Stepper, error) {
	s, ok := steppers[freq]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, freq)
	}
	return s, nil
}

// Step returns d advanced by n periods of freq. ok is false for an unknown frequency.
func Step(d calendar.Date, freq model.Frequency, n int) (calendar.Date, bool) {
	s, err := StepperFor(freq)
	if err != nil {
		return calendar.Date{}, false
	}
	return s(d, n), true
}

// firstAfter returns the smallest k >= 0 with step(start, k) > after.
func firstAfter(start, after calendar.Date, step Stepper) int {
	if start.After(after) {
		return 0
	}
	// Jump close using the average period length, then walk. The estimate
	// may overshoot by one for clamped months, so back off first.
	period := start.DaysUntil(step(start, 1))
	k := 0
	if period > 0 {
		k = start.DaysUntil(after) / period
	}
	for k > 0 && step(start, k).After(after) {
		k--
	}
	for !step(start, k).After(after) {
		k++
	}
	return k
}

// NextOccurrence returns the first scheduled date of (start, freq) strictly
// after asOf. When start itself is after asOf, start is returned. ok is false
// for an unknown frequency, which callers treat as "no further occurrences".
func NextOccurrence(start calendar.Date, freq model.Frequency, asOf calendar.Date) (calendar.Date, bool) {
	step, err := StepperFor(freq)
	if err != nil {
		return calendar.Date{}, false
	}
	return step(start, firstAfter(start, asOf, step)), true
}

// Occurrences returns every scheduled date s of the rule with after < s <= asOf,
// ascending. A zero after makes the start date itself eligible.
func Occurrences(rule model.RecurringRule, after, asOf calendar.Date) ([]calendar.Date, error) {
	step, err := StepperFor(rule.Frequency)
	if err != nil {
		return nil, err
	}
	if rule.StartDate.IsZero() {
		return nil, fmt.Errorf("rule %s: start date: %w", rule.ID, model.ErrMissingDate)
	}

	k := 0
	if !after.IsZero() {
		k = firstAfter(rule.StartDate, after, step)
	}
	var out []calendar.Date
	for d := step(rule.StartDate, k); !d.After(asOf); d = step(rule.StartDate, k) {
		out = append(out, d)
		k++
	}
	return out, nil
}

// GenerateDueTransactions materializes every occurrence of rule in
// (rule.LastGenerated, asOf]. It does not modify rule; the caller persists the
// result and advances LastGenerated.
func GenerateDueTransactions(rule model.RecurringRule, asOf calendar.Date) ([]model.Transaction, error) {
	dates, err := Occurrences(rule, rule.LastGenerated, asOf)
	if err != nil {
		return nil, err
	}
	txs := make([]model.Transaction, 0, len(dates))
	for _, d := range dates {
		txs = append(txs, model.Transaction{
			ID:          model.NewID(),
			Type:        rule.Type,
			Category:    rule.Category,
			Amount:      rule.Amount,
			Date:        d,
			Description: rule.Description,
			Tags:        rule.Tags.Clone(),
			RecurringID: rule.ID,
		})
	}
	return txs, nil
}

// Upcoming returns the next n scheduled dates after asOf.
func Upcoming(rule model.RecurringRule, asOf calendar.Date, n int) ([]calendar.Date, error) {
	if n < 0 {
		return nil, fmt.Errorf("upcoming %d: %w", n, ErrInvalidCount)
	}
	step, err := StepperFor(rule.Frequency)
	if err != nil {
		return nil, err
	}
	k := firstAfter(rule.StartDate, asOf, step)
	out := make([]calendar.Date, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, step(rule.StartDate, k+i))
	}
	return out, nil
}
