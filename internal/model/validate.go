package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrMissingCategory  = errors.New("missing category")
	ErrInvalidType      = errors.New("invalid type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrMissingDate      = errors.New("missing date")
	ErrInvalidDateRange = errors.New("target date must be after start date")
	ErrInvalidTarget    = errors.New("target amount must be greater than zero")
)

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	return slices.Contains(Frequencies, f)
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrMissingCategory
	}
	if !validAmount(t.Amount) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, t.Amount)
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrMissingCategory
	}
	if !validAmount(r.Amount) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, r.Amount)
	}
	if !r.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("start date: %w", ErrMissingDate)
	}
	if !r.LastGenerated.IsZero() && r.LastGenerated.Before(r.StartDate) {
		return fmt.Errorf("last generated %s precedes start date %s: %w", r.LastGenerated, r.StartDate, ErrInvalidDateRange)
	}
	return nil
}

func (g Goal) Validate() error {
	if !g.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, g.Type)
	}
	if !(g.TargetAmount > 0) || math.IsInf(g.TargetAmount, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTarget, g.TargetAmount)
	}
	if g.StartDate.IsZero() || g.TargetDate.IsZero() {
		return ErrMissingDate
	}
	if !g.TargetDate.After(g.StartDate) {
		return ErrInvalidDateRange
	}
	if g.Type == DebtPayment && strings.TrimSpace(g.Category) == "" {
		return fmt.Errorf("debt payment goal: %w", ErrMissingCategory)
	}
	return nil
}

// ValidateBudget checks a single category limit.
func ValidateBudget(category string, limit float64) error {
	if strings.TrimSpace(category) == "" {
		return ErrMissingCategory
	}
	if !validAmount(limit) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, limit)
	}
	return nil
}
