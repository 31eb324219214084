package pipeline

import "github.com/shopspring/decimal"

// sum accumulates amounts in decimal so that totals and differences match
// what a user would compute by hand, without float drift.
type sum struct {
	d decimal.Decimal
}

func (s *sum) add(v float64) { s.d = s.d.Add(decimal.NewFromFloat(v)) }

func (s sum) float() float64 { return s.d.InexactFloat64() }

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// sub returns a - b computed in decimal.
func sub(a, b float64) float64 {
	return dec(a).Sub(dec(b)).InexactFloat64()
}

// percent returns part / whole * 100, or false when whole is zero.
func percent(part, whole float64) (float64, bool) {
	if whole == 0 {
		return 0, false
	}
	return dec(part).Div(dec(whole)).Mul(decimal.NewFromInt(100)).InexactFloat64(), true
}
