// Package matcher decides whether a settlement row and a Treasury payment
// denote the same real-world payment.
package matcher

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

var (
	// DefaultThreshold is the amount above which the relative tolerance applies.
	DefaultThreshold = decimal.RequireFromString("15000.00")
	// DefaultTolerance is the relative amount tolerance above the threshold (1%).
	DefaultTolerance = decimal.RequireFromString("0.01")
)

// Target is the payment being looked up.
type Target struct {
	Reference string
	Amount    decimal.Decimal
}

// Matcher compares references exactly and amounts within a tolerance band.
type Matcher struct {
	Threshold decimal.Decimal
	Tolerance decimal.Decimal
}

// New creates a Matcher with the given threshold and tolerance.
func New(threshold, tolerance decimal.Decimal) *Matcher {
	return &Matcher{
		Threshold: threshold,
		Tolerance: tolerance,
	}
}

// Default returns a Matcher using a 1% tolerance above 15000.00.
func Default() *Matcher {
	return New(DefaultThreshold, DefaultTolerance)
}

// Matches reports whether candidate denotes target.
// A candidate with a malformed amount never matches.
func (m *Matcher) Matches(candidate ledger.Row, target Target) bool {
	if candidate.Get("reference") != strings.TrimSpace(target.Reference) {
		return false
	}

	amount, err := ParseAmount(candidate.Get("amount"))
	if err != nil {
		return false
	}

	return m.AmountsMatch(amount, target.Amount)
}

// AmountsMatch compares a candidate amount with a target amount.
// Above the threshold the difference relative to the candidate amount must
// not exceed the tolerance; otherwise the amounts must be equal.
func (m *Matcher) AmountsMatch(candidate, target decimal.Decimal) bool {
	if candidate.GreaterThan(m.Threshold) && candidate.IsPositive() {
		diff := candidate.Sub(target).Abs()
		return diff.Div(candidate).LessThanOrEqual(m.Tolerance)
	}
	return candidate.Equal(target)
}

// ParseAmount parses an amount column value.
func ParseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}
