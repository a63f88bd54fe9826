// Package aging classifies payments as old or current.
//
// Two policies exist:
//   - CalendarBoundary buckets by calendar month. It is the default for both
//     routing and submission.
//   - DayThreshold counts elapsed days.
//
// They disagree near month ends (a payment dated the 31st is old by calendar on
// the 1st but not by a 30-day threshold), so callers pick one explicitly.
package aging

import (
	"fmt"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
)

// Policy decides whether a payment dated payment is old relative to ref.
type Policy interface {
	Name() string
	IsOld(payment, ref time.Time) bool
}

// Policy names accepted by ByName.
const (
	CalendarBoundaryName = "calendar-boundary"
	DayThresholdName     = "day-threshold"
)

// DefaultThresholdDays is the DayThreshold default.
const DefaultThresholdDays = 30

// CalendarBoundary treats any payment from a previous calendar month as old.
// Day of month is ignored.
type CalendarBoundary struct{}

// Name returns the policy name.
func (CalendarBoundary) Name() string { return CalendarBoundaryName }

// IsOld reports whether payment falls in a month before ref's month.
func (CalendarBoundary) IsOld(payment, ref time.Time) bool {
	if payment.Year() != ref.Year() {
		return payment.Year() < ref.Year()
	}
	return payment.Month() < ref.Month()
}

// DayThreshold treats a payment as old once Days full days have elapsed.
type DayThreshold struct {
	Days int
}

// Name returns the policy name.
func (DayThreshold) Name() string { return DayThresholdName }

// IsOld reports whether at least Days calendar days separate payment and ref.
func (d DayThreshold) IsOld(payment, ref time.Time) bool {
	return daysBetween(payment, ref) >= d.Days
}

// ByName returns the policy with the given name.
func ByName(name string, thresholdDays int) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case CalendarBoundaryName, "":
		return CalendarBoundary{}, nil
	case DayThresholdName:
		if thresholdDays <= 0 {
			thresholdDays = DefaultThresholdDays
		}
		return DayThreshold{Days: thresholdDays}, nil
	}
	return nil, fmt.Errorf("unknown age policy: %q", name)
}

// ParseDate parses a YYYY-MM-DD date column value.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(ledger.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
