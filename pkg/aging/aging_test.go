package aging

import (
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestCalendarBoundary(t *testing.T) {
	ref := time.Date(2026, time.October, 18, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		payment  string
		expected bool
	}{
		{"first of current month", "2026-10-01", false},
		{"today", "2026-10-18", false},
		{"last day of previous month", "2026-09-30", true},
		{"first day of previous month", "2026-09-01", true},
		{"previous year later month", "2025-12-15", true},
		{"next month", "2026-11-01", false},
	}

	policy := CalendarBoundary{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := policy.IsOld(date(t, tt.payment), ref)
			if result != tt.expected {
				t.Errorf("IsOld(%s) = %v, expected %v", tt.payment, result, tt.expected)
			}
		})
	}
}

func TestCalendarBoundaryYearStart(t *testing.T) {
	ref := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !(CalendarBoundary{}).IsOld(date(t, "2026-12-31"), ref) {
		t.Error("expected December payment to be old in January")
	}
}

func TestDayThreshold(t *testing.T) {
	ref := time.Date(2026, time.October, 18, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name     string
		payment  string
		expected bool
	}{
		{"29 days", "2026-09-19", false},
		{"30 days", "2026-09-18", true},
		{"same day", "2026-10-18", false},
		{"previous month but recent", "2026-09-30", false},
	}

	policy := DayThreshold{Days: 30}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := policy.IsOld(date(t, tt.payment), ref)
			if result != tt.expected {
				t.Errorf("IsOld(%s) = %v, expected %v", tt.payment, result, tt.expected)
			}
		})
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		days     int
		expected Policy
		wantErr  bool
	}{
		{"empty defaults to calendar", "", 0, CalendarBoundary{}, false},
		{"calendar", "calendar-boundary", 0, CalendarBoundary{}, false},
		{"day threshold", "Day-Threshold", 45, DayThreshold{Days: 45}, false},
		{"day threshold default days", "day-threshold", 0, DayThreshold{Days: DefaultThresholdDays}, false},
		{"unknown", "fiscal-year", 0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ByName(tt.input, tt.days)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ByName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("ByName(%q) = %#v, expected %#v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseDateRejectsOtherLayouts(t *testing.T) {
	for _, s := range []string{"18/10/2026", "2026-10-18 10:00:00", "", "2026-13-01"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) expected error", s)
		}
	}
}
