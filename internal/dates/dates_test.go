package dates

import (
	"testing"
	"time"
)

func TestMonthRange(t *testing.T) {
	r, ok := MonthRange(2024, 5)
	if !ok {
		t.Fatal("MonthRange(2024, 5) not ok, want a range")
	}
	if got := r.StartDate; got != "2024-05-01" {
		t.Errorf("StartDate = %q, want %q", got, "2024-05-01")
	}
	if got := r.EndDate; got != "2024-06-01" {
		t.Errorf("EndDate = %q, want %q", got, "2024-06-01")
	}
	if !r.Start.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v, want 2024-05-01T00:00:00Z", r.Start)
	}
}

func TestMonthRange_DecemberRollsIntoNextYear(t *testing.T) {
	r, ok := MonthRange(2024, 12)
	if !ok {
		t.Fatal("MonthRange(2024, 12) not ok, want a range")
	}
	if r.StartDate != "2024-12-01" {
		t.Errorf("StartDate = %q, want %q", r.StartDate, "2024-12-01")
	}
	if r.EndDate != "2025-01-01" {
		t.Errorf("EndDate = %q, want %q", r.EndDate, "2025-01-01")
	}
}

func TestMonthRange_LeapFebruary(t *testing.T) {
	// The half-open upper bound makes February's length irrelevant.
	r, ok := MonthRange(2024, 2)
	if !ok {
		t.Fatal("MonthRange(2024, 2) not ok, want a range")
	}
	if r.EndDate != "2024-03-01" {
		t.Errorf("EndDate = %q, want %q", r.EndDate, "2024-03-01")
	}
}

func TestMonthRange_BothOrNeither(t *testing.T) {
	// Supplying only one of (year, month) must behave exactly like
	// supplying neither: no filter at all.
	cases := []struct {
		name        string
		year, month int
	}{
		{"neither", 0, 0},
		{"year only", 2024, 0},
		{"month only", 0, 6},
		{"month too small", 2024, -1},
		{"month too large", 2024, 13},
		{"negative year", -5, 6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := MonthRange(tc.year, tc.month); ok {
				t.Errorf("MonthRange(%d, %d) ok = true, want no filter", tc.year, tc.month)
			}
		})
	}
}
