package academicyear

import (
	"fmt"
	"testing"
	"time"
)

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
}

func TestCurrentAugustOnward(t *testing.T) {
	for month := 8; month <= 12; month++ {
		for _, year := range []int{2023, 2024, 2025} {
			got := Current(date(year, month, 15))
			want := Year(fmt.Sprintf("%d-%d", year, year+1))
			if got != want {
				t.Fatalf("month %d year %d: expected %s, got %s", month, year, want, got)
			}
		}
	}
}

func TestCurrentJanuaryToJuly(t *testing.T) {
	for month := 1; month <= 7; month++ {
		for _, year := range []int{2023, 2024, 2025} {
			got := Current(date(year, month, 15))
			want := Year(fmt.Sprintf("%d-%d", year-1, year))
			if got != want {
				t.Fatalf("month %d year %d: expected %s, got %s", month, year, want, got)
			}
		}
	}
}

func TestCurrentScenarios(t *testing.T) {
	if got := Current(date(2025, 9, 15)); got != "2025-2026" {
		t.Fatalf("expected 2025-2026, got %s", got)
	}
	if got := Current(date(2025, 3, 1)); got != "2024-2025" {
		t.Fatalf("expected 2024-2025, got %s", got)
	}
}

func TestFromDateBoundaries(t *testing.T) {
	if got := FromDate(date(2025, 7, 31)); got != "2024-2025" {
		t.Fatalf("July 31 should close the year, got %s", got)
	}
	if got := FromDate(date(2025, 8, 1)); got != "2025-2026" {
		t.Fatalf("August 1 should open the year, got %s", got)
	}
}

func TestWindowOrderedAndContiguous(t *testing.T) {
	now := date(2025, 10, 1)
	years := Window(2, 1, now)
	if len(years) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(years))
	}
	seen := map[Year]bool{}
	for i, y := range years {
		if seen[y] {
			t.Fatalf("duplicate year %s", y)
		}
		seen[y] = true
		if i > 0 && y.StartYear() != years[i-1].StartYear()+1 {
			t.Fatalf("expected consecutive start years, got %s after %s", y, years[i-1])
		}
	}
	if !seen[Current(now)] {
		t.Fatalf("window must contain the current year")
	}
}

func TestWindowClampsNegativeBounds(t *testing.T) {
	now := date(2025, 10, 1)
	years := Window(-3, -1, now)
	if len(years) != 1 || years[0] != Current(now) {
		t.Fatalf("expected just the current year, got %v", years)
	}
}

func TestIsCurrent(t *testing.T) {
	for _, now := range []time.Time{date(2024, 2, 1), date(2024, 8, 1), date(2025, 12, 31)} {
		if !IsCurrent(Current(now), now) {
			t.Fatalf("current year must be current at %s", now)
		}
		if IsCurrent(Make(Current(now).StartYear()+1), now) {
			t.Fatalf("next year must not be current at %s", now)
		}
	}
}

func TestValid(t *testing.T) {
	cases := map[Year]bool{
		"2025-2026": true,
		"1999-2000": true,
		"2025-2027": false,
		"2025":      false,
		"":          false,
		"abcd-efgh": false,
		"25-26":     false,
	}
	for label, want := range cases {
		if got := label.Valid(); got != want {
			t.Fatalf("Valid(%q): expected %v, got %v", label, want, got)
		}
	}
}
