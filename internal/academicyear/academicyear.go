// Package academicyear computes school-year labels. An academic year runs
// from August 1 of its start year through July 31 of the following year and
// is labelled "YYYY-YYYY", e.g. "2025-2026".
package academicyear

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Year string

const (
	DefaultYearsBack    = 3
	DefaultYearsForward = 2
)

// Current returns the academic year in effect at the given instant.
// August or later belongs to the year starting in the current calendar year,
// January through July to the year started in the previous one.
func Current(now time.Time) Year {
	return FromDate(now)
}

// FromDate buckets an arbitrary date into its academic year.
func FromDate(t time.Time) Year {
	startYear := t.Year()
	if int(t.Month()) < 8 {
		startYear--
	}
	return Make(startYear)
}

// Make builds the label for the year starting in startYear.
func Make(startYear int) Year {
	return Year(fmt.Sprintf("%d-%d", startYear, startYear+1))
}

// Window enumerates selectable years: yearsBack years before the current one,
// the current one, then yearsForward after, ascending. Negative bounds are
// treated as zero.
func Window(yearsBack, yearsForward int, now time.Time) []Year {
	if yearsBack < 0 {
		yearsBack = 0
	}
	if yearsForward < 0 {
		yearsForward = 0
	}
	currentStart := Current(now).StartYear()
	years := make([]Year, 0, yearsBack+yearsForward+1)
	for start := currentStart - yearsBack; start <= currentStart+yearsForward; start++ {
		years = append(years, Make(start))
	}
	return years
}

// IsCurrent reports whether y is the academic year in effect at now.
func IsCurrent(y Year, now time.Time) bool {
	return y == Current(now)
}

// StartYear parses the leading year of the label. Labels are generated, never
// user-typed; a malformed label yields zero.
func (y Year) StartYear() int {
	head, _, ok := strings.Cut(string(y), "-")
	if !ok {
		return 0
	}
	start, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return start
}

// Valid reports whether y has the shape "YYYY-YYYY" with the end year exactly
// one after the start. Used to reject stale or malformed persisted values.
func (y Year) Valid() bool {
	head, tail, ok := strings.Cut(string(y), "-")
	if !ok || len(head) != 4 || len(tail) != 4 {
		return false
	}
	start, err := strconv.Atoi(head)
	if err != nil {
		return false
	}
	end, err := strconv.Atoi(tail)
	if err != nil {
		return false
	}
	return end == start+1
}

func (y Year) String() string {
	return string(y)
}
