// Package schedule is the calendar resolution core: it builds month grids,
// decides which holidays apply to which employee, resolves the activity
// occupying a given day, and aggregates month totals. Everything here is
// pure and stateless; callers own all I/O.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"teamcal/internal/domain"
)

// Day describes one cell column of a month grid.
type Day struct {
	Number  int    `json:"number"`
	Weekday int    `json:"weekday"` // 0=Sunday .. 6=Saturday
	Weekend bool   `json:"weekend"`
	Key     string `json:"date"`
}

// DateKey formats a local calendar date as the canonical zero-padded
// YYYY-MM-DD comparison key. Keys are built from the date components
// directly, never by serializing a timestamp, so the date cannot shift
// across a timezone boundary.
func DateKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// DaysIn returns the number of calendar days in the given month,
// leap years included.
func DaysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// MonthDays returns the ordered day descriptors for a month.
func MonthDays(year int, month time.Month) []Day {
	n := DaysIn(year, month)
	days := make([]Day, 0, n)
	for d := 1; d <= n; d++ {
		wd := int(time.Date(year, month, d, 0, 0, 0, 0, time.Local).Weekday())
		days = append(days, Day{
			Number:  d,
			Weekday: wd,
			Weekend: wd == 0 || wd == 6,
			Key:     DateKey(year, month, d),
		})
	}
	return days
}

// YearDays returns the twelve month grids of a year in order.
func YearDays(year int) [][]Day {
	months := make([][]Day, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, MonthDays(year, m))
	}
	return months
}

// DedupeHolidays collapses holidays that share (date, name) into one entry,
// keeping the first seen. The national/regional feed and the local feed often
// deliver the same holiday twice; display treats the pair as one logical
// holiday. The result is in ascending date order with ties kept in original
// order, so the sort must be stable.
func DedupeHolidays(holidays []domain.Holiday) []domain.Holiday {
	ordered := make([]domain.Holiday, len(holidays))
	copy(ordered, holidays)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	seen := make(map[string]bool, len(ordered))
	out := make([]domain.Holiday, 0, len(ordered))
	for _, h := range ordered {
		key := h.Date + "|" + h.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}
