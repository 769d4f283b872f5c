package schedule

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"teamcal/internal/domain"
)

// CanonicalType maps a raw activity type (full word or single entry-form
// code letter, case-insensitive) onto the closed type set. Unrecognized
// values come back empty.
func CanonicalType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case domain.TypeVacation, "v":
		return domain.TypeVacation
	case domain.TypeAbsence, "sick_leave", "a":
		return domain.TypeAbsence
	case domain.TypeHLD:
		return domain.TypeHLD
	case domain.TypeGuard, "g":
		return domain.TypeGuard
	case domain.TypeTraining, "f":
		return domain.TypeTraining
	case domain.TypeOther, "c":
		return domain.TypeOther
	default:
		return ""
	}
}

// span returns the inclusive [start, end] date keys an activity covers.
// Single-day activities cover their one date; a ranged activity whose
// start is after its end covers nothing (ok=false) rather than failing.
func span(a domain.Activity) (start, end string, ok bool) {
	if a.Date != "" {
		return a.Date, a.Date, true
	}
	if a.StartDate == "" || a.EndDate == "" {
		return "", "", false
	}
	if a.StartDate > a.EndDate {
		return "", "", false
	}
	return a.StartDate, a.EndDate, true
}

// OnDay finds the activity occupying dateKey for an employee. Overlaps are
// tolerated; the first match in input order wins so resolution stays
// deterministic. Fixed-width zero-padded keys make the lexicographic range
// comparison equivalent to date order.
func OnDay(employeeID, dateKey string, activities []domain.Activity) *domain.Activity {
	for i := range activities {
		a := &activities[i]
		if a.EmployeeID != employeeID {
			continue
		}
		start, end, ok := span(*a)
		if !ok {
			continue
		}
		if start <= dateKey && dateKey <= end {
			return a
		}
	}
	return nil
}

// DisplayCode renders an activity as the short cell code: V, A, HLD, G, F or
// C, with an unrecognized type falling back to its first letter uppercased.
// Hour-based types carry a signed hour suffix: guard hours add to worked
// time while HLD and training hours subtract from availability. Vacation and
// absence never show hours.
func DisplayCode(a *domain.Activity) string {
	if a == nil || a.Type == "" {
		return ""
	}
	canonical := CanonicalType(a.Type)
	var code string
	switch canonical {
	case domain.TypeVacation:
		code = "V"
	case domain.TypeAbsence:
		code = "A"
	case domain.TypeHLD:
		code = "HLD"
	case domain.TypeGuard:
		code = "G"
	case domain.TypeTraining:
		code = "F"
	case domain.TypeOther:
		code = "C"
	default:
		r, _ := utf8.DecodeRuneInString(a.Type)
		code = strings.ToUpper(string(r))
	}
	if a.Hours > 0 {
		switch canonical {
		case domain.TypeGuard:
			return code + " +" + formatHours(a.Hours) + "h"
		case domain.TypeHLD, domain.TypeTraining:
			return code + " -" + formatHours(a.Hours) + "h"
		}
	}
	return code
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// MonthTotals are the day-count aggregates for one employee and month.
// Hour-based types are aggregated separately by HourTotals.
type MonthTotals struct {
	VacationDays int `json:"vacation_days"`
	AbsenceDays  int `json:"absence_days"`
}

// HourTotals sums the hours of timed activities intersecting a month.
type HourTotals struct {
	HLD      float64 `json:"hld_hours"`
	Guard    float64 `json:"guard_hours"`
	Training float64 `json:"training_hours"`
}

// MonthBounds returns the first and last date keys of a month.
func MonthBounds(year int, month time.Month) (string, string) {
	return DateKey(year, month, 1), DateKey(year, month, DaysIn(year, month))
}

// Summary counts vacation and absence days for an employee within one month.
// Ranged activities are clipped to the month boundaries before counting, so
// a range straddling two months contributes each day to exactly one call.
func Summary(employeeID string, year int, month time.Month, activities []domain.Activity) MonthTotals {
	monthStart, monthEnd := MonthBounds(year, month)
	var totals MonthTotals
	for _, a := range activities {
		if a.EmployeeID != employeeID {
			continue
		}
		canonical := CanonicalType(a.Type)
		if canonical != domain.TypeVacation && canonical != domain.TypeAbsence {
			continue
		}
		start, end, ok := span(a)
		if !ok || end < monthStart || start > monthEnd {
			continue
		}
		days := 1
		if a.Ranged() {
			clippedStart := maxKey(start, monthStart)
			clippedEnd := minKey(end, monthEnd)
			days = daysBetween(clippedStart, clippedEnd) + 1
		}
		if canonical == domain.TypeVacation {
			totals.VacationDays += days
		} else {
			totals.AbsenceDays += days
		}
	}
	return totals
}

// Hours sums HLD, guard and training hours for an employee's activities in
// one month. An entry's hours belong to the month its span starts in, so a
// range straddling a month boundary contributes to exactly one call, matching
// the exactly-once discipline of Summary's day counts.
func Hours(employeeID string, year int, month time.Month, activities []domain.Activity) HourTotals {
	monthStart, monthEnd := MonthBounds(year, month)
	var totals HourTotals
	for _, a := range activities {
		if a.EmployeeID != employeeID || a.Hours <= 0 {
			continue
		}
		start, _, ok := span(a)
		if !ok || start < monthStart || start > monthEnd {
			continue
		}
		switch CanonicalType(a.Type) {
		case domain.TypeHLD:
			totals.HLD += a.Hours
		case domain.TypeGuard:
			totals.Guard += a.Hours
		case domain.TypeTraining:
			totals.Training += a.Hours
		}
	}
	return totals
}

func maxKey(a, b string) string {
	if a > b {
		return a
	}
	return b
}

func minKey(a, b string) string {
	if a < b {
		return a
	}
	return b
}

// daysBetween lowers both date keys to calendar dates before differencing;
// keys are never compared through locale formatting.
func daysBetween(startKey, endKey string) int {
	start, err1 := time.Parse("2006-01-02", startKey)
	end, err2 := time.Parse("2006-01-02", endKey)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}
