package schedule

import (
	"testing"
	"time"

	"teamcal/internal/domain"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		want  int
	}{
		{"january", 2024, time.January, 31},
		{"leap february", 2024, time.February, 29},
		{"non-leap february", 2023, time.February, 28},
		{"century non-leap", 1900, time.February, 28},
		{"400-year leap", 2000, time.February, 29},
		{"april", 2024, time.April, 30},
		{"december", 2024, time.December, 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := MonthDays(tt.year, tt.month)
			if len(days) != tt.want {
				t.Fatalf("MonthDays(%d, %v) has %d days, want %d", tt.year, tt.month, len(days), tt.want)
			}
		})
	}
}

func TestMonthDaysDescriptors(t *testing.T) {
	days := MonthDays(2024, time.January)
	// 2024-01-01 was a Monday
	if days[0].Weekday != 1 || days[0].Weekend {
		t.Errorf("Jan 1 2024: weekday=%d weekend=%v, want weekday=1 weekend=false", days[0].Weekday, days[0].Weekend)
	}
	// 2024-01-06 was a Saturday, 2024-01-07 a Sunday
	if !days[5].Weekend || days[5].Weekday != 6 {
		t.Errorf("Jan 6 2024 should be a Saturday weekend, got weekday=%d weekend=%v", days[5].Weekday, days[5].Weekend)
	}
	if !days[6].Weekend || days[6].Weekday != 0 {
		t.Errorf("Jan 7 2024 should be a Sunday weekend, got weekday=%d weekend=%v", days[6].Weekday, days[6].Weekend)
	}
	if days[4].Key != "2024-01-05" {
		t.Errorf("expected zero-padded key 2024-01-05, got %s", days[4].Key)
	}
}

func TestDateKeyPadding(t *testing.T) {
	if got := DateKey(2024, time.March, 7); got != "2024-03-07" {
		t.Errorf("DateKey = %s, want 2024-03-07", got)
	}
	if got := DateKey(999, time.November, 30); got != "0999-11-30" {
		t.Errorf("DateKey = %s, want 0999-11-30", got)
	}
}

func TestYearDays(t *testing.T) {
	months := YearDays(2024)
	if len(months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(months))
	}
	total := 0
	for _, m := range months {
		total += len(m)
	}
	if total != 366 {
		t.Errorf("2024 should have 366 days, got %d", total)
	}
}

func TestDedupeHolidays(t *testing.T) {
	holidays := []domain.Holiday{
		{ID: "h3", Date: "2024-12-25", Name: "Christmas", Source: "national"},
		{ID: "h1", Date: "2024-01-01", Name: "New Year", Source: "national"},
		{ID: "h2", Date: "2024-01-01", Name: "New Year", Source: "local"},
		{ID: "h4", Date: "2024-01-01", Name: "City Day", Source: "local"},
	}
	out := DedupeHolidays(holidays)
	if len(out) != 3 {
		t.Fatalf("expected 3 holidays after dedupe, got %d", len(out))
	}
	if out[0].Date != "2024-01-01" || out[0].ID != "h1" {
		t.Errorf("expected first-seen New Year (h1) first, got %+v", out[0])
	}
	if out[1].ID != "h4" {
		t.Errorf("expected stable tie order to keep City Day second, got %+v", out[1])
	}
	if out[2].Name != "Christmas" {
		t.Errorf("expected Christmas last, got %+v", out[2])
	}
	// input must not be reordered
	if holidays[0].ID != "h3" {
		t.Error("DedupeHolidays mutated its input")
	}
}
