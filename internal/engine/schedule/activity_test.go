package schedule

import (
	"testing"
	"time"

	"teamcal/internal/domain"
)

func TestOnDay(t *testing.T) {
	activities := []domain.Activity{
		{ID: "a1", EmployeeID: "emp-1", Type: domain.TypeVacation, StartDate: "2024-01-20", EndDate: "2024-01-25"},
		{ID: "a2", EmployeeID: "emp-1", Type: domain.TypeGuard, Date: "2024-01-22", Hours: 8},
		{ID: "a3", EmployeeID: "emp-2", Type: domain.TypeAbsence, Date: "2024-01-22"},
	}

	got := OnDay("emp-1", "2024-01-22", activities)
	if got == nil || got.ID != "a1" {
		t.Fatalf("expected first match a1 on overlap, got %+v", got)
	}
	if OnDay("emp-1", "2024-01-26", activities) != nil {
		t.Error("range is inclusive of end only; 2024-01-26 must not match")
	}
	if got := OnDay("emp-1", "2024-01-20", activities); got == nil || got.ID != "a1" {
		t.Error("range start must match")
	}
	if got := OnDay("emp-2", "2024-01-22", activities); got == nil || got.ID != "a3" {
		t.Error("activities must be filtered per employee")
	}
	if OnDay("emp-3", "2024-01-22", activities) != nil {
		t.Error("unknown employee must not match")
	}
}

func TestOnDayInvertedRange(t *testing.T) {
	activities := []domain.Activity{
		{ID: "bad", EmployeeID: "emp-1", Type: domain.TypeVacation, StartDate: "2024-01-25", EndDate: "2024-01-20"},
	}
	if OnDay("emp-1", "2024-01-22", activities) != nil {
		t.Error("inverted range must match nothing")
	}
}

func TestDisplayCode(t *testing.T) {
	tests := []struct {
		name     string
		activity *domain.Activity
		want     string
	}{
		{"nil", nil, ""},
		{"vacation", &domain.Activity{Type: "vacation"}, "V"},
		{"vacation ignores hours", &domain.Activity{Type: "vacation", Hours: 8}, "V"},
		{"absence", &domain.Activity{Type: "absence"}, "A"},
		{"sick leave alias", &domain.Activity{Type: "sick_leave"}, "A"},
		{"code letter", &domain.Activity{Type: "V"}, "V"},
		{"guard with hours", &domain.Activity{Type: "guard", Hours: 8}, "G +8h"},
		{"guard fractional", &domain.Activity{Type: "guard", Hours: 8.5}, "G +8.5h"},
		{"hld with hours", &domain.Activity{Type: "hld", Hours: 4}, "HLD -4h"},
		{"training with hours", &domain.Activity{Type: "training", Hours: 2}, "F -2h"},
		{"guard without hours", &domain.Activity{Type: "guard"}, "G"},
		{"other", &domain.Activity{Type: "other"}, "C"},
		{"unknown falls back to initial", &domain.Activity{Type: "meeting"}, "M"},
		{"unknown multibyte initial", &domain.Activity{Type: "ñoño"}, "Ñ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayCode(tt.activity); got != tt.want {
				t.Errorf("DisplayCode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCellStylePrecedence(t *testing.T) {
	vacation := &domain.Activity{Type: domain.TypeVacation}

	if CellStyle(vacation, true, true) != styleHoliday {
		t.Error("holiday must win over weekend and activity")
	}
	if CellStyle(vacation, true, false) != styleWeekend {
		t.Error("weekend must win over activity")
	}
	if CellStyle(vacation, false, false) != typeStyles[domain.TypeVacation] {
		t.Error("activity type style expected on plain weekday")
	}
	if CellStyle(nil, false, false) != styleNone {
		t.Error("neutral default expected for empty cell")
	}
	unknown := CellStyle(&domain.Activity{Type: "meeting"}, false, false)
	if unknown != styleUnknown {
		t.Error("unknown type needs its own pairing")
	}
	if unknown == styleNone {
		t.Error("unknown type pairing must differ from the empty-cell default")
	}
}

func TestSummarySingleDays(t *testing.T) {
	activities := []domain.Activity{
		{EmployeeID: "emp-1", Type: domain.TypeVacation, Date: "2024-01-10"},
		{EmployeeID: "emp-1", Type: domain.TypeAbsence, Date: "2024-01-11"},
		{EmployeeID: "emp-1", Type: domain.TypeGuard, Date: "2024-01-12", Hours: 8},
		{EmployeeID: "emp-2", Type: domain.TypeVacation, Date: "2024-01-13"},
		{EmployeeID: "emp-1", Type: domain.TypeVacation, Date: "2024-02-01"},
	}
	got := Summary("emp-1", 2024, time.January, activities)
	if got.VacationDays != 1 || got.AbsenceDays != 1 {
		t.Errorf("Summary = %+v, want 1 vacation / 1 absence", got)
	}
}

func TestSummaryClipsRangesAtMonthBoundaries(t *testing.T) {
	activities := []domain.Activity{
		{EmployeeID: "emp-1", Type: domain.TypeVacation, StartDate: "2024-01-28", EndDate: "2024-02-05"},
	}
	jan := Summary("emp-1", 2024, time.January, activities)
	feb := Summary("emp-1", 2024, time.February, activities)
	if jan.VacationDays != 4 {
		t.Errorf("January clip = %d days, want 4 (28..31)", jan.VacationDays)
	}
	if feb.VacationDays != 5 {
		t.Errorf("February clip = %d days, want 5 (01..05)", feb.VacationDays)
	}
	if jan.VacationDays+feb.VacationDays != 9 {
		t.Errorf("the 9-day span must be counted exactly once across months")
	}
	mar := Summary("emp-1", 2024, time.March, activities)
	if mar.VacationDays != 0 {
		t.Errorf("March must see nothing, got %d", mar.VacationDays)
	}
}

func TestSummaryRangeSpanningWholeMonth(t *testing.T) {
	activities := []domain.Activity{
		{EmployeeID: "emp-1", Type: domain.TypeAbsence, StartDate: "2024-01-15", EndDate: "2024-03-15"},
	}
	feb := Summary("emp-1", 2024, time.February, activities)
	if feb.AbsenceDays != 29 {
		t.Errorf("fully spanned leap February = %d days, want 29", feb.AbsenceDays)
	}
}

func TestHours(t *testing.T) {
	activities := []domain.Activity{
		{EmployeeID: "emp-1", Type: domain.TypeGuard, Date: "2024-01-05", Hours: 8},
		{EmployeeID: "emp-1", Type: domain.TypeGuard, Date: "2024-01-20", Hours: 10.5},
		{EmployeeID: "emp-1", Type: domain.TypeHLD, Date: "2024-01-09", Hours: 4},
		{EmployeeID: "emp-1", Type: domain.TypeTraining, Date: "2024-01-11", Hours: 3},
		{EmployeeID: "emp-1", Type: domain.TypeVacation, Date: "2024-01-12", Hours: 8},
		{EmployeeID: "emp-1", Type: domain.TypeGuard, Date: "2024-02-01", Hours: 6},
		{EmployeeID: "emp-2", Type: domain.TypeGuard, Date: "2024-01-05", Hours: 12},
	}
	got := Hours("emp-1", 2024, time.January, activities)
	if got.Guard != 18.5 {
		t.Errorf("guard hours = %v, want 18.5", got.Guard)
	}
	if got.HLD != 4 {
		t.Errorf("hld hours = %v, want 4", got.HLD)
	}
	if got.Training != 3 {
		t.Errorf("training hours = %v, want 3", got.Training)
	}
}

func TestHoursAttributeRangesToStartMonth(t *testing.T) {
	activities := []domain.Activity{
		{EmployeeID: "emp-1", Type: domain.TypeHLD, StartDate: "2024-01-28", EndDate: "2024-02-05", Hours: 4},
		{EmployeeID: "emp-1", Type: domain.TypeGuard, Date: "2024-02-10", Hours: 8},
	}
	jan := Hours("emp-1", 2024, time.January, activities)
	feb := Hours("emp-1", 2024, time.February, activities)
	if jan.HLD != 4 {
		t.Errorf("January HLD hours = %v, want 4 (the range starts in January)", jan.HLD)
	}
	if feb.HLD != 0 {
		t.Errorf("February HLD hours = %v, want 0; a straddling range counts once", feb.HLD)
	}
	if feb.Guard != 8 {
		t.Errorf("February guard hours = %v, want 8", feb.Guard)
	}
}

func TestCanonicalType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"vacation", domain.TypeVacation},
		{"V", domain.TypeVacation},
		{"Guard", domain.TypeGuard},
		{"g", domain.TypeGuard},
		{"sick_leave", domain.TypeAbsence},
		{"HLD", domain.TypeHLD},
		{"f", domain.TypeTraining},
		{"c", domain.TypeOther},
		{"meeting", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalType(tt.in); got != tt.want {
			t.Errorf("CanonicalType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
