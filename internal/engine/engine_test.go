package engine_test

import (
	"context"
	"testing"
	"time"

	"teamcal/internal/config"
	"teamcal/internal/db"
	"teamcal/internal/domain"
	"teamcal/internal/engine"
	"teamcal/internal/migrate"
	"teamcal/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("acme")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if _, err := eng.InitCompany(ctx, "acme", "Acme", "Spain", "tester"); err != nil {
		t.Fatalf("init company: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func (env testEnv) employee(t *testing.T, name, country, region, city string) domain.Employee {
	t.Helper()
	emp, err := env.Engine.CreateEmployee(env.Ctx, engine.EmployeeCreateOptions{
		CompanyID: "acme",
		Name:      name,
		Country:   country,
		Region:    region,
		City:      city,
		ActorID:   "tester",
	})
	if err != nil {
		t.Fatalf("create employee %s: %v", name, err)
	}
	return emp
}

func TestCreateActivityValidation(t *testing.T) {
	env := newTestEnv(t)
	emp := env.employee(t, "Ana", "ES", "Madrid", "Madrid")

	tests := []struct {
		name string
		opts engine.ActivityCreateOptions
	}{
		{"unknown type", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "meeting", Date: "2024-01-10"}},
		{"no dates", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "vacation"}},
		{"date and range", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "vacation", Date: "2024-01-10", StartDate: "2024-01-10", EndDate: "2024-01-12"}},
		{"half range", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "vacation", StartDate: "2024-01-10"}},
		{"inverted range", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "vacation", StartDate: "2024-01-12", EndDate: "2024-01-10"}},
		{"malformed date", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "vacation", Date: "10/01/2024"}},
		{"hld without hours", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "hld", Date: "2024-01-10"}},
		{"hld over limit", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "hld", Date: "2024-01-10", Hours: 13}},
		{"guard without times", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "guard", Date: "2024-01-10"}},
		{"guard bad times", engine.ActivityCreateOptions{EmployeeID: emp.ID, Type: "guard", Date: "2024-01-10", StartTime: "2pm", EndTime: "6pm"}},
		{"unknown employee", engine.ActivityCreateOptions{EmployeeID: "nope", Type: "vacation", Date: "2024-01-10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.ActorID = "tester"
			if _, err := env.Engine.CreateActivity(env.Ctx, tt.opts); err == nil {
				t.Errorf("expected rejection")
			}
		})
	}
}

func TestCreateGuardDerivesHours(t *testing.T) {
	env := newTestEnv(t)
	emp := env.employee(t, "Ana", "ES", "", "")
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		EmployeeID: emp.ID,
		Type:       "G",
		Date:       "2024-01-13",
		StartTime:  "22:00",
		EndTime:    "06:00",
		ActorID:    "tester",
	})
	if err != nil {
		t.Fatalf("create guard: %v", err)
	}
	if a.Hours != 8 {
		t.Errorf("guard hours = %v, want 8 derived from the shift times", a.Hours)
	}
	if a.Type != domain.TypeGuard {
		t.Errorf("type letter should canonicalize, got %q", a.Type)
	}
}

func TestCreateActivityAliases(t *testing.T) {
	env := newTestEnv(t)
	emp := env.employee(t, "Ana", "ES", "", "")
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		EmployeeID: emp.ID, Type: "sick_leave", Date: "2024-01-10", ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Type != domain.TypeAbsence {
		t.Errorf("sick_leave should store as absence, got %q", a.Type)
	}
}

func TestImportHolidaysDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	national := []domain.Holiday{
		{Date: "2024-01-01", Name: "New Year", Country: "ES", Scope: domain.ScopeNational},
		{Date: "2024-12-25", Name: "Christmas", Country: "ES", Scope: domain.ScopeNational},
	}
	res, err := env.Engine.ImportHolidays(env.Ctx, "acme", "national-feed", "tester", national)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if res.Imported != 2 || res.Skipped != 0 {
		t.Fatalf("first import = %+v, want 2 imported", res)
	}

	// a second feed carrying one duplicate and one new local holiday
	local := []domain.Holiday{
		{Date: "2024-01-01", Name: "New Year", Country: "ES", Scope: domain.ScopeLocal, Region: "Madrid", City: "Madrid"},
		{Date: "2024-05-15", Name: "San Isidro", Country: "ES", Scope: domain.ScopeLocal, Region: "Madrid", City: "Madrid"},
	}
	res, err = env.Engine.ImportHolidays(env.Ctx, "acme", "local-feed", "tester", local)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 1 {
		t.Fatalf("second import = %+v, want 1 imported / 1 skipped", res)
	}
}

func TestImportHolidaysRejectsIncompleteRecords(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.ImportHolidays(env.Ctx, "acme", "feed", "tester", []domain.Holiday{
		{Date: "2024-01-01", Name: "New Year", Country: "ES"},
		{Date: "2024-05-01", Name: "", Country: "ES"},
	})
	if err == nil {
		t.Fatal("expected rejection for record without a name")
	}
	stored, err := env.Engine.Repo.ListHolidays(env.Ctx, repo.HolidayFilters{Year: 2024})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("a rejected batch must import nothing, found %d holidays", len(stored))
	}
}

func TestMonthViewResolution(t *testing.T) {
	env := newTestEnv(t)
	madrid := env.employee(t, "Ana", "ES", "Madrid", "Madrid")
	env.employee(t, "Jordi", "Spain", "Cataluña", "Barcelona")

	if _, err := env.Engine.ImportHolidays(env.Ctx, "acme", "feed", "tester", []domain.Holiday{
		{Date: "2024-01-01", Name: "New Year", Country: "ES", Scope: domain.ScopeNational},
		{Date: "2024-01-08", Name: "Madrid Day", Country: "ES", Scope: domain.ScopeRegional, Region: "Madrid"},
	}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		EmployeeID: madrid.ID, Type: "vacation", StartDate: "2024-01-10", EndDate: "2024-01-12", ActorID: "tester",
	}); err != nil {
		t.Fatalf("create vacation: %v", err)
	}

	view, err := env.Engine.MonthView(env.Ctx, "acme", 2024, time.January)
	if err != nil {
		t.Fatalf("month view: %v", err)
	}
	if len(view.Days) != 31 {
		t.Fatalf("expected 31 days, got %d", len(view.Days))
	}
	if len(view.Rows) != 2 {
		t.Fatalf("expected 2 employee rows, got %d", len(view.Rows))
	}

	byName := map[string]int{}
	for i, r := range view.Rows {
		byName[r.Employee.Name] = i
	}
	ana := view.Rows[byName["Ana"]]
	jordi := view.Rows[byName["Jordi"]]

	// both see the national holiday on Jan 1
	if !ana.Cells[0].Holiday || !jordi.Cells[0].Holiday {
		t.Error("national holiday should mark Jan 1 for both employees")
	}
	// only Madrid sees the regional one on Jan 8
	if !ana.Cells[7].Holiday {
		t.Error("regional holiday should mark Jan 8 for the Madrid employee")
	}
	if jordi.Cells[7].Holiday {
		t.Error("regional holiday must not leak to Cataluña")
	}
	// the vacation range renders as V on the 10th through the 12th
	for _, idx := range []int{9, 10, 11} {
		if ana.Cells[idx].Code != "V" {
			t.Errorf("day %d code = %q, want V", idx+1, ana.Cells[idx].Code)
		}
	}
	if ana.Cells[12].Code != "" {
		t.Errorf("day after the range should be empty, got %q", ana.Cells[12].Code)
	}
	if ana.Totals.VacationDays != 3 {
		t.Errorf("vacation days = %d, want 3", ana.Totals.VacationDays)
	}
	if jordi.Totals.VacationDays != 0 {
		t.Errorf("Jordi has no vacation, got %d", jordi.Totals.VacationDays)
	}
}

func TestYearSummaryAggregates(t *testing.T) {
	env := newTestEnv(t)
	emp := env.employee(t, "Ana", "ES", "", "")
	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		EmployeeID: emp.ID, Type: "vacation", StartDate: "2024-01-28", EndDate: "2024-02-05", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		EmployeeID: emp.ID, Type: "guard", Date: "2024-03-02", StartTime: "09:00", EndTime: "17:30", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}

	sum, err := env.Engine.YearSummary(env.Ctx, emp.ID, 2024)
	if err != nil {
		t.Fatalf("year summary: %v", err)
	}
	if len(sum.Months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(sum.Months))
	}
	if sum.Months[0].Totals.VacationDays != 4 || sum.Months[1].Totals.VacationDays != 5 {
		t.Errorf("month clip = %d/%d, want 4/5", sum.Months[0].Totals.VacationDays, sum.Months[1].Totals.VacationDays)
	}
	if sum.Totals.VacationDays != 9 {
		t.Errorf("year vacation total = %d, want 9", sum.Totals.VacationDays)
	}
	if sum.Hours.Guard != 8.5 {
		t.Errorf("year guard hours = %v, want 8.5", sum.Hours.Guard)
	}
}

func TestYearSummaryCountsRangedHoursOnce(t *testing.T) {
	env := newTestEnv(t)
	emp := env.employee(t, "Ana", "ES", "", "")
	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		EmployeeID: emp.ID, Type: "hld", StartDate: "2024-01-28", EndDate: "2024-02-05", Hours: 4, ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}

	sum, err := env.Engine.YearSummary(env.Ctx, emp.ID, 2024)
	if err != nil {
		t.Fatalf("year summary: %v", err)
	}
	if sum.Months[0].Hours.HLD != 4 {
		t.Errorf("January HLD hours = %v, want 4 (range starts in January)", sum.Months[0].Hours.HLD)
	}
	if sum.Months[1].Hours.HLD != 0 {
		t.Errorf("February HLD hours = %v, want 0", sum.Months[1].Hours.HLD)
	}
	if sum.Hours.HLD != 4 {
		t.Errorf("year HLD total = %v, want 4; a straddling range counts once", sum.Hours.HLD)
	}
}

func TestUpdateEmployeeRollsBackWhenEventFails(t *testing.T) {
	env := newTestEnv(t)
	emp := env.employee(t, "Ana", "ES", "Madrid", "Madrid")

	ops := "ops"
	updated, err := env.Engine.UpdateEmployee(env.Ctx, emp.ID, engine.EmployeeUpdateOptions{Team: &ops, ActorID: "tester"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Team != "ops" {
		t.Fatalf("team = %q, want ops", updated.Team)
	}

	if _, err := env.Engine.DB.ExecContext(env.Ctx, `DROP TABLE events`); err != nil {
		t.Fatalf("drop events: %v", err)
	}
	platform := "platform"
	if _, err := env.Engine.UpdateEmployee(env.Ctx, emp.ID, engine.EmployeeUpdateOptions{Team: &platform, ActorID: "tester"}); err == nil {
		t.Fatal("expected failure once the event log is gone")
	}
	got, err := env.Engine.Repo.GetEmployee(env.Ctx, emp.ID)
	if err != nil {
		t.Fatalf("get employee: %v", err)
	}
	if got.Team != "ops" {
		t.Errorf("team = %q, want ops; the row update must roll back with the event", got.Team)
	}
}

func TestDeleteActivity(t *testing.T) {
	env := newTestEnv(t)
	emp := env.employee(t, "Ana", "ES", "", "")
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		EmployeeID: emp.ID, Type: "vacation", Date: "2024-01-10", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteActivity(env.Ctx, a.ID, "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.Engine.DeleteActivity(env.Ctx, a.ID, "tester"); err == nil {
		t.Fatal("second delete should report not found")
	}
}
