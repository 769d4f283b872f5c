package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"teamcal/internal/config"
	"teamcal/internal/domain"
	"teamcal/internal/engine/schedule"
	"teamcal/internal/events"
	"teamcal/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) limits() config.Limits {
	if e.Config != nil {
		return e.Config.Limits
	}
	return config.Limits{GuardMaxHours: 24, EntryMaxHours: 12}
}

// InitCompany initializes a new company with migrations already run.
func (e Engine) InitCompany(ctx context.Context, companyID, name, country, actorID string) (domain.Company, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Company{}, err
	}
	defer tx.Rollback()

	c := domain.Company{
		ID:        companyID,
		Name:      name,
		Country:   country,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO companies(id,name,country,created_at) VALUES (?,?,?,?)`,
		c.ID, c.Name, c.Country, c.CreatedAt); err != nil {
		return domain.Company{}, fmt.Errorf("insert company: %w", err)
	}
	if err := e.Repo.UpsertCompanyConfigTx(ctx, tx, c.ID, config.Default(c.ID)); err != nil {
		return domain.Company{}, fmt.Errorf("insert company config: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "company.init", c.ID, "company", c.ID, actorID, events.EventPayload{"name": c.Name}); err != nil {
		return domain.Company{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Company{}, err
	}
	return c, nil
}

// EmployeeCreateOptions are parameters for registering an employee.
type EmployeeCreateOptions struct {
	ID        string
	CompanyID string
	Name      string
	Team      string
	Country   string
	Region    string
	City      string
	ActorID   string
}

func (e Engine) CreateEmployee(ctx context.Context, opts EmployeeCreateOptions) (domain.Employee, error) {
	if opts.Name == "" {
		return domain.Employee{}, errors.New("name is required")
	}
	if opts.CompanyID == "" {
		return domain.Employee{}, errors.New("company is required")
	}
	if opts.Country == "" {
		return domain.Employee{}, errors.New("country is required")
	}
	if _, err := e.Repo.GetCompany(ctx, opts.CompanyID); err != nil {
		return domain.Employee{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	id := opts.ID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(opts.CompanyID+"|"+opts.Name+"|"+now)).String()
	}
	emp := domain.Employee{
		ID:        id,
		CompanyID: opts.CompanyID,
		Name:      opts.Name,
		Team:      opts.Team,
		Country:   opts.Country,
		Region:    opts.Region,
		City:      opts.City,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Employee{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertEmployeeTx(ctx, tx, emp); err != nil {
		return domain.Employee{}, err
	}
	if err := e.Events.Append(ctx, tx, "employee.created", emp.CompanyID, "employee", emp.ID, opts.ActorID, events.EventPayload{"name": emp.Name, "country": emp.Country}); err != nil {
		return domain.Employee{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Employee{}, err
	}
	return emp, nil
}

// EmployeeUpdateOptions carries partial-update fields; nil means unchanged.
type EmployeeUpdateOptions struct {
	Name    *string
	Team    *string
	Country *string
	Region  *string
	City    *string
	ActorID string
}

func (e Engine) UpdateEmployee(ctx context.Context, id string, opts EmployeeUpdateOptions) (domain.Employee, error) {
	emp, err := e.Repo.GetEmployee(ctx, id)
	if err != nil {
		return domain.Employee{}, err
	}
	if opts.Country != nil && *opts.Country == "" {
		return domain.Employee{}, errors.New("country must not be cleared")
	}
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Employee{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateEmployeeTx(ctx, tx, id, opts.Name, opts.Team, opts.Country, opts.Region, opts.City, now); err != nil {
		return domain.Employee{}, err
	}
	if err := e.Events.Append(ctx, tx, "employee.updated", emp.CompanyID, "employee", emp.ID, opts.ActorID, events.EventPayload{}); err != nil {
		return domain.Employee{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Employee{}, err
	}
	return e.Repo.GetEmployee(ctx, id)
}

// ActivityCreateOptions are parameters for recording a calendar entry.
// Either Date or the StartDate/EndDate pair must be set, never both.
type ActivityCreateOptions struct {
	ID         string
	EmployeeID string
	Type       string
	Date       string
	StartDate  string
	EndDate    string
	Hours      float64
	StartTime  string
	EndTime    string
	Notes      string
	ActorID    string
}

func (e Engine) CreateActivity(ctx context.Context, opts ActivityCreateOptions) (domain.Activity, error) {
	if opts.EmployeeID == "" {
		return domain.Activity{}, errors.New("employee is required")
	}
	typ := schedule.CanonicalType(opts.Type)
	if typ == "" {
		return domain.Activity{}, fmt.Errorf("unknown activity type %q", opts.Type)
	}
	if opts.Date != "" && (opts.StartDate != "" || opts.EndDate != "") {
		return domain.Activity{}, errors.New("date and start/end range are mutually exclusive")
	}
	if opts.Date == "" {
		if opts.StartDate == "" || opts.EndDate == "" {
			return domain.Activity{}, errors.New("either date or both start and end are required")
		}
		if err := validDateKey(opts.StartDate); err != nil {
			return domain.Activity{}, fmt.Errorf("start: %w", err)
		}
		if err := validDateKey(opts.EndDate); err != nil {
			return domain.Activity{}, fmt.Errorf("end: %w", err)
		}
		if opts.StartDate > opts.EndDate {
			return domain.Activity{}, errors.New("start must not be after end")
		}
	} else if err := validDateKey(opts.Date); err != nil {
		return domain.Activity{}, err
	}

	emp, err := e.Repo.GetEmployee(ctx, opts.EmployeeID)
	if err != nil {
		return domain.Activity{}, err
	}

	limits := e.limits()
	switch typ {
	case domain.TypeGuard:
		if opts.StartTime == "" || opts.EndTime == "" {
			return domain.Activity{}, errors.New("start_time and end_time are required for guard entries")
		}
		hours := schedule.GuardHours(opts.StartTime, opts.EndTime)
		if hours <= 0 {
			return domain.Activity{}, fmt.Errorf("invalid guard shift %s-%s", opts.StartTime, opts.EndTime)
		}
		if hours > limits.GuardMaxHours {
			return domain.Activity{}, fmt.Errorf("guard shift of %.2fh exceeds the %.0fh limit", hours, limits.GuardMaxHours)
		}
		opts.Hours = hours
	case domain.TypeHLD, domain.TypeTraining:
		if opts.Hours <= 0 {
			return domain.Activity{}, fmt.Errorf("hours are required for %s entries", typ)
		}
		if opts.Hours > limits.EntryMaxHours {
			return domain.Activity{}, fmt.Errorf("%.2fh exceeds the %.0fh per-entry limit", opts.Hours, limits.EntryMaxHours)
		}
	}

	now := e.now().UTC().Format(time.RFC3339)
	id := opts.ID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(opts.EmployeeID+"|"+typ+"|"+now+"|"+opts.Date+opts.StartDate)).String()
	}
	a := domain.Activity{
		ID:         id,
		EmployeeID: opts.EmployeeID,
		Type:       typ,
		Date:       opts.Date,
		StartDate:  opts.StartDate,
		EndDate:    opts.EndDate,
		Hours:      opts.Hours,
		StartTime:  opts.StartTime,
		EndTime:    opts.EndTime,
		Notes:      opts.Notes,
		CreatedAt:  now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Activity{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertActivityTx(ctx, tx, a); err != nil {
		return domain.Activity{}, err
	}
	if err := e.Events.Append(ctx, tx, "activity.created", emp.CompanyID, "activity", a.ID, opts.ActorID, events.EventPayload{
		"employee_id": a.EmployeeID,
		"type":        a.Type,
		"hours":       a.Hours,
	}); err != nil {
		return domain.Activity{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, err
	}
	return a, nil
}

func (e Engine) DeleteActivity(ctx context.Context, id, actorID string) error {
	a, err := e.Repo.GetActivity(ctx, id)
	if err != nil {
		return err
	}
	emp, err := e.Repo.GetEmployee(ctx, a.EmployeeID)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteActivityTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "activity.deleted", emp.CompanyID, "activity", id, actorID, events.EventPayload{"type": a.Type}); err != nil {
		return err
	}
	return tx.Commit()
}

// ImportResult reports the outcome of a holiday import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportHolidays stores the given holidays, skipping any whose (date, name)
// pair is already present. Records missing a date, name or country are
// rejected wholesale so a half-imported feed never goes unnoticed.
func (e Engine) ImportHolidays(ctx context.Context, companyID, source, actorID string, list []domain.Holiday) (ImportResult, error) {
	var res ImportResult
	for i, h := range list {
		if h.Date == "" || h.Name == "" {
			return res, fmt.Errorf("holiday[%d]: date and name are required", i)
		}
		if err := validDateKey(h.Date); err != nil {
			return res, fmt.Errorf("holiday[%d]: %w", i, err)
		}
		if h.Country == "" {
			return res, fmt.Errorf("holiday[%d] %q: country is required", i, h.Name)
		}
	}
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()
	for _, h := range list {
		exists, err := e.Repo.HolidayExistsTx(ctx, tx, h.Date, h.Name)
		if err != nil {
			return res, err
		}
		if exists {
			res.Skipped++
			continue
		}
		if h.ID == "" {
			h.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(h.Date+"|"+h.Name)).String()
		}
		if h.Source == "" {
			h.Source = source
		}
		if err := e.Repo.InsertHolidayTx(ctx, tx, h, now); err != nil {
			return res, err
		}
		res.Imported++
	}
	if err := e.Events.Append(ctx, tx, "holidays.imported", companyID, "holiday", "", actorID, events.EventPayload{
		"source":   source,
		"imported": res.Imported,
		"skipped":  res.Skipped,
	}); err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

// DayCell is one rendered cell of the month grid.
type DayCell struct {
	Date        string         `json:"date"`
	Code        string         `json:"code,omitempty"`
	Holiday     bool           `json:"holiday,omitempty"`
	HolidayName string         `json:"holiday_name,omitempty"`
	Style       schedule.Style `json:"style"`
}

// EmployeeRow is one employee's resolved month: a cell per day plus totals.
type EmployeeRow struct {
	Employee domain.Employee      `json:"employee"`
	Cells    []DayCell            `json:"cells"`
	Totals   schedule.MonthTotals `json:"totals"`
	Hours    schedule.HourTotals  `json:"hours"`
}

// MonthView is the fully resolved calendar grid for one month.
type MonthView struct {
	Year     int              `json:"year"`
	Month    int              `json:"month"`
	Days     []schedule.Day   `json:"days"`
	Holidays []domain.Holiday `json:"holidays"`
	Rows     []EmployeeRow    `json:"rows"`
}

// MonthView resolves the calendar for every employee of a company over one
// month: day descriptors, the deduplicated holidays relevant to the team,
// and per-employee cells with display codes, styles and totals.
func (e Engine) MonthView(ctx context.Context, companyID string, year int, month time.Month) (MonthView, error) {
	if month < time.January || month > time.December {
		return MonthView{}, fmt.Errorf("invalid month %d", month)
	}
	if _, err := e.Repo.GetCompany(ctx, companyID); err != nil {
		return MonthView{}, err
	}
	employees, err := e.Repo.ListEmployees(ctx, repo.EmployeeFilters{CompanyID: companyID})
	if err != nil {
		return MonthView{}, err
	}
	days := schedule.MonthDays(year, month)
	monthStart, monthEnd := schedule.MonthBounds(year, month)

	stored, err := e.Repo.ListHolidaysInRange(ctx, monthStart, monthEnd)
	if err != nil {
		return MonthView{}, err
	}
	deduped := schedule.DedupeHolidays(stored)
	locations := make([]domain.Location, 0, len(employees))
	for _, emp := range employees {
		locations = append(locations, emp.Location())
	}
	relevant := schedule.Relevant(deduped, locations)

	activities, err := e.Repo.ListActivitiesInRange(ctx, monthStart, monthEnd)
	if err != nil {
		return MonthView{}, err
	}

	view := MonthView{
		Year:     year,
		Month:    int(month),
		Days:     days,
		Holidays: relevant,
	}
	for _, emp := range employees {
		row := EmployeeRow{
			Employee: emp,
			Cells:    make([]DayCell, 0, len(days)),
			Totals:   schedule.Summary(emp.ID, year, month, activities),
			Hours:    schedule.Hours(emp.ID, year, month, activities),
		}
		loc := emp.Location()
		for _, day := range days {
			act := schedule.OnDay(emp.ID, day.Key, activities)
			hol := schedule.HolidayOn(day.Key, relevant, loc)
			cell := DayCell{
				Date:    day.Key,
				Code:    schedule.DisplayCode(act),
				Holiday: hol != nil,
				Style:   schedule.CellStyle(act, day.Weekend, hol != nil),
			}
			if hol != nil {
				cell.HolidayName = hol.Name
			}
			row.Cells = append(row.Cells, cell)
		}
		view.Rows = append(view.Rows, row)
	}
	return view, nil
}

// MonthSummary is one month's totals within a year summary.
type MonthSummary struct {
	Month  int                  `json:"month"`
	Totals schedule.MonthTotals `json:"totals"`
	Hours  schedule.HourTotals  `json:"hours"`
}

// YearSummary aggregates one employee's months over a calendar year.
type YearSummary struct {
	Employee domain.Employee      `json:"employee"`
	Year     int                  `json:"year"`
	Months   []MonthSummary       `json:"months"`
	Totals   schedule.MonthTotals `json:"totals"`
	Hours    schedule.HourTotals  `json:"hours"`
}

func (e Engine) YearSummary(ctx context.Context, employeeID string, year int) (YearSummary, error) {
	emp, err := e.Repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return YearSummary{}, err
	}
	start := schedule.DateKey(year, time.January, 1)
	end := schedule.DateKey(year, time.December, 31)
	activities, err := e.Repo.ListActivitiesInRange(ctx, start, end)
	if err != nil {
		return YearSummary{}, err
	}
	sum := YearSummary{Employee: emp, Year: year}
	for m := time.January; m <= time.December; m++ {
		ms := MonthSummary{
			Month:  int(m),
			Totals: schedule.Summary(employeeID, year, m, activities),
			Hours:  schedule.Hours(employeeID, year, m, activities),
		}
		sum.Months = append(sum.Months, ms)
		sum.Totals.VacationDays += ms.Totals.VacationDays
		sum.Totals.AbsenceDays += ms.Totals.AbsenceDays
		sum.Hours.HLD += ms.Hours.HLD
		sum.Hours.Guard += ms.Hours.Guard
		sum.Hours.Training += ms.Hours.Training
	}
	return sum, nil
}

func validDateKey(s string) error {
	t, err := time.Parse("2006-01-02", s)
	if err != nil || t.Format("2006-01-02") != s {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return nil
}
