package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamcal/internal/config"
	"teamcal/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertCompany(ctx context.Context, c domain.Company) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO companies(id,name,country,created_at) VALUES (?,?,?,?)`,
		c.ID, c.Name, c.Country, c.CreatedAt)
	return err
}

func (r Repo) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	var c domain.Company
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,country,created_at FROM companies WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &c.Country, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) SingleCompany(ctx context.Context) (domain.Company, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,country,created_at FROM companies`)
	if err != nil {
		return domain.Company{}, err
	}
	defer rows.Close()
	var companies []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.CreatedAt); err != nil {
			return domain.Company{}, err
		}
		companies = append(companies, c)
	}
	if len(companies) == 0 {
		return domain.Company{}, ErrNotFound
	}
	if len(companies) > 1 {
		return domain.Company{}, fmt.Errorf("multiple companies exist; specify --company")
	}
	return companies[0], nil
}

func (r Repo) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,country,created_at FROM companies ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

func (r Repo) UpdateCompany(ctx context.Context, id string, name, country *string) error {
	var (
		fields []string
		args   []any
	)
	if name != nil {
		fields = append(fields, "name=?")
		args = append(args, *name)
	}
	if country != nil {
		fields = append(fields, "country=?")
		args = append(args, *country)
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE companies SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpsertCompanyConfig(ctx context.Context, companyID string, cfg *config.Config) error {
	return upsertCompanyConfig(ctx, r.DB, nil, companyID, cfg)
}

func (r Repo) UpsertCompanyConfigTx(ctx context.Context, tx *sql.Tx, companyID string, cfg *config.Config) error {
	return upsertCompanyConfig(ctx, nil, tx, companyID, cfg)
}

func upsertCompanyConfig(ctx context.Context, db *sql.DB, tx *sql.Tx, companyID string, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	cfg.Company.ID = companyID
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	exec := func(query string, args ...any) (sql.Result, error) {
		if tx != nil {
			return tx.ExecContext(ctx, query, args...)
		}
		return db.ExecContext(ctx, query, args...)
	}
	_, err = exec(`INSERT INTO company_configs(company_id,config_json,created_at,updated_at) VALUES (?,?,?,?)
ON CONFLICT(company_id) DO UPDATE SET config_json=excluded.config_json, updated_at=excluded.updated_at`, companyID, string(payload), now, now)
	return err
}

func (r Repo) GetCompanyConfig(ctx context.Context, companyID string) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT config_json FROM company_configs WHERE company_id=?`, companyID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, err
	}
	if cfg.Company.ID == "" {
		cfg.Company.ID = companyID
	}
	return &cfg, cfg.Validate()
}

func (r Repo) InsertEmployee(ctx context.Context, e domain.Employee) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO employees(id,company_id,name,team,country,region,city,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		e.ID, e.CompanyID, e.Name, e.Team, e.Country, e.Region, e.City, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r Repo) InsertEmployeeTx(ctx context.Context, tx *sql.Tx, e domain.Employee) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO employees(id,company_id,name,team,country,region,city,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		e.ID, e.CompanyID, e.Name, e.Team, e.Country, e.Region, e.City, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r Repo) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	var e domain.Employee
	err := r.DB.QueryRowContext(ctx, `SELECT id,company_id,name,team,country,region,city,created_at,updated_at FROM employees WHERE id=?`, id).
		Scan(&e.ID, &e.CompanyID, &e.Name, &e.Team, &e.Country, &e.Region, &e.City, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

type EmployeeFilters struct {
	CompanyID string
	Team      string
}

func (r Repo) ListEmployees(ctx context.Context, f EmployeeFilters) ([]domain.Employee, error) {
	var clauses []string
	var args []any
	if f.CompanyID != "" {
		clauses = append(clauses, "company_id=?")
		args = append(args, f.CompanyID)
	}
	if f.Team != "" {
		clauses = append(clauses, "team=?")
		args = append(args, f.Team)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT id,company_id,name,team,country,region,city,created_at,updated_at FROM employees ` + where + ` ORDER BY name ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.Name, &e.Team, &e.Country, &e.Region, &e.City, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) UpdateEmployee(ctx context.Context, id string, name, team, country, region, city *string, updatedAt string) error {
	return updateEmployee(ctx, r.DB, nil, id, name, team, country, region, city, updatedAt)
}

func (r Repo) UpdateEmployeeTx(ctx context.Context, tx *sql.Tx, id string, name, team, country, region, city *string, updatedAt string) error {
	return updateEmployee(ctx, nil, tx, id, name, team, country, region, city, updatedAt)
}

func updateEmployee(ctx context.Context, db *sql.DB, tx *sql.Tx, id string, name, team, country, region, city *string, updatedAt string) error {
	var (
		fields []string
		args   []any
	)
	set := func(col string, v *string) {
		if v != nil {
			fields = append(fields, col+"=?")
			args = append(args, *v)
		}
	}
	set("name", name)
	set("team", team)
	set("country", country)
	set("region", region)
	set("city", city)
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, "updated_at=?")
	args = append(args, updatedAt, id)
	exec := func(query string, args ...any) (sql.Result, error) {
		if tx != nil {
			return tx.ExecContext(ctx, query, args...)
		}
		return db.ExecContext(ctx, query, args...)
	}
	res, err := exec(fmt.Sprintf(`UPDATE employees SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteEmployee(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM employees WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertHolidayTx(ctx context.Context, tx *sql.Tx, h domain.Holiday, createdAt string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO holidays(id,date,name,country,scope,type,region,city,source,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		h.ID, h.Date, h.Name, h.Country, h.Scope, h.Type, h.Region, h.City, h.Source, createdAt)
	return err
}

// HolidayExistsTx reports whether a holiday with the same (date, name) pair is
// already stored, regardless of source.
func (r Repo) HolidayExistsTx(ctx context.Context, tx *sql.Tx, date, name string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM holidays WHERE date=? AND name=? LIMIT 1`, date, name).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

type HolidayFilters struct {
	Year    int
	Country string
	Scope   string
	Source  string
}

func (r Repo) ListHolidays(ctx context.Context, f HolidayFilters) ([]domain.Holiday, error) {
	var clauses []string
	var args []any
	if f.Year > 0 {
		clauses = append(clauses, "date BETWEEN ? AND ?")
		args = append(args, fmt.Sprintf("%04d-01-01", f.Year), fmt.Sprintf("%04d-12-31", f.Year))
	}
	if f.Country != "" {
		clauses = append(clauses, "country=?")
		args = append(args, f.Country)
	}
	if f.Scope != "" {
		clauses = append(clauses, "scope=?")
		args = append(args, f.Scope)
	}
	if f.Source != "" {
		clauses = append(clauses, "source=?")
		args = append(args, f.Source)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT id,date,name,country,scope,type,region,city,source FROM holidays ` + where + ` ORDER BY date ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Holiday
	for rows.Next() {
		var h domain.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.Country, &h.Scope, &h.Type, &h.Region, &h.City, &h.Source); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

// ListHolidaysInRange returns holidays whose date falls within [start, end].
func (r Repo) ListHolidaysInRange(ctx context.Context, start, end string) ([]domain.Holiday, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,date,name,country,scope,type,region,city,source FROM holidays WHERE date BETWEEN ? AND ? ORDER BY date ASC, id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Holiday
	for rows.Next() {
		var h domain.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.Country, &h.Scope, &h.Type, &h.Region, &h.City, &h.Source); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (r Repo) DeleteHoliday(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM holidays WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertActivityTx(ctx context.Context, tx *sql.Tx, a domain.Activity) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO activities(id,employee_id,type,date,start_date,end_date,hours,start_time,end_time,notes,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.EmployeeID, a.Type, nullable(a.Date), nullable(a.StartDate), nullable(a.EndDate), a.Hours, a.StartTime, a.EndTime, a.Notes, a.CreatedAt)
	return err
}

func (r Repo) GetActivity(ctx context.Context, id string) (domain.Activity, error) {
	var a domain.Activity
	var date, startDate, endDate sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,employee_id,type,date,start_date,end_date,hours,start_time,end_time,notes,created_at FROM activities WHERE id=?`, id).
		Scan(&a.ID, &a.EmployeeID, &a.Type, &date, &startDate, &endDate, &a.Hours, &a.StartTime, &a.EndTime, &a.Notes, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	a.Date = date.String
	a.StartDate = startDate.String
	a.EndDate = endDate.String
	return a, nil
}

type ActivityFilters struct {
	EmployeeID string
	Type       string
}

func (r Repo) ListActivities(ctx context.Context, f ActivityFilters) ([]domain.Activity, error) {
	var clauses []string
	var args []any
	if f.EmployeeID != "" {
		clauses = append(clauses, "employee_id=?")
		args = append(args, f.EmployeeID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT id,employee_id,type,date,start_date,end_date,hours,start_time,end_time,notes,created_at FROM activities ` + where + ` ORDER BY created_at DESC, id DESC`
	return r.queryActivities(ctx, query, args...)
}

// ListActivitiesInRange returns activities touching [start, end]: single-day
// entries dated inside the window plus ranged entries overlapping it.
func (r Repo) ListActivitiesInRange(ctx context.Context, start, end string) ([]domain.Activity, error) {
	query := `SELECT id,employee_id,type,date,start_date,end_date,hours,start_time,end_time,notes,created_at FROM activities
WHERE (date BETWEEN ? AND ?) OR (start_date IS NOT NULL AND start_date<=? AND end_date>=?)
ORDER BY created_at ASC, id ASC`
	return r.queryActivities(ctx, query, start, end, end, start)
}

func (r Repo) queryActivities(ctx context.Context, query string, args ...any) ([]domain.Activity, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Activity
	for rows.Next() {
		var a domain.Activity
		var date, startDate, endDate sql.NullString
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Type, &date, &startDate, &endDate, &a.Hours, &a.StartTime, &a.EndTime, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Date = date.String
		a.StartDate = startDate.String
		a.EndDate = endDate.String
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) DeleteActivityTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) LatestEvents(ctx context.Context, limit int, companyID, evtType, entityKind, entityID string) ([]domain.Event, error) {
	return r.LatestEventsFrom(ctx, limit, 0, companyID, evtType, entityKind, entityID)
}

func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, companyID, evtType, entityKind, entityID string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if companyID != "" {
		clauses = append(clauses, "company_id=?")
		args = append(args, companyID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,COALESCE(company_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.CompanyID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// EventsAfter returns events with IDs greater than the cursor in ascending order.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64, companyID string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	clauses := []string{"1=1"}
	var args []any
	if companyID != "" {
		clauses = append(clauses, "company_id=?")
		args = append(args, companyID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id>?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,COALESCE(company_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events %s ORDER BY id ASC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.CompanyID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestEventID returns the most recent event ID for a company.
func (r Repo) LatestEventID(ctx context.Context, companyID string) (int64, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events WHERE company_id=?`, companyID)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
