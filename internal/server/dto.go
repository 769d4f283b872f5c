package server

import (
	"teamcal/internal/config"
	"teamcal/internal/domain"
	"teamcal/internal/engine"
)

type CreateCompanyRequest struct {
	ID      string  `json:"id" example:"acme"`
	Name    string  `json:"name" example:"Acme Corp"`
	Country *string `json:"country,omitempty" example:"Spain"`
}

type CompanyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Country   string `json:"country,omitempty"`
	CreatedAt string `json:"created_at"`
}

func companyResponse(c domain.Company) CompanyResponse {
	return CompanyResponse{ID: c.ID, Name: c.Name, Country: c.Country, CreatedAt: c.CreatedAt}
}

type CompanyConfigResponse struct {
	Company struct {
		ID      string `json:"id"`
		Name    string `json:"name,omitempty"`
		Country string `json:"country,omitempty"`
	} `json:"company"`
	Teams  []string            `json:"teams"`
	Limits config.Limits       `json:"limits"`
	Feeds  []config.FeedConfig `json:"feeds"`
}

func configResponse(cfg *config.Config) CompanyConfigResponse {
	var resp CompanyConfigResponse
	resp.Company.ID = cfg.Company.ID
	resp.Company.Name = cfg.Company.Name
	resp.Company.Country = cfg.Company.Country
	resp.Teams = nonNilSlice(cfg.Teams)
	resp.Limits = cfg.Limits
	resp.Feeds = nonNilSlice(cfg.Feeds)
	return resp
}

type CreateEmployeeRequest struct {
	ID      *string `json:"id,omitempty"`
	Name    string  `json:"name" example:"Ana García"`
	Team    *string `json:"team,omitempty" example:"platform"`
	Country string  `json:"country" example:"ES"`
	Region  *string `json:"region,omitempty" example:"Madrid"`
	City    *string `json:"city,omitempty" example:"Madrid"`
}

type UpdateEmployeeRequest struct {
	Name    *string `json:"name,omitempty"`
	Team    *string `json:"team,omitempty"`
	Country *string `json:"country,omitempty"`
	Region  *string `json:"region,omitempty"`
	City    *string `json:"city,omitempty"`
}

type EmployeeResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Team      string `json:"team,omitempty"`
	Country   string `json:"country"`
	Region    string `json:"region,omitempty"`
	City      string `json:"city,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func employeeResponse(e domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:        e.ID,
		CompanyID: e.CompanyID,
		Name:      e.Name,
		Team:      e.Team,
		Country:   e.Country,
		Region:    e.Region,
		City:      e.City,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func mapEmployees(items []domain.Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, 0, len(items))
	for _, e := range items {
		res = append(res, employeeResponse(e))
	}
	return res
}

type HolidayRecord struct {
	Date    string `json:"date" example:"2024-01-01"`
	Name    string `json:"name" example:"New Year"`
	Country string `json:"country" example:"ES"`
	Scope   string `json:"scope,omitempty" enum:"national,regional,local,"`
	Type    string `json:"type,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

type ImportHolidaysRequest struct {
	Source   string          `json:"source" example:"national-feed"`
	Holidays []HolidayRecord `json:"holidays"`
}

type ImportHolidaysResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type HolidayResponse struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Scope   string `json:"scope,omitempty"`
	Type    string `json:"type,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
	Source  string `json:"source,omitempty"`
}

func holidayResponse(h domain.Holiday) HolidayResponse {
	return HolidayResponse{
		ID:      h.ID,
		Date:    h.Date,
		Name:    h.Name,
		Country: h.Country,
		Scope:   h.Scope,
		Type:    h.Type,
		Region:  h.Region,
		City:    h.City,
		Source:  h.Source,
	}
}

func mapHolidays(items []domain.Holiday) []HolidayResponse {
	res := make([]HolidayResponse, 0, len(items))
	for _, h := range items {
		res = append(res, holidayResponse(h))
	}
	return res
}

func holidaysFromRecords(records []HolidayRecord, source string) []domain.Holiday {
	res := make([]domain.Holiday, 0, len(records))
	for _, r := range records {
		res = append(res, domain.Holiday{
			Date:    r.Date,
			Name:    r.Name,
			Country: r.Country,
			Scope:   r.Scope,
			Type:    r.Type,
			Region:  r.Region,
			City:    r.City,
			Source:  source,
		})
	}
	return res
}

type CreateActivityRequest struct {
	ID         *string `json:"id,omitempty"`
	EmployeeID string  `json:"employee_id"`
	Type       string  `json:"type" example:"vacation"`
	Date       *string `json:"date,omitempty" example:"2024-01-10"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	Hours      float64 `json:"hours,omitempty"`
	StartTime  *string `json:"start_time,omitempty" example:"22:00"`
	EndTime    *string `json:"end_time,omitempty" example:"06:00"`
	Notes      *string `json:"notes,omitempty"`
}

type ActivityResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Type       string  `json:"type"`
	Date       string  `json:"date,omitempty"`
	StartDate  string  `json:"start_date,omitempty"`
	EndDate    string  `json:"end_date,omitempty"`
	Hours      float64 `json:"hours,omitempty"`
	StartTime  string  `json:"start_time,omitempty"`
	EndTime    string  `json:"end_time,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func activityResponse(a domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		Type:       a.Type,
		Date:       a.Date,
		StartDate:  a.StartDate,
		EndDate:    a.EndDate,
		Hours:      a.Hours,
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt,
	}
}

func mapActivities(items []domain.Activity) []ActivityResponse {
	res := make([]ActivityResponse, 0, len(items))
	for _, a := range items {
		res = append(res, activityResponse(a))
	}
	return res
}

// MonthViewResponse reuses the engine's resolved view verbatim; the cells
// already carry display codes and style pairings the UI renders as-is.
type MonthViewResponse = engine.MonthView

type YearSummaryResponse = engine.YearSummary

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	CompanyID  string `json:"company_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json,omitempty"`
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		CompanyID:  e.CompanyID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    e.Payload,
	}
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type CreateAPIKeyRequest struct {
	Name    string `json:"name,omitempty"`
	ActorID string `json:"actor_id"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at"`
	// Key is only returned on creation; the server stores a hash.
	Key string `json:"key,omitempty"`
}

type DevLoginRequest struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
