package teamcalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Teamcal HTTP API client.
type Client struct {
	BaseURL     string
	CompanyID   string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, companyID string) *Client {
	return &Client{
		BaseURL:   baseURL,
		CompanyID: companyID,
		Timeout:   10 * time.Second,
	}
}

// Employee represents the API employee model.
type Employee struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Team      string `json:"team,omitempty"`
	Country   string `json:"country"`
	Region    string `json:"region,omitempty"`
	City      string `json:"city,omitempty"`
}

// Activity represents a calendar entry.
type Activity struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Type       string  `json:"type"`
	Date       string  `json:"date,omitempty"`
	StartDate  string  `json:"start_date,omitempty"`
	EndDate    string  `json:"end_date,omitempty"`
	Hours      float64 `json:"hours,omitempty"`
	StartTime  string  `json:"start_time,omitempty"`
	EndTime    string  `json:"end_time,omitempty"`
}

// Holiday is one record of a holiday feed payload.
type Holiday struct {
	Date    string `json:"date"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Scope   string `json:"scope,omitempty"`
	Type    string `json:"type,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

// ImportResult reports how many feed records were stored vs skipped.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Style is a background/foreground color pair for a rendered cell.
type Style struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

// DayCell is one rendered cell of the month grid.
type DayCell struct {
	Date        string `json:"date"`
	Code        string `json:"code,omitempty"`
	Holiday     bool   `json:"holiday,omitempty"`
	HolidayName string `json:"holiday_name,omitempty"`
	Style       Style  `json:"style"`
}

// MonthTotals are day-count aggregates for one employee and month.
type MonthTotals struct {
	VacationDays int `json:"vacation_days"`
	AbsenceDays  int `json:"absence_days"`
}

// HourTotals sums timed activity hours.
type HourTotals struct {
	HLD      float64 `json:"hld_hours"`
	Guard    float64 `json:"guard_hours"`
	Training float64 `json:"training_hours"`
}

// EmployeeRow is one employee's resolved month.
type EmployeeRow struct {
	Employee Employee    `json:"employee"`
	Cells    []DayCell   `json:"cells"`
	Totals   MonthTotals `json:"totals"`
	Hours    HourTotals  `json:"hours"`
}

// MonthView is the resolved calendar grid for one month.
type MonthView struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Rows  []EmployeeRow `json:"rows"`
}

// MonthSummary is one month's totals within a year summary.
type MonthSummary struct {
	Month  int         `json:"month"`
	Totals MonthTotals `json:"totals"`
	Hours  HourTotals  `json:"hours"`
}

// YearSummary aggregates an employee's months over a calendar year.
type YearSummary struct {
	Employee Employee       `json:"employee"`
	Year     int            `json:"year"`
	Months   []MonthSummary `json:"months"`
	Totals   MonthTotals    `json:"totals"`
	Hours    HourTotals     `json:"hours"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateEmployee registers an employee in the client's company.
func (c *Client) CreateEmployee(ctx context.Context, name, country string) (Employee, error) {
	body := map[string]any{
		"name":    name,
		"country": country,
	}
	var resp Employee
	err := c.do(ctx, http.MethodPost, c.companyPath("employees"), body, &resp)
	return resp, err
}

// ListEmployees returns the company's employees.
func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	var resp []Employee
	err := c.do(ctx, http.MethodGet, c.companyPath("employees"), nil, &resp)
	return resp, err
}

// CreateActivity records a calendar entry. Set either Date or the
// StartDate/EndDate pair on the passed activity.
func (c *Client) CreateActivity(ctx context.Context, a Activity) (Activity, error) {
	var resp Activity
	err := c.do(ctx, http.MethodPost, "v0/activities", a, &resp)
	return resp, err
}

// DeleteActivity removes a calendar entry.
func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("v0/activities/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// ImportHolidays pushes a holiday feed payload.
func (c *Client) ImportHolidays(ctx context.Context, source string, holidays []Holiday) (ImportResult, error) {
	body := map[string]any{
		"source":   source,
		"holidays": holidays,
	}
	var resp ImportResult
	err := c.do(ctx, http.MethodPost, c.companyPath("holidays/import"), body, &resp)
	return resp, err
}

// MonthView fetches the resolved calendar grid for a month.
func (c *Client) MonthView(ctx context.Context, year, month int) (MonthView, error) {
	var resp MonthView
	endpoint := c.companyPath(fmt.Sprintf("calendar/%d/%d", year, month))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// YearSummary fetches an employee's yearly totals.
func (c *Client) YearSummary(ctx context.Context, employeeID string, year int) (YearSummary, error) {
	var resp YearSummary
	endpoint := fmt.Sprintf("v0/employees/%s/summary/%d", url.PathEscape(employeeID), year)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) companyPath(p string) string {
	company := url.PathEscape(c.CompanyID)
	return fmt.Sprintf("v0/companies/%s/%s", company, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
