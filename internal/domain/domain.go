package domain

type Company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Country   string `json:"country,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Employee struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Team      string `json:"team,omitempty"`
	Country   string `json:"country"`
	Region    string `json:"region,omitempty"`
	City      string `json:"city,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

// Location is the hierarchical place an employee works from. Country may be
// a raw name or an ISO code; canonicalization happens at comparison time.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

func (e Employee) Location() Location {
	return Location{Country: e.Country, Region: e.Region, City: e.City}
}

// Holiday scope levels. An empty scope with no region is treated as national.
const (
	ScopeNational = "national"
	ScopeRegional = "regional"
	ScopeLocal    = "local"
)

type Holiday struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Scope   string `json:"scope,omitempty" enum:"national,regional,local"`
	Type    string `json:"type,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Activity types (closed set). Single-letter aliases come from the entry
// form's type codes and are accepted anywhere a type is read.
const (
	TypeVacation = "vacation"
	TypeAbsence  = "absence"
	TypeHLD      = "hld"
	TypeGuard    = "guard"
	TypeTraining = "training"
	TypeOther    = "other"
)

// Activity is either a single-day entry (Date set) or a ranged entry
// (StartDate/EndDate set). The two forms are distinguished at ingestion;
// resolvers never probe for missing fields.
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
	Notes      string  `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

// Ranged reports whether the activity covers a date range.
func (a Activity) Ranged() bool {
	return a.Date == "" && a.StartDate != ""
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	CompanyID  string `json:"company_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
