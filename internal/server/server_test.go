package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"teamcal/internal/config"
	"teamcal/internal/db"
	"teamcal/internal/engine"
	"teamcal/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("acme")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	if _, err := e.InitCompany(context.Background(), "acme", "Acme", "Spain", "tester"); err != nil {
		t.Fatalf("init company: %v", err)
	}
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{AllowLegacyActorHeader: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "tester")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestCalendarEndToEnd(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/companies/acme/employees", map[string]any{
		"name":    "Ana",
		"country": "ES",
		"region":  "Madrid",
		"city":    "Madrid",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create employee status %d: %s", res.StatusCode, string(data))
	}
	var emp EmployeeResponse
	if err := json.Unmarshal(data, &emp); err != nil {
		t.Fatalf("unmarshal employee: %v", err)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/companies/acme/holidays/import", map[string]any{
		"source": "national-feed",
		"holidays": []map[string]any{
			{"date": "2024-01-01", "name": "New Year", "country": "ES", "scope": "national"},
		},
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("import status %d: %s", res.StatusCode, string(data))
	}
	var imported ImportHolidaysResponse
	_ = json.Unmarshal(data, &imported)
	if imported.Imported != 1 {
		t.Fatalf("imported = %d, want 1", imported.Imported)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/activities", map[string]any{
		"employee_id": emp.ID,
		"type":        "vacation",
		"start_date":  "2024-01-10",
		"end_date":    "2024-01-12",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create activity status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/companies/acme/calendar/2024/1", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("calendar status %d: %s", res.StatusCode, string(data))
	}
	var view MonthViewResponse
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	if len(view.Days) != 31 || len(view.Rows) != 1 {
		t.Fatalf("view shape: %d days, %d rows", len(view.Days), len(view.Rows))
	}
	row := view.Rows[0]
	if !row.Cells[0].Holiday || row.Cells[0].HolidayName != "New Year" {
		t.Errorf("Jan 1 should carry the imported holiday, got %+v", row.Cells[0])
	}
	if row.Cells[9].Code != "V" {
		t.Errorf("Jan 10 code = %q, want V", row.Cells[9].Code)
	}
	if row.Totals.VacationDays != 3 {
		t.Errorf("vacation days = %d, want 3", row.Totals.VacationDays)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/employees/"+emp.ID+"/summary/2024", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("summary status %d: %s", res.StatusCode, string(data))
	}
	var sum YearSummaryResponse
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if sum.Totals.VacationDays != 3 {
		t.Errorf("year vacation total = %d, want 3", sum.Totals.VacationDays)
	}
}

func TestInvalidGuardRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/companies/acme/employees", map[string]any{
		"name":    "Ana",
		"country": "ES",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create employee status %d: %s", res.StatusCode, string(data))
	}
	var emp EmployeeResponse
	_ = json.Unmarshal(data, &emp)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/activities", map[string]any{
		"employee_id": emp.ID,
		"type":        "guard",
		"date":        "2024-01-13",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("guard without times: status %d, want 400: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "bad_request" {
		t.Errorf("error code = %q, want bad_request", envelope.Error.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v0/companies", nil)
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401 without credentials", res.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/v0/health", nil)
	res, err = srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d, want 200 unauthenticated", res.StatusCode)
	}
}
