package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"teamcal/internal/config"
	"teamcal/internal/db"
	"teamcal/internal/engine"
	"teamcal/internal/migrate"
	"teamcal/internal/server"
)

func main() {
	workspace := "/tmp/teamcal-check1"
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		panic(err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		panic(err)
	}
	cfg := config.Default("teamcal")
	e := engine.New(conn, cfg)
	if _, err := e.InitCompany(context.Background(), cfg.Company.ID, "Teamcal", cfg.Company.Country, "tester"); err != nil {
		panic(err)
	}
	jwtSecret := "test-secret"
	h, err := server.New(server.Config{Engine: e, BasePath: "/v0", Auth: server.AuthConfig{JWTSecret: jwtSecret}})
	if err != nil {
		panic(err)
	}
	ts := httptest.NewServer(h)
	defer ts.Close()

	token := devToken(ts.URL)

	body := map[string]any{
		"name":    "Ana",
		"country": "ES",
		"region":  "Madrid",
	}
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v0/companies/teamcal/employees", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer res.Body.Close()
	var resp any
	_ = json.NewDecoder(res.Body).Decode(&resp)
	fmt.Printf("create employee: status=%d resp=%v\n", res.StatusCode, resp)

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/v0/companies/teamcal/calendar/2025/9", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res2, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer res2.Body.Close()
	var view any
	_ = json.NewDecoder(res2.Body).Decode(&view)
	fmt.Printf("month view: status=%d\n", res2.StatusCode)
}

func devToken(baseURL string) string {
	b, _ := json.Marshal(map[string]any{"actor_id": "tester"})
	res, err := http.Post(baseURL+"/v0/auth/dev/login", "application/json", bytes.NewReader(b))
	if err != nil {
		panic(err)
	}
	defer res.Body.Close()
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		panic(err)
	}
	return out.Token
}
