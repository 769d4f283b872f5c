package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"teamcal/internal/config"
	"teamcal/internal/engine"
)

const (
	defaultFeedInterval = 15 * time.Minute
	defaultFeedTimeout  = 10 * time.Second
)

// feedPoller periodically pulls configured holiday feeds and imports their
// records. Imports dedupe on (date, name), so re-fetching a feed is harmless.
type feedPoller struct {
	engine  engine.Engine
	company string
	feeds   []config.FeedConfig
	client  *http.Client
	mu      sync.Mutex
	lastRun map[int]time.Time
}

func startFeedPoller(e engine.Engine) {
	if e.Config == nil || len(e.Config.Feeds) == 0 {
		return
	}
	companyID := e.Config.Company.ID
	if strings.TrimSpace(companyID) == "" {
		return
	}
	p := &feedPoller{
		engine:  e,
		company: companyID,
		feeds:   e.Config.Feeds,
		client:  &http.Client{Timeout: defaultFeedTimeout},
		lastRun: make(map[int]time.Time),
	}
	go p.run()
}

func (p *feedPoller) run() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		p.pollDue()
		<-ticker.C
	}
}

func (p *feedPoller) pollDue() {
	now := time.Now()
	for i, feed := range p.feeds {
		if feed.Enabled != nil && !*feed.Enabled {
			continue
		}
		if strings.TrimSpace(feed.URL) == "" {
			continue
		}
		if !p.due(i, feed, now) {
			continue
		}
		if err := p.pollFeed(i, feed); err != nil {
			log.Printf("feed %s: %v", feed.Name, err)
		}
	}
}

func (p *feedPoller) due(idx int, feed config.FeedConfig, now time.Time) bool {
	interval := defaultFeedInterval
	if feed.IntervalSeconds > 0 {
		interval = time.Duration(feed.IntervalSeconds) * time.Second
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastRun[idx]
	if ok && now.Sub(last) < interval {
		return false
	}
	p.lastRun[idx] = now
	return true
}

// feedRecord is the wire shape holiday feeds deliver. Scope may also arrive
// in the type field depending on the provider.
type feedRecord struct {
	Date    string `json:"date"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Scope   string `json:"scope,omitempty"`
	Type    string `json:"type,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

func (p *feedPoller) pollFeed(idx int, feed config.FeedConfig) error {
	ctx := context.Background()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	res, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	var records []feedRecord
	if err := json.NewDecoder(res.Body).Decode(&records); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	holidays := holidaysFromRecords(recordsToDTO(records, feed.Scope), feed.Name)
	result, err := p.engine.ImportHolidays(ctx, p.company, feed.Name, "feed:"+feed.Name, holidays)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if result.Imported > 0 {
		log.Printf("feed %s: imported %d holidays (%d duplicates skipped)", feed.Name, result.Imported, result.Skipped)
	}
	return nil
}

func recordsToDTO(records []feedRecord, defaultScope string) []HolidayRecord {
	res := make([]HolidayRecord, 0, len(records))
	for _, r := range records {
		scope := r.Scope
		if scope == "" && r.Type == "" {
			scope = defaultScope
		}
		res = append(res, HolidayRecord{
			Date:    r.Date,
			Name:    r.Name,
			Country: r.Country,
			Scope:   scope,
			Type:    r.Type,
			Region:  r.Region,
			City:    r.City,
		})
	}
	return res
}
