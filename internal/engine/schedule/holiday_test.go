package schedule

import (
	"testing"

	"teamcal/internal/domain"
)

func TestAppliesNational(t *testing.T) {
	h := domain.Holiday{Date: "2024-01-01", Name: "New Year", Country: "Spain", Scope: domain.ScopeNational}
	locations := []domain.Location{
		{Country: "ES"},
		{Country: "ESP", Region: "Madrid"},
		{Country: "España", Region: "Cataluña", City: "Barcelona"},
	}
	for _, loc := range locations {
		if !Applies(h, loc) {
			t.Errorf("national holiday should apply to %+v regardless of region/city", loc)
		}
	}
	if Applies(h, domain.Location{Country: "France"}) {
		t.Error("national holiday must not cross countries")
	}
}

func TestAppliesRegional(t *testing.T) {
	h := domain.Holiday{Date: "2024-05-02", Name: "Dos de Mayo", Country: "ES", Scope: domain.ScopeRegional, Region: "Madrid"}
	if !Applies(h, domain.Location{Country: "Spain", Region: "Madrid"}) {
		t.Error("regional holiday should apply within its region")
	}
	if Applies(h, domain.Location{Country: "ES", Region: "Cataluña"}) {
		t.Error("regional holiday must not apply to another region")
	}
	// subnational comparison is exact and case-sensitive
	if Applies(h, domain.Location{Country: "ES", Region: "madrid"}) {
		t.Error("region comparison must be case-sensitive")
	}
}

func TestAppliesLocal(t *testing.T) {
	h := domain.Holiday{Date: "2024-05-15", Name: "San Isidro", Country: "ES", Scope: domain.ScopeLocal, Region: "Madrid", City: "Madrid"}
	if !Applies(h, domain.Location{Country: "ESP", Region: "Madrid", City: "Madrid"}) {
		t.Error("local holiday should apply in its city")
	}
	if Applies(h, domain.Location{Country: "ES", Region: "Madrid", City: "Alcalá"}) {
		t.Error("local holiday must not apply to another city")
	}
}

func TestAppliesScopeFallbacks(t *testing.T) {
	// no scope, no type, no region: treated as national
	implicit := domain.Holiday{Date: "2024-08-15", Name: "Asunción", Country: "ES"}
	if !Applies(implicit, domain.Location{Country: "Spain", Region: "Madrid"}) {
		t.Error("scopeless holiday without region should be national")
	}

	// scope empty, type carries the level
	typed := domain.Holiday{Date: "2024-05-02", Name: "Dos de Mayo", Country: "ES", Type: domain.ScopeRegional, Region: "Madrid"}
	if Applies(typed, domain.Location{Country: "ES", Region: "Cataluña"}) {
		t.Error("type field should determine hierarchy when scope is empty")
	}

	// unknown scope values stay applicable on a country match
	odd := domain.Holiday{Date: "2024-03-01", Name: "Feed Oddity", Country: "ES", Scope: "provincial", Region: "Sevilla"}
	if !Applies(odd, domain.Location{Country: "ES", Region: "Madrid"}) {
		t.Error("unknown hierarchy with a country match should remain applicable")
	}
}

func TestAppliesMissingInputs(t *testing.T) {
	h := domain.Holiday{Date: "2024-01-01", Name: "New Year", Country: "ES"}
	if Applies(h, domain.Location{}) {
		t.Error("empty employee country must not match")
	}
	if Applies(domain.Holiday{Date: "2024-01-01", Name: "X"}, domain.Location{Country: "ES"}) {
		t.Error("holiday without country must not match")
	}
}

func TestRelevantUnion(t *testing.T) {
	holidays := []domain.Holiday{
		{ID: "nat", Date: "2024-01-01", Name: "New Year", Country: "ES", Scope: domain.ScopeNational},
		{ID: "mad", Date: "2024-05-02", Name: "Dos de Mayo", Country: "ES", Scope: domain.ScopeRegional, Region: "Madrid"},
		{ID: "fr", Date: "2024-07-14", Name: "Fête Nationale", Country: "FR", Scope: domain.ScopeNational},
	}
	locations := []domain.Location{
		{Country: "ES", Region: "Cataluña"},
		{Country: "ES", Region: "Madrid"},
	}
	out := Relevant(holidays, locations)
	if len(out) != 2 {
		t.Fatalf("expected 2 relevant holidays, got %d", len(out))
	}
	if out[0].ID != "nat" || out[1].ID != "mad" {
		t.Errorf("unexpected relevant set: %+v", out)
	}
}

func TestHolidayOn(t *testing.T) {
	holidays := []domain.Holiday{
		{ID: "mad", Date: "2024-05-02", Name: "Dos de Mayo", Country: "ES", Scope: domain.ScopeRegional, Region: "Madrid"},
		{ID: "nat", Date: "2024-05-02", Name: "Company Day", Country: "ES", Scope: domain.ScopeNational},
	}
	got := HolidayOn("2024-05-02", holidays, domain.Location{Country: "ES", Region: "Cataluña"})
	if got == nil || got.ID != "nat" {
		t.Fatalf("expected national fallback for Cataluña, got %+v", got)
	}
	if HolidayOn("2024-05-03", holidays, domain.Location{Country: "ES", Region: "Madrid"}) != nil {
		t.Error("no holiday expected on 2024-05-03")
	}
}
