package schedule

import (
	"teamcal/internal/domain"
	"teamcal/internal/engine/country"
)

// effectiveScope picks the hierarchy level a holiday is judged at: the
// explicit scope, falling back to the feed's type field, falling back to
// national when neither is set and no region narrows it.
func effectiveScope(h domain.Holiday) string {
	if h.Scope != "" {
		return h.Scope
	}
	if h.Type != "" {
		return h.Type
	}
	if h.Region == "" {
		return domain.ScopeNational
	}
	return ""
}

// Applies reports whether a holiday is a day off for an employee at loc.
// Countries are compared through their full variant sets; region and city
// are exact, case-sensitive comparisons (no normalization is defined for
// subnational names).
func Applies(h domain.Holiday, loc domain.Location) bool {
	if h.Country == "" || loc.Country == "" {
		return false
	}
	if !country.Match(h.Country, loc.Country) {
		return false
	}
	switch effectiveScope(h) {
	case domain.ScopeNational:
		return true
	case domain.ScopeRegional:
		return h.Region == loc.Region
	case domain.ScopeLocal:
		return h.Region == loc.Region && h.City == loc.City
	default:
		// Unknown scope values with a country match stay applicable. Feeds
		// have shipped ad-hoc level strings before; narrowing this silently
		// would drop real holidays.
		return true
	}
}

// Relevant filters holidays to those applying to at least one of the given
// locations. The calendar legend shows the union across every displayed
// employee.
func Relevant(holidays []domain.Holiday, locations []domain.Location) []domain.Holiday {
	out := make([]domain.Holiday, 0, len(holidays))
	for _, h := range holidays {
		for _, loc := range locations {
			if Applies(h, loc) {
				out = append(out, h)
				break
			}
		}
	}
	return out
}

// HolidayOn returns the first holiday on dateKey that applies to loc, or nil.
func HolidayOn(dateKey string, holidays []domain.Holiday, loc domain.Location) *domain.Holiday {
	for i := range holidays {
		if holidays[i].Date != dateKey {
			continue
		}
		if Applies(holidays[i], loc) {
			return &holidays[i]
		}
	}
	return nil
}
