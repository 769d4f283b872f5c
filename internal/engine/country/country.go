// Package country canonicalizes free-form or ISO country identifiers into a
// stable comparison key. Holiday feeds and the employee directory disagree on
// spelling ("ES", "ESP", "España", "Spain"), so every comparison in the
// calendar engine goes through Normalize rather than trusting stored values.
package country

import "strings"

type entry struct {
	Code2 string
	Code3 string
	EN    string
	ES    string
}

// Declaration order is significant: substring resolution scans the table in
// order and the first hit wins, so behavior must be reproducible.
var table = []entry{
	{"ES", "ESP", "Spain", "España"},
	{"PT", "PRT", "Portugal", "Portugal"},
	{"FR", "FRA", "France", "Francia"},
	{"DE", "DEU", "Germany", "Alemania"},
	{"IT", "ITA", "Italy", "Italia"},
	{"GB", "GBR", "United Kingdom", "Reino Unido"},
	{"IE", "IRL", "Ireland", "Irlanda"},
	{"NL", "NLD", "Netherlands", "Países Bajos"},
	{"BE", "BEL", "Belgium", "Bélgica"},
	{"CH", "CHE", "Switzerland", "Suiza"},
	{"AT", "AUT", "Austria", "Austria"},
	{"PL", "POL", "Poland", "Polonia"},
	{"SE", "SWE", "Sweden", "Suecia"},
	{"NO", "NOR", "Norway", "Noruega"},
	{"DK", "DNK", "Denmark", "Dinamarca"},
	{"FI", "FIN", "Finland", "Finlandia"},
	{"GR", "GRC", "Greece", "Grecia"},
	{"RO", "ROU", "Romania", "Rumanía"},
	{"CZ", "CZE", "Czechia", "Chequia"},
	{"HU", "HUN", "Hungary", "Hungría"},
	{"US", "USA", "United States", "Estados Unidos"},
	{"CA", "CAN", "Canada", "Canadá"},
	{"MX", "MEX", "Mexico", "México"},
	{"BR", "BRA", "Brazil", "Brasil"},
	{"AR", "ARG", "Argentina", "Argentina"},
	{"CL", "CHL", "Chile", "Chile"},
	{"CO", "COL", "Colombia", "Colombia"},
	{"PE", "PER", "Peru", "Perú"},
	{"UY", "URY", "Uruguay", "Uruguay"},
	{"VE", "VEN", "Venezuela", "Venezuela"},
	{"EC", "ECU", "Ecuador", "Ecuador"},
	{"BO", "BOL", "Bolivia", "Bolivia"},
	{"MA", "MAR", "Morocco", "Marruecos"},
	{"CN", "CHN", "China", "China"},
	{"JP", "JPN", "Japan", "Japón"},
	{"IN", "IND", "India", "India"},
	{"AU", "AUS", "Australia", "Australia"},
}

// Variants holds the three display forms of a country.
type Variants struct {
	EN   string `json:"en"`
	ES   string `json:"es"`
	Code string `json:"code,omitempty"`
}

// Normalize resolves raw into the English canonical name. ISO-3166 alpha-2
// and alpha-3 codes, English and Spanish names, and substring matches in
// either direction are accepted. Unknown countries pass through trimmed and
// unchanged; Normalize never fails.
func Normalize(raw string) string {
	in := strings.TrimSpace(raw)
	if in == "" {
		return ""
	}
	if len(in) == 2 || len(in) == 3 {
		code := strings.ToUpper(in)
		for _, e := range table {
			if e.Code2 == code || e.Code3 == code {
				return e.EN
			}
		}
	}
	lower := strings.ToLower(in)
	for _, e := range table {
		if lower == strings.ToLower(e.EN) || lower == strings.ToLower(e.ES) {
			return e.EN
		}
	}
	for _, e := range table {
		if containsEither(lower, strings.ToLower(e.EN)) || containsEither(lower, strings.ToLower(e.ES)) {
			return e.EN
		}
	}
	return in
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// lookup returns the table entry whose canonical name matches, or nil.
func lookup(canonical string) *entry {
	for i := range table {
		if table[i].EN == canonical {
			return &table[i]
		}
	}
	return nil
}

// Resolve derives all three display forms for raw. It returns nil for empty
// input; off-table countries come back with both names set to the normalized
// input and no code.
func Resolve(raw string) *Variants {
	canonical := Normalize(raw)
	if canonical == "" {
		return nil
	}
	if e := lookup(canonical); e != nil {
		return &Variants{EN: e.EN, ES: e.ES, Code: e.Code2}
	}
	return &Variants{EN: canonical, ES: canonical}
}

// Equal reports whether two raw country strings name the same country:
// their normalized forms match, or the raw forms match verbatim (a defense
// for codes and names absent from the table).
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return Normalize(a) == Normalize(b)
}

// Match compares the full variant sets of both sides: any variant pair that
// is normalized-equal or raw-equal is a match. The holiday resolver uses this
// so a feed carrying "ESP" still matches an employee stored as "España".
func Match(a, b string) bool {
	va, vb := Resolve(a), Resolve(b)
	if va == nil || vb == nil {
		return false
	}
	for _, x := range variantList(a, va) {
		for _, y := range variantList(b, vb) {
			if Equal(x, y) {
				return true
			}
		}
	}
	return false
}

func variantList(raw string, v *Variants) []string {
	out := []string{raw, v.EN, v.ES}
	if v.Code != "" {
		out = append(out, v.Code)
	}
	return out
}
