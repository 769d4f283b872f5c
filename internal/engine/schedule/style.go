package schedule

import (
	"teamcal/internal/domain"
)

// Style is the background/foreground pairing the presentation layer applies
// to one calendar cell. Values are CSS hex colors; the UI never derives its
// own.
type Style struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

var (
	styleHoliday = Style{Background: "#ffd966", Foreground: "#7f6000"}
	styleWeekend = Style{Background: "#efefef", Foreground: "#999999"}
	styleNone    = Style{Background: "#ffffff", Foreground: "#333333"}
	// distinct from both styleNone and the typed pairings
	styleUnknown = Style{Background: "#e6e6e6", Foreground: "#434343"}

	typeStyles = map[string]Style{
		domain.TypeVacation: {Background: "#b6d7a8", Foreground: "#274e13"},
		domain.TypeAbsence:  {Background: "#f4cccc", Foreground: "#990000"},
		domain.TypeHLD:      {Background: "#9fc5e8", Foreground: "#073763"},
		domain.TypeGuard:    {Background: "#d9d2e9", Foreground: "#351c75"},
		domain.TypeTraining: {Background: "#fce5cd", Foreground: "#b45309"},
		domain.TypeOther:    {Background: "#d0e0e3", Foreground: "#134f5c"},
	}
)

// CellStyle resolves the color pairing for a cell. Precedence, first match
// wins: holiday, weekend, activity type, neutral default.
func CellStyle(a *domain.Activity, weekend, holiday bool) Style {
	if holiday {
		return styleHoliday
	}
	if weekend {
		return styleWeekend
	}
	if a == nil || a.Type == "" {
		return styleNone
	}
	if s, ok := typeStyles[CanonicalType(a.Type)]; ok {
		return s
	}
	return styleUnknown
}
