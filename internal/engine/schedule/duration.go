package schedule

import (
	"math"
	"strconv"
	"strings"
)

// GuardHours computes the elapsed hours of a guard shift from two HH:MM
// times of day. A shift whose end is before its start crosses midnight.
// Missing or unparsable times yield 0; the result is rounded to two
// decimal places.
func GuardHours(startTime, endTime string) float64 {
	start, okStart := minutesOfDay(startTime)
	end, okEnd := minutesOfDay(endTime)
	if !okStart || !okEnd {
		return 0
	}
	if end < start {
		end += 24 * 60
	}
	hours := float64(end-start) / 60
	return math.Round(hours*100) / 100
}

func minutesOfDay(hhmm string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
