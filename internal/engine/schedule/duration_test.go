package schedule

import "testing"

func TestGuardHours(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  float64
	}{
		{"midnight crossing", "22:00", "06:00", 8},
		{"regular shift", "09:00", "17:30", 8.5},
		{"full day wrap", "08:00", "08:00", 0},
		{"one minute", "23:59", "00:00", 0.02},
		{"missing start", "", "06:00", 0},
		{"missing end", "22:00", "", 0},
		{"garbage", "2pm", "6pm", 0},
		{"out of range hour", "25:00", "26:00", 0},
		{"whitespace tolerated", " 10:00 ", "12:15", 2.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GuardHours(tt.start, tt.end); got != tt.want {
				t.Errorf("GuardHours(%q, %q) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}
