package nutrition

import "math"

// Percentage returns how much of goal value reaches, rounded and capped at 100.
// A non-positive goal or any NaN or infinite input yields 0.
func Percentage(value, goal float64) int {
	if goal <= 0 || !finite(value) || !finite(goal) {
		return 0
	}
	p := math.Round(value / goal * 100)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return int(p)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
