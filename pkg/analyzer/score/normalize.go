package score

import "math"

// ScaleToRange maps value from [min, max] onto [0, 1]. A degenerate range
// yields 0. The result is clamped so rounding noise never leaves the range.
func ScaleToRange(value, min, max float64) float64 {
	if max-min == 0 {
		return 0
	}
	return clamp((value-min)/(max-min), 0, 1)
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
