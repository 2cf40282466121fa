package utils

import (
	"math"
)

// ModAngDeg maps any angle in degrees into [0, 360).
func ModAngDeg(ang float64) float64 {
	wrapped := math.Mod(math.Mod(ang, 360)+360, 360)
	// math.Mod can hand back 360 for tiny negative inputs due to rounding.
	if wrapped >= 360 {
		return 0
	}
	return wrapped
}

// Clamp limits v to [lo, hi]. NaN is mapped to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
