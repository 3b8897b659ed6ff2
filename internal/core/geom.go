// Package core provides the small shared vocabulary of the arena: identities,
// seats, paddle directions and numeric helpers. It has no dependencies so that
// physics and bracket logic stay pure and testable.
package core

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Sign returns -1, 0 or 1 matching the sign of v.
func Sign(v float64) float64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// Reflect folds v into [lo, hi] as if it bounced between the two bounds.
// Used to project a straight-line trajectory between two walls.
func Reflect(v, lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 {
		return lo
	}
	period := 2 * span
	x := v - lo
	x -= period * float64(int(x/period))
	if x < 0 {
		x += period
	}
	if x > span {
		x = period - x
	}
	return lo + x
}
