// Package scoring turns one tick's reading into points.
//
// Everything here is a pure function. Absent values (no reading, no curve
// entry) are passed as NaN and always score zero.
package scoring

import (
	"math"

	"github.com/mcdev12/powermatch/go/internal/curves"
)

// Multiplier returns the score multiplier for a difficulty
func Multiplier(d curves.Difficulty) float64 {
	switch d {
	case curves.Easy:
		return 1.0
	case curves.Medium:
		return 1.25
	case curves.Hard:
		return 1.5
	default:
		return 1.0
	}
}

// Tick scores a single reading against the target. A reading further than
// tolerance from the target earns nothing; inside the band the score falls
// off linearly from 100 (times the multiplier) at a perfect match.
func Tick(actual, target, tolerance float64, d curves.Difficulty) float64 {
	if math.IsNaN(actual) || math.IsNaN(target) || math.IsNaN(tolerance) || tolerance <= 0 {
		return 0.0
	}

	distance := math.Abs(actual - target)
	if distance > tolerance {
		return 0.0
	}

	base := 100 * (1 - distance/tolerance)
	return Round1(base * Multiplier(d))
}

// Round1 rounds to one decimal place, halves away from zero
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Accumulate adds a tick score to a running total. The total is re-rounded
// on every step, so a sequence of ticks must be folded in order.
func Accumulate(total, tickScore float64) float64 {
	return Round1(total + tickScore)
}
