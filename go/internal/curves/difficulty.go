package curves

import "strings"

// Difficulty selects the tolerance band and score multiplier for a game
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// ParseDifficulty maps a case-insensitive name onto a known difficulty.
// Unknown names are returned unchanged with ok=false so callers can still
// run a game with the fallback tolerance and multiplier.
func ParseDifficulty(name string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "easy":
		return Easy, true
	case "medium":
		return Medium, true
	case "hard":
		return Hard, true
	default:
		return Difficulty(name), false
	}
}

// Key returns the dataset key for the difficulty
func (d Difficulty) Key() string {
	return strings.ToLower(string(d))
}

// Known reports whether d is one of the predefined difficulties
func (d Difficulty) Known() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// ToleranceValue returns the allowed wattage deviation per tick.
// Anything that is not Easy or Medium plays with the Hard band.
func ToleranceValue(d Difficulty) float64 {
	switch d {
	case Easy:
		return 15
	case Medium:
		return 10
	default:
		return 6
	}
}

// ToleranceFor builds the constant tolerance curve for a difficulty
func ToleranceFor(d Difficulty) Curve {
	tol := ToleranceValue(d)
	curve := make(Curve, Length)
	for i := range curve {
		curve[i] = tol
	}
	return curve
}
