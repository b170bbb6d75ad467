package service

import "math"

// CalculatePoints returns the reward for a single part. Optional terms only
// count when present. Rounding is half away from zero.
func CalculatePoints(level int, reps, sets *int, weight, minutes *float64) int {
	basePoints := float64(level) * 10
	if reps != nil {
		basePoints += float64(*reps) * 0.1
	}
	if sets != nil {
		basePoints += float64(*sets) * 0.5
	}
	if weight != nil {
		basePoints += *weight * 0.2
	}
	if minutes != nil {
		basePoints += *minutes * 0.3
	}
	return int(math.Round(basePoints))
}

// CalculateBonusPoints returns the reward for completing every part:
// round(level * frequency^1.5 * duration^2), evaluated left to right.
func CalculateBonusPoints(level, frequency, duration int) int {
	bonus := float64(level) * math.Pow(float64(frequency), 1.5) * math.Pow(float64(duration), 2)
	return int(math.Round(bonus))
}
