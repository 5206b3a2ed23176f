package rules

import "math"

// LevelForPoints derives the level from the running total: each level costs
// quadratically more points (level n starts at 100*(n-1)^2 points).
func LevelForPoints(totalPoints int64) int {
	if totalPoints <= 0 {
		return 1
	}
	return 1 + int(math.Sqrt(float64(totalPoints)/100))
}
