package services

// Reputation rules. Everything here is pure.

const (
	MinRating = 1
	MaxRating = 5

	// MaxComputedLevel is the highest level LevelForXP produces. Reviewer.Level
	// is declared up to 10; levels 7-10 are unused headroom.
	MaxComputedLevel = 6
)

// ratingAdjustment is added to a project's XP reward for each owner rating.
var ratingAdjustment = [MaxRating + 1]int{
	1: -50,
	2: -25,
	3: 0,
	4: 25,
	5: 50,
}

// levelThresholds lists the minimum XP for levels 2..6.
var levelThresholds = []int{500, 1000, 1500, 2000, 2500}

// ValidRating reports whether r is an accepted 1-5 rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// XPForRating returns the XP paid for a rating against the project's reward.
// The result is never negative. Ratings outside 1-5 earn no adjustment.
func XPForRating(baseXP, rating int) int {
	xp := baseXP
	if ValidRating(rating) {
		xp += ratingAdjustment[rating]
	}
	if xp < 0 {
		return 0
	}
	return xp
}

// LevelForXP maps cumulative XP to a level in [1, MaxComputedLevel].
func LevelForXP(xp int) int {
	level := 1
	for _, threshold := range levelThresholds {
		if xp < threshold {
			break
		}
		level++
	}
	return level
}

// AverageRating is the arithmetic mean of ratings, 0 for none.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
