// Package spacedrep holds the pure spaced-repetition math: the box-level
// interval ladder and the stability update and decay formulas. Nothing
// here touches storage; callers pass state in and persist results.
package spacedrep

// BoxIntervals defines the expanding review schedule in days, indexed by
// box level - 1. Box 1 = daily review.
var BoxIntervals = []int{1, 3, 7, 14, 30, 60}

// MinBoxLevel is the floor for every box-level mutation.
const MinBoxLevel = 1

// GraduatedBoxLevel is the level past the ladder top; problems there
// review on the graduated interval.
const GraduatedBoxLevel = 7

// GraduatedIntervalDays is the review interval for graduated problems.
const GraduatedIntervalDays = 90

// IntervalDays returns the review interval for a box level. Levels below
// the floor are treated as the floor; levels past the ladder graduate.
func IntervalDays(boxLevel int) int {
	if boxLevel < MinBoxLevel {
		boxLevel = MinBoxLevel
	}
	if boxLevel > len(BoxIntervals) {
		return GraduatedIntervalDays
	}
	return BoxIntervals[boxLevel-1]
}

// AdvanceBox moves a box level one step up after a successful attempt,
// capped at the graduated level.
func AdvanceBox(boxLevel int) int {
	if boxLevel < MinBoxLevel {
		boxLevel = MinBoxLevel
	}
	if boxLevel >= GraduatedBoxLevel {
		return GraduatedBoxLevel
	}
	return boxLevel + 1
}

// DemoteBox moves a box level one step down after a failed attempt,
// floored at the minimum.
func DemoteBox(boxLevel int) int {
	if boxLevel <= MinBoxLevel {
		return MinBoxLevel
	}
	return boxLevel - 1
}
