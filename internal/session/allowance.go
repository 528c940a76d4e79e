package session

import (
	"math"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// DifficultyAllowance caps how many problems of each difficulty a focus
// tag may contribute to a selection batch.
type DifficultyAllowance struct {
	Easy   int
	Medium int
	Hard   int
}

// ForDifficulty returns the allowance for one difficulty level. Unknown
// levels read as Medium.
func (a DifficultyAllowance) ForDifficulty(difficulty string) int {
	switch difficulty {
	case store.DifficultyEasy:
		return a.Easy
	case store.DifficultyHard:
		return a.Hard
	default:
		return a.Medium
	}
}

// Total returns the summed allowance.
func (a DifficultyAllowance) Total() int { return a.Easy + a.Medium + a.Hard }

// TagAllowanceSnapshot is the mastery view the allowance calculator
// works from.
type TagAllowanceSnapshot struct {
	Tag      string
	Strength int // 0-100
	Mastered bool

	// Batch is the requested selection size the counts scale with.
	Batch int

	// Distribution comes from the seeded tag relationship; nil when the
	// tag has none.
	Distribution *store.DifficultyDistribution
}

// AllowanceFunc computes a difficulty allowance from a tag snapshot. It
// is a replaceable collaborator; DefaultAllowance is the standard
// implementation.
type AllowanceFunc func(snap TagAllowanceSnapshot) DifficultyAllowance

// DefaultAllowance leans weak tags toward Easy, middling tags toward
// Medium, and unlocks Hard once a tag is strong or mastered. A seeded
// difficulty distribution is averaged into the strength bands.
func DefaultAllowance(snap TagAllowanceSnapshot) DifficultyAllowance {
	batch := snap.Batch
	if batch <= 0 {
		batch = DefaultConfig().Size
	}

	var easy, medium, hard float64
	switch {
	case snap.Mastered || snap.Strength >= 70:
		easy, medium, hard = 0.2, 0.4, 0.4
	case snap.Strength < 40:
		easy, medium, hard = 0.6, 0.4, 0
	default:
		easy, medium, hard = 0.3, 0.5, 0.2
	}

	if d := snap.Distribution; d != nil && d.Easy+d.Medium+d.Hard > 0 {
		easy = (easy + d.Easy) / 2
		medium = (medium + d.Medium) / 2
		hard = (hard + d.Hard) / 2
	}

	alloc := func(share float64) int {
		return int(math.Round(share * float64(batch)))
	}
	a := DifficultyAllowance{Easy: alloc(easy), Medium: alloc(medium), Hard: alloc(hard)}
	if a.Total() == 0 {
		a.Easy = 1
	}
	return a
}

// allowanceWeight normalizes one difficulty's share of the allowance.
func allowanceWeight(a DifficultyAllowance, difficulty string) float64 {
	total := a.Total()
	if total == 0 {
		return 0
	}
	return float64(a.ForDifficulty(difficulty)) / float64(total)
}
