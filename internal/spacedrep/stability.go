package spacedrep

import (
	"math"
	"time"
)

// MinStability is the floor applied by time decay. Attempt outcomes may
// drive stability below it; only decay flooring uses it.
const MinStability = 0.5

// decayGraceDays is how long a problem can sit untouched before the
// forgetting curve starts applying on the next attempt.
const decayGraceDays = 30

// decayHalfLifeDays shapes the exponential forgetting curve.
const decayHalfLifeDays = 90

// UpdateStability recomputes a problem's retention stability after an
// attempt.
//
//	correct:   raw = stability*1.2 + 0.5
//	incorrect: raw = stability*0.7
//
// When the previous attempt is more than 30 days old the result is
// additionally scaled by exp(-gapDays/90). A nil lastAttempt means no
// extra decay. The result is rounded to 2 decimal places.
func UpdateStability(stability float64, wasCorrect bool, lastAttempt *time.Time, now time.Time) float64 {
	var raw float64
	if wasCorrect {
		raw = stability*1.2 + 0.5
	} else {
		raw = stability * 0.7
	}

	if lastAttempt != nil {
		gapDays := now.Sub(*lastAttempt).Hours() / 24.0
		if gapDays > decayGraceDays {
			raw *= math.Exp(-gapDays / decayHalfLifeDays)
		}
	}

	return round2(raw)
}

// DecayStability applies the pure time-decay factor used by the cold-start
// sweep: stability * exp(-gapDays/90), floored at MinStability and rounded
// to 2 decimal places.
func DecayStability(stability float64, gapDays float64) float64 {
	decayed := stability * math.Exp(-gapDays/decayHalfLifeDays)
	if decayed < MinStability {
		decayed = MinStability
	}
	return round2(decayed)
}

// DecayBoxLevel reduces a box level by one step per 60 untouched days,
// floored at the minimum level.
func DecayBoxLevel(boxLevel int, gapDays float64) int {
	reduction := int(math.Floor(gapDays / 60.0))
	if reduction <= 0 {
		return boxLevel
	}
	decayed := boxLevel - reduction
	if decayed < MinBoxLevel {
		return MinBoxLevel
	}
	return decayed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
