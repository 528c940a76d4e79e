package session

import (
	"time"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// Promotion types recorded on the difficulty state.
const (
	PromotionStandard   = "standard_volume_gate"
	PromotionStagnation = "stagnation_escape_hatch"
)

const (
	standardGateProblems = 4
	standardGateAccuracy = 0.80
	stagnationProblems   = 8
)

// Promotion records one difficulty-cap advance.
type Promotion struct {
	From string
	To   string
	Type string
}

// EvaluatePromotion applies the once-per-session-completion transition
// rule, mutating the state in place. It returns the promotion when one
// fired, nil otherwise. Hard is terminal: no input changes the state
// there.
//
// The standard volume gate needs at least 4 problems at the current cap
// level and session accuracy of 0.80 or better. The stagnation escape
// hatch promotes on 8 problems at the level regardless of accuracy, so
// a learner can never be pinned at one difficulty forever. The standard
// gate wins when both fire at once.
func EvaluatePromotion(d *store.DifficultyState, accuracy float64, now time.Time) *Promotion {
	if d.CurrentDifficultyCap == store.DifficultyHard {
		return nil
	}

	stats := d.TimeStats()[d.CurrentDifficultyCap]
	standard := stats.Problems >= standardGateProblems && accuracy >= standardGateAccuracy
	stagnation := stats.Problems >= stagnationProblems

	var promotionType string
	switch {
	case standard:
		promotionType = PromotionStandard
	case stagnation:
		promotionType = PromotionStagnation
	default:
		d.SessionsAtCurrentDifficulty++
		return nil
	}

	promo := &Promotion{
		From: d.CurrentDifficultyCap,
		To:   NextCap(d.CurrentDifficultyCap),
		Type: promotionType,
	}
	d.CurrentDifficultyCap = promo.To
	d.SessionsAtCurrentDifficulty = 0
	d.SetEscapeHatches(nil)
	d.CurrentPromotionType = promotionType
	at := now
	d.LastDifficultyPromotion = &at
	return promo
}

// NextCap advances one difficulty step; Hard stays Hard.
func NextCap(difficultyCap string) string {
	switch difficultyCap {
	case store.DifficultyEasy:
		return store.DifficultyMedium
	case store.DifficultyMedium:
		return store.DifficultyHard
	default:
		return difficultyCap
	}
}

// AccumulateTime folds one attempt into the per-difficulty time stats.
func AccumulateTime(d *store.DifficultyState, difficulty string, seconds int) {
	if difficulty == "" {
		difficulty = store.DifficultyMedium
	}
	stats := d.TimeStats()
	level := stats[difficulty]
	level.Problems++
	level.TotalTime += seconds
	stats[difficulty] = level
	d.SetTimeStats(stats)
}
