package mastery

import (
	"math"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// Config carries the gate thresholds applied when a tag has no seeded
// relationship record of its own.
type Config struct {
	// MasteryThreshold is the minimum accuracy for the accuracy gate.
	MasteryThreshold float64
	// MinAttempts is the volume gate floor.
	MinAttempts int
	// UniquenessFactor scales MinAttempts into the distinct-problem floor.
	UniquenessFactor float64
	// CoverageThreshold is the minimum attempted fraction of the tag's
	// pattern ladder.
	CoverageThreshold float64
}

// DefaultConfig returns the stock gate thresholds.
func DefaultConfig() Config {
	return Config{
		MasteryThreshold:  0.80,
		MinAttempts:       6,
		UniquenessFactor:  0.7,
		CoverageThreshold: 0.70,
	}
}

// Thresholds resolves the effective per-tag thresholds: the seeded
// relationship record when present, the config defaults otherwise.
func (c Config) Thresholds(rel *store.TagRelationship) (threshold float64, minAttempts int) {
	threshold = c.MasteryThreshold
	minAttempts = c.MinAttempts
	if rel != nil {
		if rel.MasteryThreshold > 0 {
			threshold = rel.MasteryThreshold
		}
		if rel.MinAttemptsRequired > 0 {
			minAttempts = rel.MinAttemptsRequired
		}
	}
	return threshold, minAttempts
}

// GateResult is the outcome of evaluating the four mastery gates.
type GateResult struct {
	Volume     bool
	Uniqueness bool
	Accuracy   bool
	Coverage   bool
}

// All reports whether every gate holds. Mastery is a strict conjunction.
func (g GateResult) All() bool {
	return g.Volume && g.Uniqueness && g.Accuracy && g.Coverage
}

// EvaluateGates checks the four mastery gates for a tag record.
// ladderCoverage must be precomputed by the caller; a missing or empty
// ladder is coverage 0.
func EvaluateGates(m *store.TagMastery, rel *store.TagRelationship, ladderCoverage float64, cfg Config) GateResult {
	threshold, minAttempts := cfg.Thresholds(rel)

	distinct := len(m.AttemptedIDs())
	needDistinct := int(math.Ceil(float64(minAttempts) * cfg.UniquenessFactor))

	return GateResult{
		Volume:     m.TotalAttempts >= minAttempts,
		Uniqueness: distinct >= needDistinct,
		Accuracy:   Accuracy(m) >= threshold,
		Coverage:   ladderCoverage >= cfg.CoverageThreshold,
	}
}

// Accuracy returns the tag's success rate, 0 when nothing was attempted.
func Accuracy(m *store.TagMastery) float64 {
	if m.TotalAttempts == 0 {
		return 0
	}
	return float64(m.SuccessfulAttempts) / float64(m.TotalAttempts)
}

// StrengthFor converts a success rate into the 0-100 strength score.
func StrengthFor(m *store.TagMastery) int {
	return int(math.Round(Accuracy(m) * 100))
}

// StateOf classifies a record for transition reporting.
func StateOf(m *store.TagMastery) State {
	if m == nil {
		return StateNew
	}
	if m.Mastered {
		return StateMastered
	}
	return StateLearning
}
