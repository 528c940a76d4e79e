package mastery

import (
	"testing"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// gateRecord builds a record that passes every gate under the default
// config, so tests can break one gate at a time.
func gateRecord() *store.TagMastery {
	m := &store.TagMastery{
		Tag:                "array",
		TotalAttempts:      6,
		SuccessfulAttempts: 5, // 0.833 accuracy
	}
	m.SetAttemptedIDs([]string{"a", "b", "c", "d", "e"})
	return m
}

func TestGatesAllPass(t *testing.T) {
	g := EvaluateGates(gateRecord(), nil, 0.75, DefaultConfig())
	if !g.All() {
		t.Fatalf("expected all gates to pass, got %+v", g)
	}
}

func TestGatesAreAStrictConjunction(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		mutate   func(m *store.TagMastery) float64 // returns coverage
		breaking string
	}{
		{
			name: "volume",
			mutate: func(m *store.TagMastery) float64 {
				m.TotalAttempts = 5
				m.SuccessfulAttempts = 5
				return 0.75
			},
		},
		{
			name: "uniqueness",
			mutate: func(m *store.TagMastery) float64 {
				m.SetAttemptedIDs([]string{"a", "b", "c"}) // need ceil(6*0.7)=5
				return 0.75
			},
		},
		{
			name: "accuracy",
			mutate: func(m *store.TagMastery) float64 {
				m.SuccessfulAttempts = 4 // 0.667 < 0.80
				return 0.75
			},
		},
		{
			name: "coverage",
			mutate: func(m *store.TagMastery) float64 {
				return 0.5
			},
		},
	}

	for _, tt := range tests {
		m := gateRecord()
		coverage := tt.mutate(m)
		g := EvaluateGates(m, nil, coverage, cfg)
		if g.All() {
			t.Errorf("%s: breaking one gate should fail the conjunction, got %+v", tt.name, g)
		}
	}
}

func TestGatesUseRelationshipThresholds(t *testing.T) {
	cfg := DefaultConfig()

	// 4 attempts at 0.5 accuracy fails the defaults but passes a seeded
	// relaxed relationship.
	m := &store.TagMastery{Tag: "dp", TotalAttempts: 4, SuccessfulAttempts: 2}
	m.SetAttemptedIDs([]string{"a", "b", "c"})

	if g := EvaluateGates(m, nil, 1, cfg); g.All() {
		t.Fatal("defaults should reject 4 attempts at 0.5 accuracy")
	}

	rel := &store.TagRelationship{Tag: "dp", MasteryThreshold: 0.5, MinAttemptsRequired: 4}
	if g := EvaluateGates(m, rel, 1, cfg); !g.All() {
		t.Fatalf("relaxed relationship thresholds should pass, got %+v", g)
	}
}

func TestEmptyLadderCoverageFailsGate(t *testing.T) {
	g := EvaluateGates(gateRecord(), nil, 0, DefaultConfig())
	if g.Coverage {
		t.Error("coverage 0 must fail the ladder gate")
	}
	if g.All() {
		t.Error("missing ladder must hold mastery shut")
	}
}

func TestAccuracyAndStrength(t *testing.T) {
	m := &store.TagMastery{TotalAttempts: 0}
	if got := Accuracy(m); got != 0 {
		t.Errorf("accuracy with no attempts = %v, want 0", got)
	}

	m = &store.TagMastery{TotalAttempts: 3, SuccessfulAttempts: 2}
	if got := StrengthFor(m); got != 67 {
		t.Errorf("strength = %d, want 67", got)
	}
}
