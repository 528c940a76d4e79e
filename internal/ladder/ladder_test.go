package ladder

import (
	"context"
	"fmt"
	"testing"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
	"github.com/smithrashell/CodeMaster-sub000/internal/store/storetest"
)

func TestCoverage(t *testing.T) {
	if got := Coverage(nil); got != 0 {
		t.Errorf("coverage(nil) = %v, want 0", got)
	}

	empty := &store.PatternLadder{Tag: "array"}
	if got := Coverage(empty); got != 0 {
		t.Errorf("coverage(empty) = %v, want 0", got)
	}

	l := &store.PatternLadder{Tag: "array"}
	l.SetProblemList([]store.LadderProblem{
		{ID: "a", Attempted: true},
		{ID: "b", Attempted: true},
		{ID: "c", Attempted: false},
		{ID: "d", Attempted: false},
	})
	if got := Coverage(l); got != 0.5 {
		t.Errorf("coverage = %v, want 0.5", got)
	}
}

func seedPool(t *testing.T, s *store.Store, tag string, counts map[string]int, attempted int) {
	t.Helper()
	ctx := context.Background()
	i := 0
	for _, difficulty := range []string{store.DifficultyEasy, store.DifficultyMedium, store.DifficultyHard} {
		for n := 0; n < counts[difficulty]; n++ {
			p := &store.Problem{
				ProblemID:  fmt.Sprintf("%s-%d", tag, i),
				Difficulty: difficulty,
				BoxLevel:   1,
			}
			p.SetTagList([]string{tag})
			if attempted > 0 {
				p.TotalAttempts = 1
				attempted--
			}
			if err := s.Problems().Put(ctx, p); err != nil {
				t.Fatalf("seed problem: %v", err)
			}
			i++
		}
	}
}

func TestRegenerateBuildsLadderFromPool(t *testing.T) {
	s := storetest.Open(t)
	svc := NewService(s, logger.Nop(), DefaultConfig())
	ctx := context.Background()

	seedPool(t, s, "array", map[string]int{
		store.DifficultyEasy:   6,
		store.DifficultyMedium: 6,
		store.DifficultyHard:   4,
	}, 0)

	if err := svc.Regenerate(ctx, "array"); err != nil {
		t.Fatalf("regenerate: %v", err)
	}

	l, err := svc.Get(ctx, "array")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	rungs := l.ProblemList()
	if len(rungs) != DefaultConfig().Size {
		t.Fatalf("rungs = %d, want %d", len(rungs), DefaultConfig().Size)
	}

	// Default mix 0.4/0.4/0.2 over 12 rungs: 4 easy, 4 medium, 2 hard,
	// plus 2 backfilled from whatever remains.
	byDifficulty := map[string]int{}
	for _, r := range rungs {
		byDifficulty[r.Difficulty]++
	}
	if byDifficulty[store.DifficultyEasy] < 4 {
		t.Errorf("easy rungs = %d, want at least 4", byDifficulty[store.DifficultyEasy])
	}
	if byDifficulty[store.DifficultyMedium] < 4 {
		t.Errorf("medium rungs = %d, want at least 4", byDifficulty[store.DifficultyMedium])
	}
	if byDifficulty[store.DifficultyHard] < 2 {
		t.Errorf("hard rungs = %d, want at least 2", byDifficulty[store.DifficultyHard])
	}
}

func TestRegeneratePrefersFreshProblems(t *testing.T) {
	s := storetest.Open(t)
	cfg := Config{Size: 4, Distribution: store.DifficultyDistribution{Easy: 1}}
	svc := NewService(s, logger.Nop(), cfg)
	ctx := context.Background()

	// 8 easy problems, 5 already attempted: the 3 fresh ones must all be
	// taken, attempted ones only as backfill.
	seedPool(t, s, "dp", map[string]int{store.DifficultyEasy: 8}, 5)

	if err := svc.Regenerate(ctx, "dp"); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	l, err := svc.Get(ctx, "dp")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	fresh := 0
	for _, r := range l.ProblemList() {
		if !r.Attempted {
			fresh++
		}
	}
	if fresh != 3 {
		t.Errorf("fresh rungs = %d, want all 3 available", fresh)
	}
	if len(l.ProblemList()) != 4 {
		t.Errorf("rungs = %d, want 4", len(l.ProblemList()))
	}
}

func TestRegenerateWithEmptyPoolFails(t *testing.T) {
	s := storetest.Open(t)
	svc := NewService(s, logger.Nop(), DefaultConfig())

	if err := svc.Regenerate(context.Background(), "graphs"); err == nil {
		t.Fatal("expected error for tag with no catalog problems")
	}
}

func TestMarkAttempted(t *testing.T) {
	s := storetest.Open(t)
	svc := NewService(s, logger.Nop(), DefaultConfig())
	ctx := context.Background()

	l := &store.PatternLadder{Tag: "array"}
	l.SetProblemList([]store.LadderProblem{
		{ID: "a"},
		{ID: "b"},
	})
	if err := s.Ladders().Put(ctx, l); err != nil {
		t.Fatalf("put ladder: %v", err)
	}

	// Unknown tag is skipped quietly.
	svc.MarkAttempted(ctx, []string{"array", "missing"}, "a")

	got, err := svc.Get(ctx, "array")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	rungs := got.ProblemList()
	if !rungs[0].Attempted {
		t.Error("rung 'a' not marked attempted")
	}
	if rungs[1].Attempted {
		t.Error("rung 'b' should be untouched")
	}

	c, err := svc.CoverageForTag(ctx, "array")
	if err != nil {
		t.Fatalf("coverage: %v", err)
	}
	if c != 0.5 {
		t.Errorf("coverage = %v, want 0.5", c)
	}
}

func TestCoverageForMissingTagIsZero(t *testing.T) {
	s := storetest.Open(t)
	svc := NewService(s, logger.Nop(), DefaultConfig())

	c, err := svc.CoverageForTag(context.Background(), "nope")
	if err != nil {
		t.Fatalf("coverage: %v", err)
	}
	if c != 0 {
		t.Errorf("coverage = %v, want 0", c)
	}
}
