package relgraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

func seedCatalog(t *testing.T, s *store.Store, n int, tag string) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		p := &store.Problem{
			ProblemID:  fmt.Sprintf("%s-%02d", tag, i),
			Difficulty: store.DifficultyEasy,
		}
		p.SetTagList([]string{tag})
		if err := s.Problems().Put(ctx, p); err != nil {
			t.Fatalf("seed problem: %v", err)
		}
	}
}

func TestRebuildCapsOutgoingEdges(t *testing.T) {
	g, s := testGraph(t)
	ctx := context.Background()

	// 6 problems sharing one tag: each node sees 5 candidates, cap at 3.
	seedCatalog(t, s, 6, "array")
	cfg := DefaultBuilderConfig()
	cfg.MaxEdgesPerNode = 3
	b := NewBuilder(g, cfg)

	if err := b.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	edges, err := s.ProblemRelationships().From(ctx, "array-00")
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	if len(edges) != 3 {
		t.Errorf("outgoing edges = %d, want capped 3", len(edges))
	}

	// The trimmed 2 candidates are parked, not lost.
	if got := len(b.RemovedFor("array-00")); got != 2 {
		t.Errorf("removed edges = %d, want 2", got)
	}
}

func TestEnsureDensityRestoresRemovedFirst(t *testing.T) {
	g, s := testGraph(t)
	ctx := context.Background()

	seedCatalog(t, s, 6, "array")
	cfg := DefaultBuilderConfig()
	cfg.MaxEdgesPerNode = 3
	b := NewBuilder(g, cfg)
	if err := b.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if got := len(b.RemovedFor("array-00")); got != 2 {
		t.Fatalf("removed edges after rebuild = %d, want 2", got)
	}

	// Later pruning leaves the node one neighbor below the threshold.
	only := &store.ProblemRelationship{ProblemID1: "array-00", ProblemID2: "array-01", Strength: 2}
	if err := s.ProblemRelationships().Replace(ctx, []*store.ProblemRelationship{only}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := b.EnsureDensity(ctx, "array-00"); err != nil {
		t.Fatalf("ensure density: %v", err)
	}

	strengths, err := g.StrengthsForProblem(ctx, "array-00")
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if len(strengths) != 2 {
		t.Errorf("neighbors = %d, want 2 after restore", len(strengths))
	}
	if got := len(b.RemovedFor("array-00")); got != 1 {
		t.Errorf("removed edges left = %d, want 1", got)
	}
	for other, strength := range strengths {
		if other == "array-01" {
			continue
		}
		if strength == cfg.FallbackStrength {
			t.Errorf("edge to %s carries fallback strength, want the trimmed similarity back", other)
		}
	}
}

func TestEnsureDensityFallsBackToSharedTag(t *testing.T) {
	g, s := testGraph(t)
	ctx := context.Background()

	seedCatalog(t, s, 4, "dp")
	cfg := DefaultBuilderConfig()
	cfg.SparseThreshold = 2
	b := NewBuilder(g, cfg)

	// No rebuild ran, so no removed history: the bare node must be paired
	// through its shared tag instead.
	if err := b.EnsureDensity(ctx, "dp-00"); err != nil {
		t.Fatalf("ensure density: %v", err)
	}

	strengths, err := g.StrengthsForProblem(ctx, "dp-00")
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if len(strengths) != 2 {
		t.Fatalf("neighbors = %d, want 2 fallback pairs", len(strengths))
	}
	for other, strength := range strengths {
		if strength != cfg.FallbackStrength {
			t.Errorf("fallback edge to %s = %v, want %v", other, strength, cfg.FallbackStrength)
		}
	}
}

func TestEnsureDensityLeavesDenseNodesAlone(t *testing.T) {
	g, s := testGraph(t)
	ctx := context.Background()

	if err := g.AddRelationship(ctx, "a", "b", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddRelationship(ctx, "a", "c", 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	b := NewBuilder(g, DefaultBuilderConfig())
	if err := b.EnsureDensity(ctx, "a"); err != nil {
		t.Fatalf("ensure density: %v", err)
	}

	all, err := s.ProblemRelationships().GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("edges = %d, want untouched 2", len(all))
	}
}
