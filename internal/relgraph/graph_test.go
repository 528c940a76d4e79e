package relgraph

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
	"github.com/smithrashell/CodeMaster-sub000/internal/store/storetest"
)

func testGraph(t *testing.T) (*Graph, *store.Store) {
	t.Helper()
	s := storetest.Open(t)
	return New(s, logger.Nop()), s
}

func TestUpdateStrengthClamps(t *testing.T) {
	g, _ := testGraph(t)
	ctx := context.Background()

	if err := g.UpdateStrength(ctx, "a", "b", -5); err != nil {
		t.Fatalf("update: %v", err)
	}
	strengths, err := g.StrengthsForProblem(ctx, "a")
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if strengths["b"] != MinStrength {
		t.Errorf("strength = %v, want clamp floor %v", strengths["b"], MinStrength)
	}

	if err := g.UpdateStrength(ctx, "a", "b", 99); err != nil {
		t.Fatalf("update: %v", err)
	}
	strengths, err = g.StrengthsForProblem(ctx, "a")
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if strengths["b"] != MaxStrength {
		t.Errorf("strength = %v, want clamp ceiling %v", strengths["b"], MaxStrength)
	}
}

func TestUpdateStrengthIgnoresInvalidInput(t *testing.T) {
	g, s := testGraph(t)
	ctx := context.Background()

	if err := g.UpdateStrength(ctx, "", "b", 5); err != nil {
		t.Errorf("empty id should no-op, got %v", err)
	}
	if err := g.UpdateStrength(ctx, "a", "b", math.NaN()); err != nil {
		t.Errorf("NaN strength should no-op, got %v", err)
	}
	if err := g.UpdateStrength(ctx, "a", "b", math.Inf(1)); err != nil {
		t.Errorf("Inf strength should no-op, got %v", err)
	}

	all, err := s.ProblemRelationships().GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("invalid input created %d edges", len(all))
	}
}

func TestWeakenFloorsAtZero(t *testing.T) {
	g, _ := testGraph(t)
	ctx := context.Background()

	if err := g.AddRelationship(ctx, "a", "b", 1.5); err != nil {
		t.Fatalf("add: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := g.Weaken(ctx, "a", "b"); err != nil {
			t.Fatalf("weaken %d: %v", i, err)
		}
	}

	strengths, err := g.StrengthsForProblem(ctx, "a")
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if strengths["b"] != 0 {
		t.Errorf("strength = %v, want floor 0", strengths["b"])
	}
}

func TestWeakenMissingEdgeErrors(t *testing.T) {
	g, _ := testGraph(t)

	err := g.Weaken(context.Background(), "a", "b")
	if err == nil {
		t.Fatal("expected error for missing relationship")
	}
	if !strings.Contains(err.Error(), "no relationship") {
		t.Errorf("error = %v, want a no-relationship message", err)
	}
}

func TestWeakenTargetsOldestEdge(t *testing.T) {
	g, s := testGraph(t)
	ctx := context.Background()

	if err := g.AddRelationship(ctx, "a", "b", 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddRelationship(ctx, "a", "b", 9); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := g.Weaken(ctx, "a", "b"); err != nil {
		t.Fatalf("weaken: %v", err)
	}

	all, err := s.ProblemRelationships().GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("edges = %d, want 2", len(all))
	}
	if all[0].Strength != 4 {
		t.Errorf("oldest edge = %v, want weakened to 4", all[0].Strength)
	}
	if all[1].Strength != 9 {
		t.Errorf("newer edge = %v, want untouched 9", all[1].Strength)
	}
}

func TestStrengthsFoldFirstDirectionWins(t *testing.T) {
	g, _ := testGraph(t)
	ctx := context.Background()

	// Reverse edge first, then the outgoing one: outgoing must win.
	if err := g.AddRelationship(ctx, "b", "a", 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddRelationship(ctx, "a", "b", 7); err != nil {
		t.Fatalf("add: %v", err)
	}
	// A later reverse edge must not overwrite it.
	if err := g.AddRelationship(ctx, "b", "a", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	strengths, err := g.StrengthsForProblem(ctx, "a")
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if strengths["b"] != 7 {
		t.Errorf("folded strength = %v, want outgoing 7", strengths["b"])
	}

	// From b's side its own outgoing edge (the oldest) wins instead.
	strengths, err = g.StrengthsForProblem(ctx, "b")
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if strengths["a"] != 3 {
		t.Errorf("folded strength = %v, want oldest outgoing 3", strengths["a"])
	}
}

func TestStrengthsUnionBothEndpoints(t *testing.T) {
	g, _ := testGraph(t)
	ctx := context.Background()

	if err := g.AddRelationship(ctx, "a", "b", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddRelationship(ctx, "c", "a", 4); err != nil {
		t.Fatalf("add: %v", err)
	}

	strengths, err := g.StrengthsForProblem(ctx, "a")
	if err != nil {
		t.Fatalf("strengths: %v", err)
	}
	if len(strengths) != 2 || strengths["b"] != 2 || strengths["c"] != 4 {
		t.Errorf("strengths = %v, want b:2 c:4", strengths)
	}
}
