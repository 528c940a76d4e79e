// Package relgraph maintains the weighted links between problems and the
// derived association graph between tags. The edge store is an append
// log: duplicate edges in both directions are legal, and reads fold them
// with a first-direction-wins rule.
package relgraph

import (
	"context"
	"fmt"
	"math"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// Strength bounds applied on upsert.
const (
	MinStrength = 0.1
	MaxStrength = 10.0
)

// Graph is the relationship service.
type Graph struct {
	store *store.Store
	log   *logger.Logger
}

// New returns a Graph over the given store.
func New(s *store.Store, log *logger.Logger) *Graph {
	if log == nil {
		log = logger.Nop()
	}
	return &Graph{store: s, log: log.With("component", "relgraph")}
}

// AddRelationship appends a new directed edge. Duplicates are permitted;
// the store is a log, not a set keyed by pair.
func (g *Graph) AddRelationship(ctx context.Context, id1, id2 string, strength float64) error {
	if id1 == "" || id2 == "" {
		return nil
	}
	e := &store.ProblemRelationship{ProblemID1: id1, ProblemID2: id2, Strength: strength}
	return g.store.ProblemRelationships().Append(ctx, e)
}

// Weaken decrements the oldest id1->id2 edge by 1, floored at 0. A
// missing edge is a contract violation and errors.
func (g *Graph) Weaken(ctx context.Context, id1, id2 string) error {
	e, err := g.store.ProblemRelationships().FirstMatch(ctx, id1, id2)
	if err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("weaken: no relationship between %q and %q", id1, id2)
		}
		return fmt.Errorf("weaken %s->%s: %w", id1, id2, err)
	}
	e.Strength -= 1
	if e.Strength < 0 {
		e.Strength = 0
	}
	return g.store.ProblemRelationships().Update(ctx, e)
}

// UpdateStrength upserts the oldest id1->id2 edge to the clamped
// strength, creating the edge when absent. Invalid identifiers or a
// non-finite strength are a silent no-op; callers probe defensively.
func (g *Graph) UpdateStrength(ctx context.Context, id1, id2 string, strength float64) error {
	if id1 == "" || id2 == "" {
		return nil
	}
	if math.IsNaN(strength) || math.IsInf(strength, 0) {
		return nil
	}
	clamped := clampStrength(strength)

	e, err := g.store.ProblemRelationships().FirstMatch(ctx, id1, id2)
	if err != nil {
		if err == store.ErrNotFound {
			return g.store.ProblemRelationships().Append(ctx, &store.ProblemRelationship{
				ProblemID1: id1,
				ProblemID2: id2,
				Strength:   clamped,
			})
		}
		return fmt.Errorf("update strength %s->%s: %w", id1, id2, err)
	}
	e.Strength = clamped
	return g.store.ProblemRelationships().Update(ctx, e)
}

// StrengthsForProblem folds every edge touching the problem into one
// effective weight per neighbor. Outgoing edges win over incoming ones
// for the same pair and are never overwritten; within a direction the
// oldest edge wins.
func (g *Graph) StrengthsForProblem(ctx context.Context, id string) (map[string]float64, error) {
	edges, err := g.store.ProblemRelationships().ForProblem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("strengths for %s: %w", id, err)
	}

	type entry struct {
		strength float64
		outgoing bool
	}
	folded := make(map[string]entry)
	for _, e := range edges {
		var other string
		outgoing := false
		switch {
		case e.ProblemID1 == id:
			other = e.ProblemID2
			outgoing = true
		case e.ProblemID2 == id:
			other = e.ProblemID1
		default:
			continue
		}
		cur, ok := folded[other]
		if !ok {
			folded[other] = entry{strength: e.Strength, outgoing: outgoing}
			continue
		}
		if outgoing && !cur.outgoing {
			folded[other] = entry{strength: e.Strength, outgoing: true}
		}
	}

	out := make(map[string]float64, len(folded))
	for other, e := range folded {
		out[other] = e.strength
	}
	return out, nil
}

func clampStrength(s float64) float64 {
	if s < MinStrength {
		return MinStrength
	}
	if s > MaxStrength {
		return MaxStrength
	}
	return s
}
