package relgraph

import (
	"context"
	"fmt"
	"sort"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// BuilderConfig tunes the bulk graph rebuild.
type BuilderConfig struct {
	// MaxEdgesPerNode caps each problem's outgoing edges; the overflow is
	// parked in the removed-relationships map, not discarded.
	MaxEdgesPerNode int

	// SimilarityFloor is the minimum similarity for a pair to become an
	// edge at all.
	SimilarityFloor float64

	// SparseThreshold is the neighbor count below which a node is
	// considered too sparse and gets edges restored.
	SparseThreshold int

	// FallbackStrength is the edge strength for same-tag pairing, used
	// only when a sparse node has no removed edges to restore. The
	// pairing is a heuristic; treat this as a tunable.
	FallbackStrength float64
}

// DefaultBuilderConfig returns the standard rebuild settings.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		MaxEdgesPerNode:  8,
		SimilarityFloor:  0.5,
		SparseThreshold:  2,
		FallbackStrength: 1.0,
	}
}

// Builder rebuilds the relationship graph from the catalog and restores
// density where trimming left nodes too bare.
type Builder struct {
	graph   *Graph
	cfg     BuilderConfig
	removed map[string][]store.ProblemRelationship
}

// NewBuilder returns a Builder over the graph.
func NewBuilder(g *Graph, cfg BuilderConfig) *Builder {
	return &Builder{
		graph:   g,
		cfg:     cfg,
		removed: map[string][]store.ProblemRelationship{},
	}
}

// Rebuild recomputes every problem's outgoing edges from pairwise tag
// similarity and swaps the edge set in one transaction. Edges trimmed by
// the per-node cap are retained in the removed map for later restoration.
func (b *Builder) Rebuild(ctx context.Context) error {
	problems, err := b.graph.store.Problems().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("rebuild graph: read problems: %w", err)
	}
	masteries, err := b.graph.store.TagMastery().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("rebuild graph: read tag mastery: %w", err)
	}
	masteryByTag := make(map[string]*store.TagMastery, len(masteries))
	for _, m := range masteries {
		masteryByTag[m.Tag] = m
	}

	tagSets := make([][]string, 0, len(problems))
	for _, p := range problems {
		tagSets = append(tagSets, p.TagList())
	}
	tg := BuildTagGraph(tagSets)

	b.removed = map[string][]store.ProblemRelationship{}
	var kept []*store.ProblemRelationship

	for i, p := range problems {
		candidates := make([]store.ProblemRelationship, 0, len(problems)-1)
		for j, q := range problems {
			if i == j {
				continue
			}
			sim := Similarity(tagSets[i], tagSets[j], tg, masteryByTag, p.Difficulty, q.Difficulty)
			if sim < b.cfg.SimilarityFloor {
				continue
			}
			candidates = append(candidates, store.ProblemRelationship{
				ProblemID1: p.ProblemID,
				ProblemID2: q.ProblemID,
				Strength:   clampStrength(sim),
			})
		}

		sort.SliceStable(candidates, func(x, y int) bool {
			if candidates[x].Strength != candidates[y].Strength {
				return candidates[x].Strength > candidates[y].Strength
			}
			return candidates[x].ProblemID2 < candidates[y].ProblemID2
		})

		limit := b.cfg.MaxEdgesPerNode
		if limit <= 0 || limit > len(candidates) {
			limit = len(candidates)
		}
		for _, c := range candidates[:limit] {
			edge := c
			kept = append(kept, &edge)
		}
		if len(candidates) > limit {
			b.removed[p.ProblemID] = append(b.removed[p.ProblemID], candidates[limit:]...)
		}
	}

	if err := b.graph.store.ProblemRelationships().Replace(ctx, kept); err != nil {
		return fmt.Errorf("rebuild graph: %w", err)
	}
	b.graph.log.Info("relationship graph rebuilt", "problems", len(problems), "edges", len(kept))
	return nil
}

// RemovedFor returns the edges trimmed from a node in the last rebuild.
func (b *Builder) RemovedFor(problemID string) []store.ProblemRelationship {
	return b.removed[problemID]
}

// EnsureDensity restores edges for a node whose folded neighbor count
// fell below the sparse threshold. Removed edges are put back first; the
// same-tag fallback pairing fires only when none exist.
func (b *Builder) EnsureDensity(ctx context.Context, problemID string) error {
	strengths, err := b.graph.StrengthsForProblem(ctx, problemID)
	if err != nil {
		return fmt.Errorf("ensure density %s: %w", problemID, err)
	}
	if len(strengths) >= b.cfg.SparseThreshold {
		return nil
	}
	need := b.cfg.SparseThreshold - len(strengths)

	if removed := b.removed[problemID]; len(removed) > 0 {
		n := need
		if n > len(removed) {
			n = len(removed)
		}
		for _, e := range removed[:n] {
			edge := e
			if err := b.graph.store.ProblemRelationships().Append(ctx, &edge); err != nil {
				return fmt.Errorf("ensure density %s: restore edge: %w", problemID, err)
			}
		}
		b.removed[problemID] = removed[n:]
		b.graph.log.Debug("restored trimmed edges", "problem", problemID, "count", n)
		return nil
	}

	return b.pairBySharedTag(ctx, problemID, need, strengths)
}

// pairBySharedTag links a bare node to catalog problems sharing a tag.
func (b *Builder) pairBySharedTag(ctx context.Context, problemID string, need int, existing map[string]float64) error {
	p, err := b.graph.store.Problems().Get(ctx, problemID)
	if err != nil {
		return fmt.Errorf("ensure density %s: %w", problemID, err)
	}

	added := 0
	for _, tag := range p.TagList() {
		if added >= need {
			break
		}
		peers, err := b.graph.store.Problems().ByTag(ctx, tag)
		if err != nil {
			return fmt.Errorf("ensure density %s: peers for %s: %w", problemID, tag, err)
		}
		for _, q := range peers {
			if added >= need {
				break
			}
			if q.ProblemID == problemID {
				continue
			}
			if _, ok := existing[q.ProblemID]; ok {
				continue
			}
			err := b.graph.store.ProblemRelationships().Append(ctx, &store.ProblemRelationship{
				ProblemID1: problemID,
				ProblemID2: q.ProblemID,
				Strength:   b.cfg.FallbackStrength,
			})
			if err != nil {
				return fmt.Errorf("ensure density %s: pair with %s: %w", problemID, q.ProblemID, err)
			}
			existing[q.ProblemID] = b.cfg.FallbackStrength
			added++
		}
	}
	if added > 0 {
		b.graph.log.Debug("same-tag fallback pairing", "problem", problemID, "added", added)
	}
	return nil
}
