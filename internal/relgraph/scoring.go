package relgraph

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// directMatchWeight is the contribution of a tag present on both sides.
const directMatchWeight = 2.0

// Similarity scores how related two tag sets are, for focus-area
// expansion and graph building.
//
// Direct matches contribute 2 each. Indirect tag-graph associations
// contribute log10(assoc+1)*0.5, log-damped so large co-occurrence counts
// don't dominate. Any unmastered tag on either side adds its decay score
// * 0.5, steering work toward weak areas. The total is scaled by the
// difficulty gap: same level x1.2, one level x1.0, two levels x0.7.
func Similarity(tags1, tags2 []string, tg TagGraph, masteryByTag map[string]*store.TagMastery, difficulty1, difficulty2 string) float64 {
	set2 := toSet(tags2)

	score := 0.0
	for _, t1 := range tags1 {
		if set2[t1] {
			score += directMatchWeight
			continue
		}
		for _, t2 := range tags2 {
			if assoc := tg.Association(t1, t2); assoc > 0 {
				score += math.Log10(assoc+1) * 0.5
			}
		}
	}

	for _, tag := range union(tags1, tags2) {
		if m, ok := masteryByTag[tag]; ok && !m.Mastered {
			score += m.DecayScore * 0.5
		}
	}

	return score * difficultyMultiplier(difficulty1, difficulty2)
}

func difficultyMultiplier(d1, d2 string) float64 {
	gap := difficultyRank(d1) - difficultyRank(d2)
	if gap < 0 {
		gap = -gap
	}
	switch gap {
	case 0:
		return 1.2
	case 1:
		return 1.0
	default:
		return 0.7
	}
}

func difficultyRank(d string) int {
	switch d {
	case store.DifficultyEasy:
		return 1
	case store.DifficultyMedium:
		return 2
	case store.DifficultyHard:
		return 3
	default:
		return 2
	}
}

// RelationshipScore is a candidate's connection to recent work.
type RelationshipScore struct {
	Score float64 // mean strength across linked recent attempts
	Count int     // how many recent attempts it links to
}

// ScoreProblemsWithRelationships measures each candidate's bidirectional
// connection to the recently attempted problems.
func (g *Graph) ScoreProblemsWithRelationships(ctx context.Context, candidateIDs, recentIDs []string) (map[string]RelationshipScore, error) {
	recent := toSet(recentIDs)
	out := make(map[string]RelationshipScore, len(candidateIDs))

	for _, id := range candidateIDs {
		strengths, err := g.StrengthsForProblem(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("score candidates: %w", err)
		}
		total := 0.0
		count := 0
		for other, strength := range strengths {
			if recent[other] {
				total += strength
				count++
			}
		}
		score := RelationshipScore{Count: count}
		if count > 0 {
			score.Score = total / float64(count)
		}
		out[id] = score
	}
	return out, nil
}

// SequenceScore rates how well a problem's outgoing links lead into the
// learner's open work. Each linked problem contributes
// strength * (tagBonus - 0.5*tagPenalty), where tagBonus counts its tags
// in unmasteredTags or tierTags and tagPenalty counts those in neither.
// The score is the mean over links whose problems exist; links to missing
// problems are skipped, and zero found links yields 0.
func (g *Graph) SequenceScore(ctx context.Context, problemID string, unmasteredTags, tierTags map[string]bool) (float64, error) {
	edges, err := g.store.ProblemRelationships().From(ctx, problemID)
	if err != nil {
		return 0, fmt.Errorf("sequence score %s: %w", problemID, err)
	}

	total := 0.0
	found := 0
	for _, e := range edges {
		linked, err := g.store.Problems().Get(ctx, e.ProblemID2)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return 0, fmt.Errorf("sequence score %s: read %s: %w", problemID, e.ProblemID2, err)
		}

		bonus, penalty := 0, 0
		for _, tag := range linked.TagList() {
			if unmasteredTags[tag] || tierTags[tag] {
				bonus++
			} else {
				penalty++
			}
		}
		total += e.Strength * (float64(bonus) - 0.5*float64(penalty))
		found++
	}

	if found == 0 {
		return 0, nil
	}
	return total / float64(found), nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, tag := range a {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	for _, tag := range b {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
