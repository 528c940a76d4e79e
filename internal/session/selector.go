package session

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/relgraph"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// primaryShare is the fraction of a selection drawn from the primary
// focus tag.
const primaryShare = 0.6

// starvationFactor triggers ladder regeneration when the fresh ladder
// supply drops below this fraction of the requested count.
const starvationFactor = 0.6

// recentWindow is how many recent attempts relationship scoring
// considers.
const recentWindow = 5

// LadderSource supplies per-tag ladders and regenerates depleted ones.
type LadderSource interface {
	Get(ctx context.Context, tag string) (*store.PatternLadder, error)
	Regenerate(ctx context.Context, tag string) error
}

// ScoredCandidate is one ladder problem with its selection signals
// attached.
type ScoredCandidate struct {
	Problem         store.LadderProblem
	Relationship    relgraph.RelationshipScore
	AllowanceWeight float64
	DifficultyScore int // Easy=1 Medium=2 Hard=3
}

// CompositeFunc folds a candidate's signals into one sortable score.
type CompositeFunc func(c ScoredCandidate, difficultyCap string) float64

// DefaultComposite rewards connection to recent work, allowance fit,
// and difficulty alignment with the current cap.
func DefaultComposite(c ScoredCandidate, difficultyCap string) float64 {
	capRank := 3
	switch difficultyCap {
	case store.DifficultyEasy:
		capRank = 1
	case store.DifficultyMedium:
		capRank = 2
	}
	alignment := 1.0 - 0.25*math.Abs(float64(c.DifficultyScore-capRank))
	return c.Relationship.Score + c.AllowanceWeight + alignment
}

// SelectionInput bundles the learner state one selection works from.
// Every field is read before selection begins; the selector itself only
// touches storage through the ladder source and the relationship graph.
type SelectionInput struct {
	// FocusTags is ordered by priority; the first is the primary tag.
	FocusTags []string

	// Masteries and Relationships are keyed by tag.
	Masteries     map[string]*store.TagMastery
	Relationships map[string]*store.TagRelationship

	// Pool is the candidate pool before the difficulty-cap filter.
	Pool []*store.Problem

	// DifficultyCap is the promotion state machine's current cap.
	// Unrecognized values allow all difficulties.
	DifficultyCap string

	// RecentAttempts is ordered newest first.
	RecentAttempts []*store.Attempt

	// TierTags restricts selection to problems carrying at least one of
	// these tags. Nil means no restriction.
	TierTags map[string]bool

	// Used holds problem ids already consumed this session.
	Used map[string]bool
}

// Selector picks session problems ladder-first with a pool fallback.
type Selector struct {
	ladders   LadderSource
	graph     *relgraph.Graph
	allowance AllowanceFunc
	composite CompositeFunc
	log       *logger.Logger
}

// NewSelector wires a Selector. Nil allowance or composite funcs fall
// back to the defaults.
func NewSelector(ladders LadderSource, graph *relgraph.Graph, allowance AllowanceFunc, composite CompositeFunc, log *logger.Logger) *Selector {
	if allowance == nil {
		allowance = DefaultAllowance
	}
	if composite == nil {
		composite = DefaultComposite
	}
	return &Selector{
		ladders:   ladders,
		graph:     graph,
		allowance: allowance,
		composite: composite,
		log:       log.With("component", "selector"),
	}
}

// SelectProblems returns up to count problems. The primary focus tag
// fills 60% of the batch, later focus tags cover shortfalls in priority
// order, and the pool tops up whatever the ladders could not supply.
// The result never holds duplicates and never exceeds count; it can
// fall short only when the capped pool itself is exhausted.
func (s *Selector) SelectProblems(ctx context.Context, count int, in SelectionInput) []*store.Problem {
	if count <= 0 {
		return nil
	}

	pool := filterByCap(in.Pool, in.DifficultyCap)
	poolByID := make(map[string]*store.Problem, len(pool))
	for _, p := range pool {
		poolByID[p.ProblemID] = p
	}

	used := map[string]bool{}
	for id := range in.Used {
		used[id] = true
	}

	var selected []*store.Problem
	take := func(ids []string) {
		for _, id := range ids {
			p := poolByID[id]
			if p == nil || used[id] {
				continue
			}
			selected = append(selected, p)
			used[id] = true
		}
	}

	if len(in.FocusTags) > 0 {
		primary := int(math.Ceil(float64(count) * primaryShare))
		if primary > count {
			primary = count
		}
		take(s.selectForTag(ctx, in.FocusTags[0], primary, in, poolByID, used))
	}

	// Expansion: the second focus tag covers the shortfall, then the
	// remaining focus tags in priority order.
	for i := 1; i < len(in.FocusTags) && len(selected) < count; i++ {
		take(s.selectForTag(ctx, in.FocusTags[i], count-len(selected), in, poolByID, used))
	}

	// Pool fallback preserves pool order and does no further ranking.
	for _, p := range pool {
		if len(selected) >= count {
			break
		}
		if used[p.ProblemID] {
			continue
		}
		selected = append(selected, p)
		used[p.ProblemID] = true
	}

	return selected
}

// selectForTag ranks one tag's ladder problems and returns up to n ids
// that resolve against the capped pool.
func (s *Selector) selectForTag(ctx context.Context, tag string, n int, in SelectionInput, poolByID map[string]*store.Problem, used map[string]bool) []string {
	if n <= 0 {
		return nil
	}

	l := s.loadLadder(ctx, tag)
	if fresh := freshCount(l, used); float64(fresh) < starvationFactor*float64(n) {
		if err := s.ladders.Regenerate(ctx, tag); err != nil {
			s.log.Warn("ladder regeneration failed", "tag", tag, "error", err)
		} else {
			l = s.loadLadder(ctx, tag)
		}
	}
	if l == nil {
		return nil
	}

	allowance := s.allowance(s.snapshotFor(tag, n, in))

	type ranked struct {
		ScoredCandidate
		score float64
	}
	var candidates []ranked
	var ids []string
	for _, rung := range l.ProblemList() {
		if used[rung.ID] {
			continue
		}
		if allowance.ForDifficulty(rung.Difficulty) == 0 {
			continue
		}
		if !containsTag(rung.Tags, tag) {
			continue
		}
		if in.TierTags != nil && !anyTagIn(rung.Tags, in.TierTags) {
			continue
		}
		candidates = append(candidates, ranked{ScoredCandidate: ScoredCandidate{
			Problem:         rung,
			AllowanceWeight: allowanceWeight(allowance, rung.Difficulty),
			DifficultyScore: difficultyScore(rung.Difficulty),
		}})
		ids = append(ids, rung.ID)
	}
	if len(candidates) == 0 {
		return nil
	}

	scores, err := s.graph.ScoreProblemsWithRelationships(ctx, ids, recentIDs(in.RecentAttempts))
	if err != nil {
		s.log.Warn("relationship scoring failed", "tag", tag, "error", err)
		scores = nil
	}
	for i := range candidates {
		candidates[i].Relationship = scores[candidates[i].Problem.ID]
		candidates[i].score = s.composite(candidates[i].ScoredCandidate, in.DifficultyCap)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].DifficultyScore < candidates[j].DifficultyScore
	})

	picked := make([]string, 0, n)
	for _, c := range candidates {
		if len(picked) >= n {
			break
		}
		if _, ok := poolByID[c.Problem.ID]; !ok {
			continue
		}
		picked = append(picked, c.Problem.ID)
	}
	return picked
}

func (s *Selector) snapshotFor(tag string, batch int, in SelectionInput) TagAllowanceSnapshot {
	snap := TagAllowanceSnapshot{Tag: tag, Batch: batch}
	if m := in.Masteries[tag]; m != nil {
		snap.Strength = m.Strength
		snap.Mastered = m.Mastered
	}
	if rel := in.Relationships[tag]; rel != nil {
		snap.Distribution = rel.Distribution()
	}
	return snap
}

func (s *Selector) loadLadder(ctx context.Context, tag string) *store.PatternLadder {
	l, err := s.ladders.Get(ctx, tag)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("reading ladder failed", "tag", tag, "error", err)
		}
		return nil
	}
	return l
}

func freshCount(l *store.PatternLadder, used map[string]bool) int {
	if l == nil {
		return 0
	}
	n := 0
	for _, rung := range l.ProblemList() {
		if !rung.Attempted && !used[rung.ID] {
			n++
		}
	}
	return n
}

func recentIDs(attempts []*store.Attempt) []string {
	ids := make([]string, 0, recentWindow)
	for _, a := range attempts {
		if len(ids) >= recentWindow {
			break
		}
		ids = append(ids, a.ProblemID)
	}
	return ids
}

func difficultyScore(difficulty string) int {
	switch difficulty {
	case store.DifficultyEasy:
		return 1
	case store.DifficultyHard:
		return 3
	default:
		return 2
	}
}

// filterByCap keeps pool problems at or below the difficulty cap.
// Unrecognized caps allow everything; a missing difficulty counts as
// Medium.
func filterByCap(pool []*store.Problem, difficultyCap string) []*store.Problem {
	out := make([]*store.Problem, 0, len(pool))
	for _, p := range pool {
		if capAllows(difficultyCap, p.Difficulty) {
			out = append(out, p)
		}
	}
	return out
}

func capAllows(difficultyCap, difficulty string) bool {
	if difficulty == "" {
		difficulty = store.DifficultyMedium
	}
	switch difficultyCap {
	case store.DifficultyEasy:
		return difficulty == store.DifficultyEasy
	case store.DifficultyMedium:
		return difficulty != store.DifficultyHard
	default:
		return true
	}
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func anyTagIn(tags []string, set map[string]bool) bool {
	for _, t := range tags {
		if set[t] {
			return true
		}
	}
	return false
}
