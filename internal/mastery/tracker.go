// Package mastery maintains per-tag statistics and decides when a tag is
// mastered. Updates run in two phases: PlanAttempt performs every
// cross-collection read and computes the new records; Commit writes them
// inside a single transaction. No reads happen once the write begins.
package mastery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smithrashell/CodeMaster-sub000/internal/ladder"
	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// Tracker owns tag mastery state.
type Tracker struct {
	store *store.Store
	log   *logger.Logger
	cfg   Config
}

// NewTracker returns a Tracker with the given gate configuration.
func NewTracker(s *store.Store, log *logger.Logger, cfg Config) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{store: s, log: log.With("component", "mastery"), cfg: cfg}
}

// Plan holds the computed record updates for one attempt, ready to commit.
type Plan struct {
	Updates     []*store.TagMastery
	Transitions []Transition
}

// Empty reports whether the plan carries no work.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Updates) == 0
}

// PlanAttempt reads everything an update needs and computes the new
// per-tag records. A problem with no valid tags yields an empty plan, not
// an error.
func (t *Tracker) PlanAttempt(ctx context.Context, problem *store.Problem, attempt *store.Attempt) (*Plan, error) {
	tags := validTags(problem.TagList())
	if len(tags) == 0 {
		return &Plan{}, nil
	}

	current, err := t.store.TagMastery().GetByTags(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("plan mastery update: read tag mastery: %w", err)
	}
	byTag := make(map[string]*store.TagMastery, len(current))
	for _, m := range current {
		byTag[m.Tag] = m
	}

	rels, err := t.store.TagRelationships().GetByTags(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("plan mastery update: read tag relationships: %w", err)
	}
	relByTag := make(map[string]*store.TagRelationship, len(rels))
	for _, r := range rels {
		relByTag[r.Tag] = r
	}

	coverage := make(map[string]float64, len(tags))
	for _, tag := range tags {
		l, err := t.store.Ladders().Get(ctx, tag)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				coverage[tag] = 0 // no ladder means the gate cannot pass
				continue
			}
			return nil, fmt.Errorf("plan mastery update: read ladder %s: %w", tag, err)
		}
		coverage[tag] = ladder.Coverage(l)
	}

	plan := &Plan{}
	for _, tag := range tags {
		rec := byTag[tag]
		before := StateOf(rec)
		if rec == nil {
			rec = &store.TagMastery{Tag: tag}
		}

		rec.TotalAttempts++
		if attempt.Success {
			rec.SuccessfulAttempts++
		}
		ids := rec.AttemptedIDs()
		if !contains(ids, problem.ProblemID) {
			ids = append(ids, problem.ProblemID)
			rec.SetAttemptedIDs(ids)
		}
		at := attempt.AttemptDate
		rec.LastPracticed = &at
		rec.DecayScore = 0 // practicing a tag clears its staleness
		rec.Strength = StrengthFor(rec)

		gates := EvaluateGates(rec, relByTag[tag], coverage[tag], t.cfg)
		if gates.All() && !rec.Mastered {
			rec.Mastered = true
			rec.MasteryDate = &at
			plan.Transitions = append(plan.Transitions, Transition{
				Tag:     tag,
				From:    before,
				To:      StateMastered,
				Trigger: TriggerGatePassed,
			})
		}

		plan.Updates = append(plan.Updates, rec)
	}
	return plan, nil
}

// Commit persists a plan in one transaction. Storage failures propagate;
// silently dropping a mastery update would corrupt learning state.
func (t *Tracker) Commit(ctx context.Context, plan *Plan) error {
	if plan.Empty() {
		return nil
	}
	err := t.store.WithTx(ctx, func(tx *store.Store) error {
		repo := tx.TagMastery()
		for _, rec := range plan.Updates {
			if err := repo.Put(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit mastery update: %w", err)
	}
	for _, tr := range plan.Transitions {
		t.log.Info("tag mastered", "tag", tr.Tag, "trigger", tr.Trigger)
	}
	return nil
}

// RecordAttempt plans and commits in one call, returning the updated
// records and any transitions.
func (t *Tracker) RecordAttempt(ctx context.Context, problem *store.Problem, attempt *store.Attempt) ([]*store.TagMastery, []Transition, error) {
	plan, err := t.PlanAttempt(ctx, problem, attempt)
	if err != nil {
		return nil, nil, err
	}
	if err := t.Commit(ctx, plan); err != nil {
		return nil, nil, err
	}
	return plan.Updates, plan.Transitions, nil
}

// Snapshot returns every tag record; read path for displays, so failures
// degrade to an empty list with a logged warning.
func (t *Tracker) Snapshot(ctx context.Context) []*store.TagMastery {
	all, err := t.store.TagMastery().GetAll(ctx)
	if err != nil {
		t.log.Warn("read tag mastery snapshot", "error", err)
		return nil
	}
	return all
}

func validTags(tags []string) []string {
	out := tags[:0:0]
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
