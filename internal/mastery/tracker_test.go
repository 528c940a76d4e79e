package mastery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
	"github.com/smithrashell/CodeMaster-sub000/internal/store/storetest"
)

func testTracker(t *testing.T) (*Tracker, *store.Store) {
	t.Helper()
	s := storetest.Open(t)
	return NewTracker(s, logger.Nop(), DefaultConfig()), s
}

func problemWithTags(id string, tags ...string) *store.Problem {
	p := &store.Problem{ProblemID: id, Difficulty: store.DifficultyEasy, BoxLevel: 1}
	p.SetTagList(tags)
	return p
}

func attemptFor(problemID string, success bool, at time.Time) *store.Attempt {
	return &store.Attempt{
		AttemptID:   problemID + "-attempt",
		ProblemID:   problemID,
		SessionID:   "s1",
		Success:     success,
		AttemptDate: at,
	}
}

func TestRecordAttemptUpdatesEachTag(t *testing.T) {
	tr, s := testTracker(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	p := problemWithTags("two-sum", "array", "hash-table")
	updated, transitions, err := tr.RecordAttempt(ctx, p, attemptFor("two-sum", true, at))
	if err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("updated %d tags, want 2", len(updated))
	}
	if len(transitions) != 0 {
		t.Fatalf("one attempt should not master anything, got %v", transitions)
	}

	rec, err := s.TagMastery().Get(ctx, "array")
	if err != nil {
		t.Fatalf("get array record: %v", err)
	}
	if rec.TotalAttempts != 1 || rec.SuccessfulAttempts != 1 {
		t.Errorf("counts = %d/%d, want 1/1", rec.SuccessfulAttempts, rec.TotalAttempts)
	}
	if ids := rec.AttemptedIDs(); len(ids) != 1 || ids[0] != "two-sum" {
		t.Errorf("attempted ids = %v, want [two-sum]", ids)
	}
	if rec.LastPracticed == nil || !rec.LastPracticed.Equal(at) {
		t.Errorf("last practiced = %v, want %v", rec.LastPracticed, at)
	}
	if rec.Strength != 100 {
		t.Errorf("strength = %d, want 100", rec.Strength)
	}
}

func TestRecordAttemptDedupesProblemIDs(t *testing.T) {
	tr, s := testTracker(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	p := problemWithTags("two-sum", "array")
	for i := 0; i < 3; i++ {
		if _, _, err := tr.RecordAttempt(ctx, p, attemptFor("two-sum", true, at.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}

	rec, err := s.TagMastery().Get(ctx, "array")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.TotalAttempts != 3 {
		t.Errorf("total attempts = %d, want 3", rec.TotalAttempts)
	}
	if ids := rec.AttemptedIDs(); len(ids) != 1 {
		t.Errorf("attempted ids = %v, want one deduplicated entry", ids)
	}
}

func TestRecordAttemptNoValidTagsIsNoop(t *testing.T) {
	tr, s := testTracker(t)
	ctx := context.Background()

	p := problemWithTags("oddball", "", "   ")
	updated, _, err := tr.RecordAttempt(ctx, p, attemptFor("oddball", true, time.Now()))
	if err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if len(updated) != 0 {
		t.Errorf("expected no updates, got %d", len(updated))
	}

	all, err := s.TagMastery().GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("store should be untouched, has %d records", len(all))
	}
}

// seedLadderWithCoverage stores a ladder whose attempted fraction clears
// the coverage gate.
func seedLadderWithCoverage(t *testing.T, s *store.Store, tag string) {
	t.Helper()
	l := &store.PatternLadder{Tag: tag}
	l.SetProblemList([]store.LadderProblem{
		{ID: "l1", Attempted: true},
		{ID: "l2", Attempted: true},
		{ID: "l3", Attempted: true},
		{ID: "l4", Attempted: false},
	})
	if err := s.Ladders().Put(context.Background(), l); err != nil {
		t.Fatalf("seed ladder: %v", err)
	}
}

func TestMasteryAfterFourthAttempt(t *testing.T) {
	tr, s := testTracker(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Relaxed thresholds: 4 attempts, 0.5 accuracy.
	rel := &store.TagRelationship{Tag: "dp", MasteryThreshold: 0.5, MinAttemptsRequired: 4}
	if err := s.TagRelationships().Seed(ctx, []*store.TagRelationship{rel}); err != nil {
		t.Fatalf("seed relationship: %v", err)
	}
	seedLadderWithCoverage(t, s, "dp")

	// Three successes on distinct problems: volume gate still short.
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("dp-%d", i)
		_, transitions, err := tr.RecordAttempt(ctx, problemWithTags(id, "dp"), attemptFor(id, true, at))
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if len(transitions) != 0 {
			t.Fatalf("mastered after %d attempts, want none before the 4th", i+1)
		}
	}

	// Fourth attempt fails, leaving accuracy 0.75 >= 0.5: gates all pass.
	_, transitions, err := tr.RecordAttempt(ctx, problemWithTags("dp-3", "dp"), attemptFor("dp-3", false, at))
	if err != nil {
		t.Fatalf("fourth attempt: %v", err)
	}
	if len(transitions) != 1 {
		t.Fatalf("transitions = %v, want one mastery transition", transitions)
	}
	if transitions[0].To != StateMastered || transitions[0].Trigger != TriggerGatePassed {
		t.Errorf("transition = %+v", transitions[0])
	}

	rec, err := s.TagMastery().Get(ctx, "dp")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec.Mastered {
		t.Error("record not marked mastered")
	}
	if rec.MasteryDate == nil {
		t.Error("mastery date not stamped")
	}
}

func TestMasteryDateIsNotRestamped(t *testing.T) {
	tr, s := testTracker(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rel := &store.TagRelationship{Tag: "dp", MasteryThreshold: 0.5, MinAttemptsRequired: 2}
	if err := s.TagRelationships().Seed(ctx, []*store.TagRelationship{rel}); err != nil {
		t.Fatalf("seed relationship: %v", err)
	}
	seedLadderWithCoverage(t, s, "dp")

	for i := 0; i < 2; i++ {
		id := fmt.Sprintf("dp-%d", i)
		if _, _, err := tr.RecordAttempt(ctx, problemWithTags(id, "dp"), attemptFor(id, true, at)); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}

	first, err := s.TagMastery().Get(ctx, "dp")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !first.Mastered || first.MasteryDate == nil {
		t.Fatal("precondition: tag should be mastered")
	}
	stamp := *first.MasteryDate

	// Later attempts, including failures, neither re-stamp nor un-master.
	later := at.AddDate(0, 0, 7)
	_, transitions, err := tr.RecordAttempt(ctx, problemWithTags("dp-9", "dp"), attemptFor("dp-9", false, later))
	if err != nil {
		t.Fatalf("later attempt: %v", err)
	}
	if len(transitions) != 0 {
		t.Errorf("unexpected transitions %v", transitions)
	}

	rec, err := s.TagMastery().Get(ctx, "dp")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if !rec.Mastered {
		t.Error("ordinary attempt cleared mastered")
	}
	if !rec.MasteryDate.Equal(stamp) {
		t.Errorf("mastery date re-stamped: %v -> %v", stamp, rec.MasteryDate)
	}
}

func TestPlanDoesNotWrite(t *testing.T) {
	tr, s := testTracker(t)
	ctx := context.Background()

	p := problemWithTags("two-sum", "array")
	plan, err := tr.PlanAttempt(ctx, p, attemptFor("two-sum", true, time.Now()))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Empty() {
		t.Fatal("plan should carry one update")
	}

	// Nothing lands until Commit.
	all, err := s.TagMastery().GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("plan wrote %d records before commit", len(all))
	}

	if err := tr.Commit(ctx, plan); err != nil {
		t.Fatalf("commit: %v", err)
	}
	all, err = s.TagMastery().GetAll(ctx)
	if err != nil {
		t.Fatalf("get all after commit: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("committed %d records, want 1", len(all))
	}
}

func TestPracticingClearsDecayScore(t *testing.T) {
	tr, s := testTracker(t)
	ctx := context.Background()

	stale := &store.TagMastery{Tag: "array", TotalAttempts: 2, SuccessfulAttempts: 1, DecayScore: 0.6}
	if err := s.TagMastery().Put(ctx, stale); err != nil {
		t.Fatalf("seed: %v", err)
	}

	p := problemWithTags("two-sum", "array")
	if _, _, err := tr.RecordAttempt(ctx, p, attemptFor("two-sum", true, time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}

	rec, err := s.TagMastery().Get(ctx, "array")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.DecayScore != 0 {
		t.Errorf("decay score = %v, want cleared to 0", rec.DecayScore)
	}
}
