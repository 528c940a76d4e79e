package backup

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
	"github.com/smithrashell/CodeMaster-sub000/internal/store/storetest"
)

func testService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s := storetest.Open(t)
	return NewService(s, logger.Nop()), s
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, s := testService(t)

	attemptAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	masteredAt := attemptAt.Add(24 * time.Hour)
	origBox := 6

	twoSum := &store.Problem{
		ProblemID: "two-sum", LeetcodeID: 1, Title: "Two Sum",
		Difficulty: store.DifficultyEasy,
		BoxLevel:   4, Stability: 6.25,
		TotalAttempts: 9, SuccessfulAttempts: 8,
		LastAttemptDate: &attemptAt,
	}
	twoSum.SetTagList([]string{"array", "hash-table"})
	decayed := &store.Problem{
		ProblemID: "course-schedule", LeetcodeID: 207, Title: "Course Schedule",
		Difficulty: store.DifficultyMedium,
		BoxLevel:   2, Stability: 1.8,
		OriginalBoxLevel: &origBox, NeedsRecalibration: true,
	}
	decayed.SetTagList([]string{"graph"})
	for _, p := range []*store.Problem{twoSum, decayed} {
		if err := s.Problems().Put(ctx, p); err != nil {
			t.Fatalf("seed problem %s: %v", p.ProblemID, err)
		}
	}

	for i, a := range []*store.Attempt{
		{AttemptID: "att-1", ProblemID: "two-sum", SessionID: "sess-1", Success: true, TimeSpent: 300, AttemptDate: attemptAt},
		{AttemptID: "att-2", ProblemID: "course-schedule", SessionID: "sess-1", Success: false, TimeSpent: 900, AttemptDate: attemptAt.Add(time.Hour)},
	} {
		if err := s.Attempts().Append(ctx, a); err != nil {
			t.Fatalf("seed attempt %d: %v", i, err)
		}
	}

	mastery := &store.TagMastery{
		Tag: "array", TotalAttempts: 9, SuccessfulAttempts: 8,
		Strength: 89, Mastered: true, MasteryDate: &masteredAt,
	}
	mastery.SetAttemptedIDs([]string{"two-sum"})
	if err := s.TagMastery().Put(ctx, mastery); err != nil {
		t.Fatalf("seed mastery: %v", err)
	}

	rel := &store.TagRelationship{Tag: "array", Classification: "fundamental", MasteryThreshold: 0.8, MinAttemptsRequired: 6}
	rel.SetDistribution(store.DifficultyDistribution{Easy: 0.4, Medium: 0.4, Hard: 0.2})
	rel.SetRelatedTagList([]string{"hash-table"})
	if err := s.TagRelationships().Seed(ctx, []*store.TagRelationship{rel}); err != nil {
		t.Fatalf("seed tag relationship: %v", err)
	}

	edge := &store.ProblemRelationship{ProblemID1: "two-sum", ProblemID2: "course-schedule", Strength: 5, CreatedAt: attemptAt}
	if err := s.ProblemRelationships().Append(ctx, edge); err != nil {
		t.Fatalf("seed edge: %v", err)
	}

	ladder := &store.PatternLadder{Tag: "array", GeneratedAt: attemptAt}
	ladder.SetProblemList([]store.LadderProblem{
		{ID: "two-sum", Difficulty: store.DifficultyEasy, Tags: []string{"array"}, Attempted: true},
	})
	if err := s.Ladders().Put(ctx, ladder); err != nil {
		t.Fatalf("seed ladder: %v", err)
	}

	d, err := s.DifficultyState().Get(ctx)
	if err != nil {
		t.Fatalf("difficulty state: %v", err)
	}
	d.CurrentDifficultyCap = store.DifficultyMedium
	d.SessionsAtCurrentDifficulty = 2
	d.SetTimeStats(map[string]store.LevelStats{store.DifficultyMedium: {Problems: 3, TotalTime: 1800}})
	if err := s.DifficultyState().Put(ctx, d); err != nil {
		t.Fatalf("seed difficulty state: %v", err)
	}

	doneAt := attemptAt.Add(2 * time.Hour)
	sess := &store.Session{
		SessionID: "sess-1", SessionType: store.SessionTypeStandard,
		Status: store.SessionStatusCompleted, StartedAt: attemptAt, CompletedAt: &doneAt,
	}
	sess.SetProblemIDList([]string{"two-sum", "course-schedule"})
	if err := s.Sessions().Put(ctx, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	sweepAt := attemptAt.Add(3 * time.Hour)
	if err := s.RunTimestamps().Put(ctx, "decay_sweep", sweepAt); err != nil {
		t.Fatalf("seed run timestamp: %v", err)
	}

	setting := &store.Setting{Key: "focus_areas"}
	setting.SetValue([]string{"graph"})
	if err := s.Settings().Put(ctx, setting); err != nil {
		t.Fatalf("seed setting: %v", err)
	}

	var buf bytes.Buffer
	payload, err := svc.Export(ctx, &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if payload.SchemaVersion != SchemaVersion {
		t.Errorf("schema version = %q, want %q", payload.SchemaVersion, SchemaVersion)
	}
	if payload.ExportedAt.IsZero() {
		t.Error("exported_at not stamped")
	}
	if len(payload.Problems) != 2 || len(payload.Attempts) != 2 {
		t.Fatalf("payload holds %d problems, %d attempts, want 2 and 2",
			len(payload.Problems), len(payload.Attempts))
	}

	// Drift the live store so the restore has something to undo.
	stray := &store.Problem{ProblemID: "stray", Title: "Stray", Difficulty: store.DifficultyHard}
	if err := s.Problems().Put(ctx, stray); err != nil {
		t.Fatalf("put stray: %v", err)
	}
	twoSum.BoxLevel = 1
	if err := s.Problems().Put(ctx, twoSum); err != nil {
		t.Fatalf("drift two-sum: %v", err)
	}

	res, err := svc.Import(ctx, &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Problems != 2 || res.Attempts != 2 || res.TagMastery != 1 || res.Sessions != 1 {
		t.Errorf("import result = %+v, want 2 problems, 2 attempts, 1 mastery, 1 session", res)
	}

	if n, err := s.Problems().Count(ctx); err != nil || n != 2 {
		t.Fatalf("problem count after restore = %d (%v), want 2", n, err)
	}
	restored, err := s.Problems().Get(ctx, "two-sum")
	if err != nil {
		t.Fatalf("get restored problem: %v", err)
	}
	if restored.BoxLevel != 4 || restored.Stability != 6.25 {
		t.Errorf("restored box/stability = %d/%.2f, want 4/6.25", restored.BoxLevel, restored.Stability)
	}
	if restored.LastAttemptDate == nil || !restored.LastAttemptDate.Equal(attemptAt) {
		t.Errorf("restored last attempt = %v, want %v", restored.LastAttemptDate, attemptAt)
	}
	if got := restored.TagList(); len(got) != 2 || got[0] != "array" {
		t.Errorf("restored tags = %v", got)
	}
	restoredDecayed, err := s.Problems().Get(ctx, "course-schedule")
	if err != nil {
		t.Fatalf("get restored decayed problem: %v", err)
	}
	if restoredDecayed.OriginalBoxLevel == nil || *restoredDecayed.OriginalBoxLevel != 6 || !restoredDecayed.NeedsRecalibration {
		t.Errorf("decay bookkeeping lost: orig=%v recal=%v",
			restoredDecayed.OriginalBoxLevel, restoredDecayed.NeedsRecalibration)
	}

	attempts, err := s.Attempts().GetAll(ctx)
	if err != nil || len(attempts) != 2 {
		t.Fatalf("restored attempts = %d (%v), want 2", len(attempts), err)
	}
	if attempts[0].AttemptID != "att-1" || !attempts[0].Success {
		t.Errorf("first restored attempt = %+v", attempts[0])
	}

	m, err := s.TagMastery().Get(ctx, "array")
	if err != nil {
		t.Fatalf("restored mastery: %v", err)
	}
	if !m.Mastered || m.Strength != 89 || m.MasteryDate == nil || !m.MasteryDate.Equal(masteredAt) {
		t.Errorf("restored mastery = %+v", m)
	}
	if ids := m.AttemptedIDs(); len(ids) != 1 || ids[0] != "two-sum" {
		t.Errorf("restored attempted ids = %v", ids)
	}

	r, err := s.TagRelationships().Get(ctx, "array")
	if err != nil {
		t.Fatalf("restored tag relationship: %v", err)
	}
	if dist := r.Distribution(); dist == nil || dist.Hard != 0.2 {
		t.Errorf("restored distribution = %+v", dist)
	}

	edges, err := s.ProblemRelationships().GetAll(ctx)
	if err != nil || len(edges) != 1 {
		t.Fatalf("restored edges = %d (%v), want 1", len(edges), err)
	}
	if edges[0].Strength != 5 {
		t.Errorf("restored edge strength = %v, want 5", edges[0].Strength)
	}

	l, err := s.Ladders().Get(ctx, "array")
	if err != nil {
		t.Fatalf("restored ladder: %v", err)
	}
	if rungs := l.ProblemList(); len(rungs) != 1 || rungs[0].ID != "two-sum" || !rungs[0].Attempted {
		t.Errorf("restored ladder rungs = %+v", rungs)
	}

	ds, err := s.DifficultyState().Get(ctx)
	if err != nil {
		t.Fatalf("restored difficulty state: %v", err)
	}
	if ds.CurrentDifficultyCap != store.DifficultyMedium || ds.SessionsAtCurrentDifficulty != 2 {
		t.Errorf("restored difficulty state = %+v", ds)
	}
	if stats := ds.TimeStats(); stats[store.DifficultyMedium].TotalTime != 1800 {
		t.Errorf("restored time stats = %+v", stats)
	}

	gotSess, err := s.Sessions().Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("restored session: %v", err)
	}
	if gotSess.Status != store.SessionStatusCompleted || gotSess.CompletedAt == nil {
		t.Errorf("restored session = %+v", gotSess)
	}
	if ids := gotSess.ProblemIDList(); len(ids) != 2 || ids[1] != "course-schedule" {
		t.Errorf("restored session problems = %v", ids)
	}

	lastRun, err := s.RunTimestamps().Get(ctx, "decay_sweep")
	if err != nil || !lastRun.Equal(sweepAt) {
		t.Errorf("restored run timestamp = %v (%v), want %v", lastRun, err, sweepAt)
	}

	st, err := s.Settings().Get(ctx, "focus_areas")
	if err != nil {
		t.Fatalf("restored setting: %v", err)
	}
	var focus []string
	if err := st.Decode(&focus); err != nil || len(focus) != 1 || focus[0] != "graph" {
		t.Errorf("restored focus areas = %v (%v)", focus, err)
	}
}

func TestExportEmptyStoreRoundTrips(t *testing.T) {
	ctx := context.Background()
	svc, s := testService(t)

	var buf bytes.Buffer
	if _, err := svc.Export(ctx, &buf); err != nil {
		t.Fatalf("export empty store: %v", err)
	}
	if _, err := svc.Import(ctx, &buf); err != nil {
		t.Fatalf("reimport empty export: %v", err)
	}
	if n, err := s.Problems().Count(ctx); err != nil || n != 0 {
		t.Errorf("problem count = %d (%v), want 0", n, err)
	}
}

func TestImportRejectsNewerSchemaMajor(t *testing.T) {
	ctx := context.Background()
	svc, s := testService(t)

	keeper := &store.Problem{ProblemID: "keeper", Title: "Keeper", Difficulty: store.DifficultyEasy}
	if err := s.Problems().Put(ctx, keeper); err != nil {
		t.Fatalf("seed keeper: %v", err)
	}

	doc := `{
		"schema_version": "v2.0.0",
		"exported_at": "2026-03-01T00:00:00Z",
		"problems": [{"ProblemID": "intruder", "Title": "Intruder", "Difficulty": "Easy"}]
	}`
	_, err := svc.Import(ctx, strings.NewReader(doc))
	if err == nil || !strings.Contains(err.Error(), "newer") {
		t.Fatalf("want newer-schema rejection, got %v", err)
	}

	if _, err := s.Problems().Get(ctx, "keeper"); err != nil {
		t.Errorf("existing rows must survive a rejected import: %v", err)
	}
	if _, err := s.Problems().Get(ctx, "intruder"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("rejected import must write nothing, got %v", err)
	}
}

func TestImportAcceptsOlderSchema(t *testing.T) {
	ctx := context.Background()
	svc, s := testService(t)

	doc := `{
		"schema_version": "v0.9.0",
		"exported_at": "2025-06-01T00:00:00Z",
		"problems": [{"ProblemID": "legacy-1", "Title": "Legacy", "Difficulty": "Medium"}]
	}`
	res, err := svc.Import(ctx, strings.NewReader(doc))
	if err != nil {
		t.Fatalf("import older schema: %v", err)
	}
	if res.Problems != 1 {
		t.Errorf("imported %d problems, want 1", res.Problems)
	}
	if _, err := s.Problems().Get(ctx, "legacy-1"); err != nil {
		t.Errorf("legacy problem missing after import: %v", err)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not json", `{"schema_version":`},
		{"missing version", `{"exported_at": "2026-03-01T00:00:00Z"}`},
		{"unversioned stamp", `{"schema_version": "1.0.0", "exported_at": "2026-03-01T00:00:00Z"}`},
		{"problems not a list", `{"schema_version": "v1.0.0", "exported_at": "2026-03-01T00:00:00Z", "problems": {}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.doc)); err == nil {
				t.Fatal("want validation error, got nil")
			}
		})
	}
}
