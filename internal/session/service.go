// Package session orchestrates practice sessions: planning which problems a
// session serves, recording attempts as they happen, and settling the
// completion effects (difficulty promotion, adaptive recalibration,
// diagnostic assessment).
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smithrashell/CodeMaster-sub000/internal/decay"
	"github.com/smithrashell/CodeMaster-sub000/internal/ladder"
	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/mastery"
	"github.com/smithrashell/CodeMaster-sub000/internal/relgraph"
	"github.com/smithrashell/CodeMaster-sub000/internal/settings"
	"github.com/smithrashell/CodeMaster-sub000/internal/spacedrep"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// ErrSessionExhausted is returned by NextProblem when every planned problem
// in the session already has an attempt recorded.
var ErrSessionExhausted = errors.New("session has no open problems")

// Deps collects the collaborating services the orchestrator drives. Selector
// is optional; a default one is assembled from Graph and Ladders when nil.
type Deps struct {
	Tracker  *mastery.Tracker
	Graph    *relgraph.Graph
	Ladders  *ladder.Service
	Decay    *decay.Service
	Settings *settings.Service
	Selector *Selector
}

// Service coordinates the session lifecycle end to end. Creation is
// serialized per session type so concurrent callers share one active session
// instead of racing to plan duplicates.
type Service struct {
	store    *store.Store
	log      *logger.Logger
	cfg      Config
	selector *Selector
	tracker  *mastery.Tracker
	graph    *relgraph.Graph
	ladders  *ladder.Service
	decay    *decay.Service
	settings *settings.Service
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(s *store.Store, log *logger.Logger, cfg Config, deps Deps) *Service {
	sel := deps.Selector
	if sel == nil {
		sel = NewSelector(deps.Ladders, deps.Graph, nil, nil, log)
	}
	return &Service{
		store:    s,
		log:      log.With("component", "session"),
		cfg:      cfg,
		selector: sel,
		tracker:  deps.Tracker,
		graph:    deps.Graph,
		ladders:  deps.Ladders,
		decay:    deps.Decay,
		settings: deps.Settings,
		now:      time.Now,
	}
}

// GetOrCreate returns the active session of the given type, planning a new
// one when none exists. A standard request is upgraded to adaptive while a
// decay checkin has one pending.
func (s *Service) GetOrCreate(ctx context.Context, sessionType string) (*store.Session, error) {
	if sessionType == store.SessionTypeStandard && s.settings.PendingAdaptive(ctx) {
		s.log.Info("pending recalibration, upgrading to an adaptive session")
		sessionType = store.SessionTypeAdaptive
	}

	lock := s.lockFor(sessionType)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.store.Sessions().Active(ctx, sessionType)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load active session: %w", err)
	}

	ids, err := s.planProblems(ctx, sessionType)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no problems available for a %s session", sessionType)
	}

	sess = &store.Session{
		SessionID:   uuid.New().String(),
		SessionType: sessionType,
		Status:      store.SessionStatusActive,
		StartedAt:   s.now(),
	}
	sess.SetProblemIDList(ids)
	if err := s.store.Sessions().Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.log.Info("session created", "session_id", sess.SessionID, "type", sessionType, "problems", len(ids))
	return sess, nil
}

func (s *Service) planProblems(ctx context.Context, sessionType string) ([]string, error) {
	if sessionType == store.SessionTypeDiagnostic {
		probs, err := s.decay.SampleDiagnostic(ctx, s.cfg.DiagnosticSize)
		if err != nil {
			return nil, fmt.Errorf("plan diagnostic session: %w", err)
		}
		ids := make([]string, 0, len(probs))
		for _, p := range probs {
			ids = append(ids, p.ProblemID)
		}
		return ids, nil
	}

	in, err := s.buildSelectionInput(ctx)
	if err != nil {
		return nil, err
	}
	probs := s.selector.SelectProblems(ctx, s.cfg.Size, in)
	ids := make([]string, 0, len(probs))
	for _, p := range probs {
		ids = append(ids, p.ProblemID)
	}
	return ids, nil
}

// buildSelectionInput gathers everything the selector ranks against. Only an
// unreadable problem pool is fatal; the other reads degrade with a warning so
// planning stays best effort.
func (s *Service) buildSelectionInput(ctx context.Context) (SelectionInput, error) {
	pool, err := s.store.Problems().GetAll(ctx)
	if err != nil {
		return SelectionInput{}, fmt.Errorf("load problem pool: %w", err)
	}

	masteries := make(map[string]*store.TagMastery)
	rows, err := s.store.TagMastery().GetAll(ctx)
	if err != nil {
		s.log.Warn("load tag masteries", "error", err)
		rows = nil
	}
	for _, m := range rows {
		masteries[m.Tag] = m
	}

	focus := s.settings.FocusAreas(ctx)
	if len(focus) == 0 {
		focus = weakestTags(rows, 3)
	}

	relationships := make(map[string]*store.TagRelationship)
	rels, err := s.store.TagRelationships().GetAll(ctx)
	if err != nil {
		s.log.Warn("load tag relationships", "error", err)
		rels = nil
	}
	for _, r := range rels {
		relationships[r.Tag] = r
	}

	recent, err := s.store.Attempts().Recent(ctx, recentWindow)
	if err != nil {
		s.log.Warn("load recent attempts", "error", err)
		recent = nil
	}

	return SelectionInput{
		FocusTags:      focus,
		Masteries:      masteries,
		Relationships:  relationships,
		Pool:           pool,
		DifficultyCap:  s.currentCap(ctx),
		RecentAttempts: recent,
	}, nil
}

func (s *Service) currentCap(ctx context.Context) string {
	if s.settings.DifficultyLimitMode(ctx) == settings.ModeUnrestricted {
		return store.DifficultyHard
	}
	d, err := s.store.DifficultyState().Get(ctx)
	if err != nil {
		s.log.Warn("load difficulty state", "error", err)
		return store.DifficultyEasy
	}
	return d.CurrentDifficultyCap
}

// weakestTags picks fallback focus areas when the learner has not named any:
// the least-developed unmastered tags.
func weakestTags(masteries []*store.TagMastery, n int) []string {
	open := make([]*store.TagMastery, 0, len(masteries))
	for _, m := range masteries {
		if !m.Mastered {
			open = append(open, m)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].Strength != open[j].Strength {
			return open[i].Strength < open[j].Strength
		}
		return open[i].Tag < open[j].Tag
	})
	if len(open) > n {
		open = open[:n]
	}
	tags := make([]string, 0, len(open))
	for _, m := range open {
		tags = append(tags, m.Tag)
	}
	return tags
}

// AttemptInput describes one outcome reported by the learner. Skipped
// records no attempt; it only weakens the relationship that suggested the
// problem.
type AttemptInput struct {
	SessionID string
	ProblemID string
	Success   bool
	TimeSpent int
	Skipped   bool
}

// AttemptResult carries the problem's post-attempt state and any mastery
// transitions the attempt triggered.
type AttemptResult struct {
	Problem     *store.Problem
	Transitions []mastery.Transition
}

// RecordAttempt applies one attempt: it appends the history row, advances
// the problem's review schedule, updates tag mastery, and accumulates
// difficulty time stats.
func (s *Service) RecordAttempt(ctx context.Context, in AttemptInput) (*AttemptResult, error) {
	problem, err := s.store.Problems().Get(ctx, in.ProblemID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("record attempt: unknown problem %q", in.ProblemID)
	}
	if err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	if in.Skipped {
		return s.recordSkip(ctx, problem)
	}

	now := s.now()
	attempt := &store.Attempt{
		AttemptID:   uuid.New().String(),
		ProblemID:   problem.ProblemID,
		SessionID:   in.SessionID,
		Success:     in.Success,
		TimeSpent:   in.TimeSpent,
		AttemptDate: now,
	}
	if err := s.store.Attempts().Append(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	// Ladder coverage has to see this attempt before the mastery gates
	// read it.
	s.ladders.MarkAttempted(ctx, problem.TagList(), problem.ProblemID)

	plan, err := s.tracker.PlanAttempt(ctx, problem, attempt)
	if err != nil {
		return nil, fmt.Errorf("plan mastery update: %w", err)
	}

	problem.Stability = spacedrep.UpdateStability(problem.Stability, in.Success, problem.LastAttemptDate, now)
	if in.Success {
		problem.BoxLevel = spacedrep.AdvanceBox(problem.BoxLevel)
	} else {
		problem.BoxLevel = spacedrep.DemoteBox(problem.BoxLevel)
	}
	problem.TotalAttempts++
	if in.Success {
		problem.SuccessfulAttempts++
	}
	problem.LastAttemptDate = &now
	if err := s.store.Problems().Put(ctx, problem); err != nil {
		return nil, fmt.Errorf("update problem state: %w", err)
	}

	if err := s.tracker.Commit(ctx, plan); err != nil {
		return nil, fmt.Errorf("commit mastery update: %w", err)
	}

	if d, err := s.store.DifficultyState().Get(ctx); err != nil {
		s.log.Warn("load difficulty state", "error", err)
	} else {
		AccumulateTime(d, problem.Difficulty, in.TimeSpent)
		if err := s.store.DifficultyState().Put(ctx, d); err != nil {
			s.log.Warn("save difficulty time stats", "error", err)
		}
	}

	return &AttemptResult{Problem: problem, Transitions: plan.Transitions}, nil
}

// recordSkip punishes the suggestion path that led here: the edge from the
// most recently attempted problem to the skipped one loses strength.
func (s *Service) recordSkip(ctx context.Context, problem *store.Problem) (*AttemptResult, error) {
	recent, err := s.store.Attempts().Recent(ctx, 1)
	if err != nil {
		s.log.Warn("load recent attempts", "error", err)
		return &AttemptResult{Problem: problem}, nil
	}
	if len(recent) == 0 || recent[0].ProblemID == problem.ProblemID {
		s.log.Debug("skip with no prior attempt, nothing to weaken", "problem_id", problem.ProblemID)
		return &AttemptResult{Problem: problem}, nil
	}
	if err := s.graph.Weaken(ctx, recent[0].ProblemID, problem.ProblemID); err != nil {
		s.log.Warn("weaken relationship", "from", recent[0].ProblemID, "to", problem.ProblemID, "error", err)
	}
	return &AttemptResult{Problem: problem}, nil
}

// CompletionResult summarizes a settled session.
type CompletionResult struct {
	Session    *store.Session
	Attempts   int
	Correct    int
	Accuracy   float64
	Promotion  *Promotion
	Diagnostic *decay.DiagnosticOutcome
}

// Complete closes an active session and settles its type-specific effects:
// diagnostics assess retention, adaptive sessions restore decayed box
// levels, and standard and adaptive sessions feed the difficulty ladder.
func (s *Service) Complete(ctx context.Context, sessionID string) (*CompletionResult, error) {
	sess, err := s.store.Sessions().Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("complete session: unknown session %q", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if sess.Status != store.SessionStatusActive {
		return nil, fmt.Errorf("complete session: session %s is already %s", sessionID, sess.Status)
	}

	attempts, err := s.store.Attempts().BySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session attempts: %w", err)
	}
	res := &CompletionResult{Attempts: len(attempts)}
	for _, a := range attempts {
		if a.Success {
			res.Correct++
		}
	}
	if res.Attempts > 0 {
		res.Accuracy = float64(res.Correct) / float64(res.Attempts)
	}

	switch sess.SessionType {
	case store.SessionTypeDiagnostic:
		out, err := s.decay.ProcessDiagnostic(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("process diagnostic results: %w", err)
		}
		res.Diagnostic = out
	case store.SessionTypeAdaptive:
		if err := s.decay.SettleAdaptive(ctx, res.Accuracy); err != nil {
			return nil, fmt.Errorf("settle adaptive recalibration: %w", err)
		}
		res.Promotion = s.applyPromotion(ctx, res.Accuracy)
	default:
		res.Promotion = s.applyPromotion(ctx, res.Accuracy)
	}

	now := s.now()
	sess.Status = store.SessionStatusCompleted
	sess.CompletedAt = &now
	if err := s.store.Sessions().Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	res.Session = sess
	return res, nil
}

func (s *Service) applyPromotion(ctx context.Context, accuracy float64) *Promotion {
	d, err := s.store.DifficultyState().Get(ctx)
	if err != nil {
		s.log.Warn("load difficulty state", "error", err)
		return nil
	}
	promo := EvaluatePromotion(d, accuracy, s.now())
	if err := s.store.DifficultyState().Put(ctx, d); err != nil {
		s.log.Warn("save difficulty state", "error", err)
		return nil
	}
	if promo != nil {
		s.log.Info("difficulty cap promoted", "from", promo.From, "to", promo.To, "gate", promo.Type)
	}
	return promo
}

// Checkin runs the daily decay check.
func (s *Service) Checkin(ctx context.Context) (*decay.CheckinResult, error) {
	return s.decay.Checkin(ctx)
}

// NextProblem suggests which open problem to work next, ranked by how well
// each one follows from the learner's current weak spots.
func (s *Service) NextProblem(ctx context.Context, sess *store.Session) (*store.Problem, error) {
	attempts, err := s.store.Attempts().BySession(ctx, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session attempts: %w", err)
	}
	done := make(map[string]bool, len(attempts))
	for _, a := range attempts {
		done[a.ProblemID] = true
	}

	var open []string
	for _, id := range sess.ProblemIDList() {
		if !done[id] {
			open = append(open, id)
		}
	}
	if len(open) == 0 {
		return nil, ErrSessionExhausted
	}

	unmastered := make(map[string]bool)
	for _, m := range s.tracker.Snapshot(ctx) {
		if !m.Mastered {
			unmastered[m.Tag] = true
		}
	}

	best, bestScore := open[0], -1.0
	for _, id := range open {
		score, err := s.graph.SequenceScore(ctx, id, unmastered, nil)
		if err != nil {
			s.log.Warn("score problem sequence", "problem_id", id, "error", err)
			score = 0
		}
		if score > bestScore {
			best, bestScore = id, score
		}
	}

	p, err := s.store.Problems().Get(ctx, best)
	if err != nil {
		return nil, fmt.Errorf("load next problem: %w", err)
	}
	return p, nil
}

// Problems returns the session's planned problems in planned order.
func (s *Service) Problems(ctx context.Context, sess *store.Session) ([]*store.Problem, error) {
	ids := sess.ProblemIDList()
	probs, err := s.store.Problems().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load session problems: %w", err)
	}
	byID := make(map[string]*store.Problem, len(probs))
	for _, p := range probs {
		byID[p.ProblemID] = p
	}
	ordered := make([]*store.Problem, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (s *Service) lockFor(sessionType string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	l, ok := s.locks[sessionType]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionType] = l
	}
	return l
}
