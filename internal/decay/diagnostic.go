package decay

import (
	"context"
	"fmt"
	"sort"

	"github.com/smithrashell/CodeMaster-sub000/internal/spacedrep"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// diagnosticMinBox is the box level a problem needs before it is worth
// re-testing.
const diagnosticMinBox = 3

// varietyFloor is how many problems are taken unconditionally before
// variety-seeking starts filtering.
const varietyFloor = 3

// diagnosticRetainedAccuracy splits diagnostic tags into retained and
// forgotten.
const diagnosticRetainedAccuracy = 0.70

// SampleDiagnostic picks up to n problems for a diagnostic session from
// the deep boxes: recalibration-flagged problems first, then deeper
// boxes first, greedily keeping tag and difficulty variety and
// backfilling in priority order when variety under-fills.
func (s *Service) SampleDiagnostic(ctx context.Context, n int) ([]*store.Problem, error) {
	pool, err := s.store.Problems().AtOrAboveBox(ctx, diagnosticMinBox)
	if err != nil {
		return nil, fmt.Errorf("diagnostic sample: %w", err)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].NeedsRecalibration != pool[j].NeedsRecalibration {
			return pool[i].NeedsRecalibration
		}
		if pool[i].BoxLevel != pool[j].BoxLevel {
			return pool[i].BoxLevel > pool[j].BoxLevel
		}
		return pool[i].ProblemID < pool[j].ProblemID
	})

	var picked []*store.Problem
	pickedSet := map[string]bool{}
	seenTags := map[string]bool{}
	seenDifficulties := map[string]bool{}

	for _, p := range pool {
		if len(picked) >= n {
			break
		}
		if !bringsVariety(p, len(picked), seenTags, seenDifficulties) {
			continue
		}
		picked = append(picked, p)
		pickedSet[p.ProblemID] = true
		for _, tag := range p.TagList() {
			seenTags[tag] = true
		}
		seenDifficulties[p.Difficulty] = true
	}

	for _, p := range pool {
		if len(picked) >= n {
			break
		}
		if pickedSet[p.ProblemID] {
			continue
		}
		picked = append(picked, p)
		pickedSet[p.ProblemID] = true
	}

	return picked, nil
}

// bringsVariety takes a problem unconditionally while few are chosen,
// then only when it introduces a new tag or a new difficulty.
func bringsVariety(p *store.Problem, chosen int, seenTags, seenDifficulties map[string]bool) bool {
	if chosen < varietyFloor {
		return true
	}
	for _, tag := range p.TagList() {
		if !seenTags[tag] {
			return true
		}
	}
	return !seenDifficulties[p.Difficulty]
}

// DiagnosticOutcome summarizes one processed diagnostic session.
type DiagnosticOutcome struct {
	RetainedTags  []string
	ForgottenTags []string

	// Demoted counts box-level drops from failed attempts.
	Demoted int
}

// ProcessDiagnostic folds a diagnostic session's attempts back into the
// schedule. Tags at 70% accuracy or better are retained and their decay
// score clears; the rest are forgotten and keep a decay score matching
// the miss rate. Every failed attempt drops its problem one box level,
// and every assessed problem comes out of the recalibration queue.
func (s *Service) ProcessDiagnostic(ctx context.Context, sessionID string) (*DiagnosticOutcome, error) {
	attempts, err := s.store.Attempts().BySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("process diagnostic: %w", err)
	}
	if len(attempts) == 0 {
		return &DiagnosticOutcome{}, nil
	}

	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.ProblemID)
	}
	problems, err := s.store.Problems().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("process diagnostic: %w", err)
	}
	byID := make(map[string]*store.Problem, len(problems))
	for _, p := range problems {
		byID[p.ProblemID] = p
	}

	type tally struct{ total, correct int }
	tallies := map[string]*tally{}
	for _, a := range attempts {
		p := byID[a.ProblemID]
		if p == nil {
			continue
		}
		for _, tag := range p.TagList() {
			tl := tallies[tag]
			if tl == nil {
				tl = &tally{}
				tallies[tag] = tl
			}
			tl.total++
			if a.Success {
				tl.correct++
			}
		}
	}
	tags := make([]string, 0, len(tallies))
	for tag := range tallies {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	masteries, err := s.store.TagMastery().GetByTags(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("process diagnostic: %w", err)
	}
	masteryByTag := make(map[string]*store.TagMastery, len(masteries))
	for _, m := range masteries {
		masteryByTag[m.Tag] = m
	}

	out := &DiagnosticOutcome{}
	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		for _, tag := range tags {
			tl := tallies[tag]
			accuracy := float64(tl.correct) / float64(tl.total)
			retained := accuracy >= diagnosticRetainedAccuracy
			if retained {
				out.RetainedTags = append(out.RetainedTags, tag)
			} else {
				out.ForgottenTags = append(out.ForgottenTags, tag)
			}

			m := masteryByTag[tag]
			if m == nil {
				continue
			}
			if retained {
				m.DecayScore = 0
			} else {
				m.DecayScore = 1 - accuracy
			}
			if err := tx.TagMastery().Put(ctx, m); err != nil {
				return fmt.Errorf("tag %s: %w", tag, err)
			}
		}

		for _, a := range attempts {
			p := byID[a.ProblemID]
			if p == nil {
				continue
			}
			if !a.Success {
				p.BoxLevel = spacedrep.DemoteBox(p.BoxLevel)
				p.DiagnosticRecalibrated = true
				out.Demoted++
			}
			p.NeedsRecalibration = false
			p.OriginalBoxLevel = nil
			if err := tx.Problems().Put(ctx, p); err != nil {
				return fmt.Errorf("problem %s: %w", p.ProblemID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("process diagnostic: %w", err)
	}

	s.log.Info("diagnostic processed",
		"session", sessionID,
		"retained", len(out.RetainedTags),
		"forgotten", len(out.ForgottenTags),
		"demoted", out.Demoted)
	return out, nil
}
