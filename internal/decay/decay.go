// Package decay restores schedule honesty after an absence: long gaps
// shrink box levels and stability, very long gaps flag problems for
// recalibration, and the welcome-back strategy tells the caller how to
// ease the learner back in.
package decay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/settings"
	"github.com/smithrashell/CodeMaster-sub000/internal/spacedrep"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// decayThresholdDays is the absence gap below which nothing decays.
const decayThresholdDays = 30

// recalibrationThresholdDays is the per-problem gap that flags it for
// recalibration.
const recalibrationThresholdDays = 90

// tagStalenessHalfLife shapes the tag decay score curve.
const tagStalenessHalfLife = 90.0

// jobDecayCheck names the cooldown record for the cold-start check.
const jobDecayCheck = "decay_check"

// Welcome-back strategies, from least to most disruptive.
const (
	StrategyNormal   = "normal"
	StrategyGentle   = "gentle"
	StrategyModerate = "moderate"
	StrategyMajor    = "major"
)

// WelcomeStrategy maps an absence gap to the re-entry strategy. Gentle
// runs the first session back as adaptive; moderate offers a diagnostic
// or adaptive choice; major recommends a diagnostic and reserves a full
// reset as an explicit, warned option.
func WelcomeStrategy(gapDays float64) string {
	switch {
	case gapDays < 30:
		return StrategyNormal
	case gapDays < 90:
		return StrategyGentle
	case gapDays <= 365:
		return StrategyModerate
	default:
		return StrategyMajor
	}
}

// Service owns the cold-start decay check and both recalibration paths.
type Service struct {
	store    *store.Store
	settings *settings.Service
	log      *logger.Logger
	now      func() time.Time
}

// NewService returns a decay Service over the store.
func NewService(s *store.Store, set *settings.Service, log *logger.Logger) *Service {
	return &Service{
		store:    s,
		settings: set,
		log:      log.With("component", "decay"),
		now:      time.Now,
	}
}

// CheckinResult reports what a cold-start check did and how to welcome
// the learner back.
type CheckinResult struct {
	// Ran is false when the daily cooldown suppressed the check.
	Ran bool

	// GapDays is the time since the last recorded attempt.
	GapDays float64

	// Strategy is the welcome-back strategy for the gap.
	Strategy string

	// DecayedCount and FlaggedCount report the sweep's effect.
	DecayedCount int
	FlaggedCount int
}

// Checkin runs the decay check under its daily cooldown and reports the
// welcome-back strategy. Safe to fire and forget: the sweep commits
// all-or-nothing and the cooldown stamp is written only after it
// succeeds.
func (s *Service) Checkin(ctx context.Context) (*CheckinResult, error) {
	now := s.now()

	gap := 0.0
	lastActivity, err := s.store.Attempts().LastDate(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Fresh install, nothing to decay.
	case err != nil:
		return nil, fmt.Errorf("decay checkin: %w", err)
	default:
		gap = now.Sub(lastActivity).Hours() / 24
	}

	res := &CheckinResult{GapDays: gap, Strategy: WelcomeStrategy(gap)}

	lastRun, err := s.store.RunTimestamps().Get(ctx, jobDecayCheck)
	if err != nil {
		return nil, fmt.Errorf("decay checkin: %w", err)
	}
	if sameDay(lastRun, now) {
		return res, nil
	}

	if gap >= decayThresholdDays {
		decayed, flagged, err := s.sweep(ctx, now)
		if err != nil {
			return nil, err
		}
		res.DecayedCount = decayed
		res.FlaggedCount = flagged

		// The gentle strategy rides the adaptive path automatically.
		if res.Strategy == StrategyGentle {
			if err := s.settings.SetPendingAdaptive(ctx, true); err != nil {
				return nil, fmt.Errorf("decay checkin: %w", err)
			}
		}
	}
	res.Ran = true

	if err := s.store.RunTimestamps().Put(ctx, jobDecayCheck, now); err != nil {
		return nil, fmt.Errorf("decay checkin: %w", err)
	}
	return res, nil
}

// sweep decays every problem whose own attempt gap crossed the
// threshold and refreshes tag decay scores. All reads happen before the
// write transaction opens; the whole sweep commits all-or-nothing.
func (s *Service) sweep(ctx context.Context, now time.Time) (decayed, flagged int, err error) {
	problems, err := s.store.Problems().GetAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("decay sweep: %w", err)
	}
	masteries, err := s.store.TagMastery().GetAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("decay sweep: %w", err)
	}

	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		for _, p := range problems {
			if p.LastAttemptDate == nil {
				continue
			}
			gap := now.Sub(*p.LastAttemptDate).Hours() / 24
			if gap < decayThresholdDays {
				continue
			}

			if p.OriginalBoxLevel == nil {
				orig := p.BoxLevel
				p.OriginalBoxLevel = &orig
			}
			p.BoxLevel = spacedrep.DecayBoxLevel(p.BoxLevel, gap)
			p.Stability = spacedrep.DecayStability(p.Stability, gap)
			if gap >= recalibrationThresholdDays {
				p.NeedsRecalibration = true
				at := now
				p.DecayAppliedDate = &at
				flagged++
			}
			if err := tx.Problems().Put(ctx, p); err != nil {
				return fmt.Errorf("decay %s: %w", p.ProblemID, err)
			}
			decayed++
		}

		for _, m := range masteries {
			if m.LastPracticed == nil {
				continue
			}
			gap := now.Sub(*m.LastPracticed).Hours() / 24
			if gap < decayThresholdDays {
				continue
			}
			m.DecayScore = 1 - math.Exp(-gap/tagStalenessHalfLife)
			if err := tx.TagMastery().Put(ctx, m); err != nil {
				return fmt.Errorf("decay tag %s: %w", m.Tag, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("decay sweep: %w", err)
	}

	s.log.Info("decay sweep applied", "decayed", decayed, "flagged", flagged)
	return decayed, flagged, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
