package decay

import (
	"context"
	"fmt"
	"math"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// RequestAdaptive flags the next ordinary session to run as an adaptive
// recalibration session.
func (s *Service) RequestAdaptive(ctx context.Context) error {
	return s.settings.SetPendingAdaptive(ctx, true)
}

// SettleAdaptive resolves previously applied decay from an adaptive
// session's accuracy. Strong performance keeps the decay as applied;
// weaker performance gives back half or three quarters of the lost box
// levels, recomputed from the stored pre-decay level and never
// exceeding it. Either way the episode is settled: original levels and
// recalibration flags clear, and the pending-adaptive flag drops.
func (s *Service) SettleAdaptive(ctx context.Context, accuracy float64) error {
	problems, err := s.store.Problems().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("settle adaptive: %w", err)
	}

	restore := restoreFactor(accuracy)

	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		for _, p := range problems {
			if p.OriginalBoxLevel == nil {
				continue
			}
			orig := *p.OriginalBoxLevel
			if lost := orig - p.BoxLevel; lost > 0 && restore > 0 {
				remaining := int(math.Round(float64(lost) * (1 - restore)))
				p.BoxLevel = orig - remaining
			}
			p.OriginalBoxLevel = nil
			p.NeedsRecalibration = false
			if err := tx.Problems().Put(ctx, p); err != nil {
				return fmt.Errorf("problem %s: %w", p.ProblemID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("settle adaptive: %w", err)
	}

	if err := s.settings.SetPendingAdaptive(ctx, false); err != nil {
		return fmt.Errorf("settle adaptive: %w", err)
	}
	s.log.Info("adaptive recalibration settled", "accuracy", accuracy, "restored", restore)
	return nil
}

// restoreFactor maps adaptive-session accuracy to the share of applied
// box-level decay to give back.
func restoreFactor(accuracy float64) float64 {
	switch {
	case accuracy >= 0.70:
		return 0
	case accuracy >= 0.40:
		return 0.5
	default:
		return 0.75
	}
}
