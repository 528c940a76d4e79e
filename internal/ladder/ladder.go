// Package ladder manages per-tag pattern ladders: ordered, renewable
// candidate pools the selector draws from. Ladders are rebuilt from the
// catalog when depleted; they are never a source of truth for mastery.
package ladder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// Config controls ladder construction.
type Config struct {
	// Size caps how many problems a rebuilt ladder carries.
	Size int

	// Distribution is the difficulty mix used when a tag has no seeded
	// distribution of its own.
	Distribution store.DifficultyDistribution
}

// DefaultConfig returns the standard ladder shape.
func DefaultConfig() Config {
	return Config{
		Size:         12,
		Distribution: store.DifficultyDistribution{Easy: 0.4, Medium: 0.4, Hard: 0.2},
	}
}

// Service reads, updates, and rebuilds pattern ladders.
type Service struct {
	store *store.Store
	log   *logger.Logger
	cfg   Config
	now   func() time.Time
}

// NewService returns a ladder Service.
func NewService(s *store.Store, log *logger.Logger, cfg Config) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: s, log: log.With("component", "ladder"), cfg: cfg, now: time.Now}
}

// Get returns the tag's ladder, or ErrNotFound when none exists yet.
func (s *Service) Get(ctx context.Context, tag string) (*store.PatternLadder, error) {
	return s.store.Ladders().Get(ctx, tag)
}

// Coverage returns the attempted fraction of a ladder. A nil or empty
// ladder is coverage 0: the mastery gate stays shut until a ladder exists.
func Coverage(l *store.PatternLadder) float64 {
	if l == nil {
		return 0
	}
	problems := l.ProblemList()
	if len(problems) == 0 {
		return 0
	}
	attempted := 0
	for _, p := range problems {
		if p.Attempted {
			attempted++
		}
	}
	return float64(attempted) / float64(len(problems))
}

// CoverageForTag reads the tag's ladder and returns its coverage; a
// missing ladder is coverage 0.
func (s *Service) CoverageForTag(ctx context.Context, tag string) (float64, error) {
	l, err := s.Get(ctx, tag)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return Coverage(l), nil
}

// MarkAttempted flips the rung flag for a problem on each of the given
// tags' ladders. Missing ladders and missing rungs are skipped; rung
// bookkeeping is not worth failing an attempt over, so per-tag errors are
// logged and the rest proceed.
func (s *Service) MarkAttempted(ctx context.Context, tags []string, problemID string) {
	for _, tag := range tags {
		l, err := s.store.Ladders().Get(ctx, tag)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.log.Warn("read ladder for rung update", "tag", tag, "error", err)
			}
			continue
		}
		problems := l.ProblemList()
		changed := false
		for i := range problems {
			if problems[i].ID == problemID && !problems[i].Attempted {
				problems[i].Attempted = true
				changed = true
			}
		}
		if !changed {
			continue
		}
		l.SetProblemList(problems)
		if err := s.store.Ladders().Put(ctx, l); err != nil {
			s.log.Warn("update ladder rung", "tag", tag, "problem", problemID, "error", err)
		}
	}
}

// Regenerate rebuilds the tag's ladder from the catalog: problems carrying
// the tag, fresh ones first in roughly the tag's difficulty mix, with
// already-attempted problems re-admitted only to fill shortfall. Their
// rungs keep attempted=true so coverage reflects real history.
func (s *Service) Regenerate(ctx context.Context, tag string) error {
	pool, err := s.store.Problems().ByTag(ctx, tag)
	if err != nil {
		return fmt.Errorf("regenerate ladder %s: read pool: %w", tag, err)
	}
	if len(pool) == 0 {
		return fmt.Errorf("regenerate ladder %s: no catalog problems carry the tag", tag)
	}

	dist := s.cfg.Distribution
	if rel, err := s.store.TagRelationships().Get(ctx, tag); err == nil {
		if d := rel.Distribution(); d != nil {
			dist = *d
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("regenerate ladder %s: read tag relationship: %w", tag, err)
	}

	rungs := buildRungs(pool, dist, s.cfg.Size)

	l := &store.PatternLadder{Tag: tag, GeneratedAt: s.now()}
	l.SetProblemList(rungs)
	if err := s.store.Ladders().Put(ctx, l); err != nil {
		return fmt.Errorf("regenerate ladder %s: %w", tag, err)
	}
	s.log.Debug("ladder regenerated", "tag", tag, "rungs", len(rungs))
	return nil
}

// buildRungs assembles the ladder: per-difficulty quotas from the target
// mix, filled with fresh problems, then backfilled with remaining fresh
// problems of any difficulty, then with attempted ones.
func buildRungs(pool []*store.Problem, dist store.DifficultyDistribution, size int) []store.LadderProblem {
	if size <= 0 {
		return nil
	}

	var fresh, attempted []*store.Problem
	for _, p := range pool {
		if p.TotalAttempts == 0 {
			fresh = append(fresh, p)
		} else {
			attempted = append(attempted, p)
		}
	}

	quota := map[string]int{
		store.DifficultyEasy:   int(float64(size) * dist.Easy),
		store.DifficultyMedium: int(float64(size) * dist.Medium),
		store.DifficultyHard:   int(float64(size) * dist.Hard),
	}

	used := make(map[string]bool, size)
	var rungs []store.LadderProblem

	take := func(p *store.Problem) {
		used[p.ProblemID] = true
		rungs = append(rungs, store.LadderProblem{
			ID:         p.ProblemID,
			Difficulty: p.Difficulty,
			Tags:       p.TagList(),
			Attempted:  p.TotalAttempts > 0,
		})
	}

	for _, difficulty := range []string{store.DifficultyEasy, store.DifficultyMedium, store.DifficultyHard} {
		n := quota[difficulty]
		for _, p := range fresh {
			if n == 0 {
				break
			}
			if used[p.ProblemID] || p.Difficulty != difficulty {
				continue
			}
			take(p)
			n--
		}
	}

	for _, p := range fresh {
		if len(rungs) >= size {
			break
		}
		if !used[p.ProblemID] {
			take(p)
		}
	}
	for _, p := range attempted {
		if len(rungs) >= size {
			break
		}
		if !used[p.ProblemID] {
			take(p)
		}
	}
	return rungs
}
