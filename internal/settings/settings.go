// Package settings provides typed access to user preferences kept in
// the key-value settings collection.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// Difficulty limit modes.
const (
	// ModeAdaptive caps selection at the promotion state machine's
	// current difficulty.
	ModeAdaptive = "adaptive"

	// ModeUnrestricted lets selection draw from every difficulty.
	ModeUnrestricted = "unrestricted"
)

const (
	keyFocusAreas          = "focus_areas"
	keyDifficultyLimitMode = "difficulty_limit_mode"
	keyPendingAdaptive     = "pending_adaptive"
)

// Service reads and writes user preferences.
type Service struct {
	store *store.Store
	log   *logger.Logger
}

// NewService returns a settings Service over the store.
func NewService(s *store.Store, log *logger.Logger) *Service {
	return &Service{store: s, log: log.With("component", "settings")}
}

// FocusAreas returns the learner's focus tags in priority order. Absent
// or unreadable settings yield an empty list.
func (s *Service) FocusAreas(ctx context.Context) []string {
	var tags []string
	if !s.get(ctx, keyFocusAreas, &tags) {
		return nil
	}
	return tags
}

// SetFocusAreas replaces the focus tag list.
func (s *Service) SetFocusAreas(ctx context.Context, tags []string) error {
	return s.put(ctx, keyFocusAreas, tags)
}

// DifficultyLimitMode returns the selection cap mode, defaulting to
// adaptive.
func (s *Service) DifficultyLimitMode(ctx context.Context) string {
	var mode string
	if !s.get(ctx, keyDifficultyLimitMode, &mode) || mode == "" {
		return ModeAdaptive
	}
	return mode
}

// SetDifficultyLimitMode stores the cap mode, rejecting unknown values.
func (s *Service) SetDifficultyLimitMode(ctx context.Context, mode string) error {
	if mode != ModeAdaptive && mode != ModeUnrestricted {
		return fmt.Errorf("unknown difficulty limit mode %q", mode)
	}
	return s.put(ctx, keyDifficultyLimitMode, mode)
}

// PendingAdaptive reports whether the next ordinary session should run
// as an adaptive recalibration session.
func (s *Service) PendingAdaptive(ctx context.Context) bool {
	var pending bool
	s.get(ctx, keyPendingAdaptive, &pending)
	return pending
}

// SetPendingAdaptive arms or clears the adaptive recalibration flag.
func (s *Service) SetPendingAdaptive(ctx context.Context, pending bool) error {
	return s.put(ctx, keyPendingAdaptive, pending)
}

// get decodes a setting into v and reports whether a usable value was
// found. Read failures degrade to the caller's default.
func (s *Service) get(ctx context.Context, key string, v interface{}) bool {
	row, err := s.store.Settings().Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false
	}
	if err != nil {
		s.log.Warn("reading setting failed", "key", key, "error", err)
		return false
	}
	if err := row.Decode(v); err != nil {
		s.log.Warn("setting has an unexpected shape", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Service) put(ctx context.Context, key string, v interface{}) error {
	row := &store.Setting{Key: key}
	row.SetValue(v)
	if err := s.store.Settings().Put(ctx, row); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
