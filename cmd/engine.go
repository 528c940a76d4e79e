package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/backup"
	"github.com/smithrashell/CodeMaster-sub000/internal/catalog"
	"github.com/smithrashell/CodeMaster-sub000/internal/decay"
	"github.com/smithrashell/CodeMaster-sub000/internal/ladder"
	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/mastery"
	"github.com/smithrashell/CodeMaster-sub000/internal/relgraph"
	"github.com/smithrashell/CodeMaster-sub000/internal/session"
	"github.com/smithrashell/CodeMaster-sub000/internal/settings"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// engine is the wired service graph the commands run against.
type engine struct {
	store    *store.Store
	log      *logger.Logger
	settings *settings.Service
	decay    *decay.Service
	sessions *session.Service
	catalog  *catalog.Service
	backup   *backup.Service
}

// openEngine resolves the database path, opens the store, and wires the
// services. Callers must Close when done.
func openEngine(cmd *cobra.Command) (*engine, error) {
	log, err := logger.New()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	set := settings.NewService(st, log)
	dec := decay.NewService(st, set, log)
	sessions := session.NewService(st, log, session.DefaultConfig(), session.Deps{
		Tracker:  mastery.NewTracker(st, log, mastery.DefaultConfig()),
		Graph:    relgraph.New(st, log),
		Ladders:  ladder.NewService(st, log, ladder.DefaultConfig()),
		Decay:    dec,
		Settings: set,
	})

	return &engine{
		store:    st,
		log:      log,
		settings: set,
		decay:    dec,
		sessions: sessions,
		catalog:  catalog.NewService(st, log),
		backup:   backup.NewService(st, log),
	}, nil
}

func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("close store", "error", err)
	}
	e.log.Sync()
}

// activeSession resolves the session a command targets: the explicit id
// when given, otherwise the single active session.
func activeSession(ctx context.Context, e *engine, id string) (*store.Session, error) {
	if id != "" {
		sess, err := e.store.Sessions().Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", id, err)
		}
		return sess, nil
	}

	open, err := e.store.Sessions().ByStatus(ctx, store.SessionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	switch len(open) {
	case 0:
		return nil, errors.New(`no active session; start one with "codemaster session"`)
	case 1:
		return open[0], nil
	default:
		return nil, fmt.Errorf("%d sessions are active; pass --session to pick one", len(open))
	}
}

// shortID trims a uuid for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
