// Package storetest opens throwaway in-memory databases for tests.
package storetest

import (
	"testing"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// Open returns a Store backed by a fresh in-memory SQLite database,
// migrated and closed automatically when the test ends. The shared-cache
// DSN keeps every pooled connection on the same database.
func Open(tb testing.TB) *store.Store {
	tb.Helper()

	s, err := store.Open("file::memory:?cache=shared", logger.Nop())
	if err != nil {
		tb.Fatalf("open in-memory store: %v", err)
	}
	tb.Cleanup(func() {
		if err := s.Close(); err != nil {
			tb.Errorf("close store: %v", err)
		}
	})
	return s
}
