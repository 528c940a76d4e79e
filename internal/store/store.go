// Package store persists learner state in SQLite and exposes one
// repository per record collection. Reads that find nothing return
// ErrNotFound; callers translate absence into their own defaults.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
)

// ErrNotFound is the canonical absence signal for single-record reads.
var ErrNotFound = errors.New("record not found")

// Store wraps the gorm handle and hands out repositories.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the SQLite database at path, applies the pragmas this
// engine relies on, and runs auto-migration for all collections.
func Open(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := db.AutoMigrate(
		&Problem{},
		&Attempt{},
		&TagMastery{},
		&TagRelationship{},
		&ProblemRelationship{},
		&PatternLadder{},
		&DifficultyState{},
		&Session{},
		&RunTimestamp{},
		&Setting{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// DB returns the underlying gorm handle for raw queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn inside one transaction. The *Store passed to fn is bound
// to the transaction, so every repo obtained from it participates in it.
// Rolls back on error, commits otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

// Reset deletes every row in every collection. Run it inside WithTx;
// backup restore is the only caller.
func (s *Store) Reset(ctx context.Context) error {
	models := []any{
		&Problem{},
		&Attempt{},
		&TagMastery{},
		&TagRelationship{},
		&ProblemRelationship{},
		&PatternLadder{},
		&DifficultyState{},
		&Session{},
		&RunTimestamp{},
		&Setting{},
	}
	for _, m := range models {
		if err := s.db.WithContext(ctx).Where("1 = 1").Delete(m).Error; err != nil {
			return fmt.Errorf("reset collection %T: %w", m, err)
		}
	}
	return nil
}

func (s *Store) Problems() ProblemRepo {
	return &problemRepo{db: s.db, log: s.log.With("repo", "problems")}
}

func (s *Store) Attempts() AttemptRepo {
	return &attemptRepo{db: s.db, log: s.log.With("repo", "attempts")}
}

func (s *Store) TagMastery() TagMasteryRepo {
	return &tagMasteryRepo{db: s.db, log: s.log.With("repo", "tag_mastery")}
}

func (s *Store) TagRelationships() TagRelationshipRepo {
	return &tagRelationshipRepo{db: s.db, log: s.log.With("repo", "tag_relationships")}
}

func (s *Store) ProblemRelationships() ProblemRelationshipRepo {
	return &problemRelationshipRepo{db: s.db, log: s.log.With("repo", "problem_relationships")}
}

func (s *Store) Ladders() LadderRepo {
	return &ladderRepo{db: s.db, log: s.log.With("repo", "pattern_ladders")}
}

func (s *Store) DifficultyState() DifficultyStateRepo {
	return &difficultyStateRepo{db: s.db, log: s.log.With("repo", "difficulty_state")}
}

func (s *Store) Sessions() SessionRepo {
	return &sessionRepo{db: s.db, log: s.log.With("repo", "sessions")}
}

func (s *Store) RunTimestamps() RunTimestampRepo {
	return &runTimestampRepo{db: s.db, log: s.log.With("repo", "run_timestamps")}
}

func (s *Store) Settings() SettingRepo {
	return &settingRepo{db: s.db, log: s.log.With("repo", "settings")}
}

// applyPragmas configures SQLite for single-user local use.
func applyPragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. CODEMASTER_DB environment variable
// 2. $XDG_DATA_HOME/codemaster/codemaster.db
// 3. ~/.local/share/codemaster/codemaster.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("CODEMASTER_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "codemaster", "codemaster.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// notFound maps gorm's sentinel onto the store's.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
