// Package backup exports the whole store as one versioned JSON document
// and restores such documents. Restore replaces every collection inside a
// single transaction, so a failed import leaves the store untouched.
package backup

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

// SchemaVersion is stamped into every export. Imports accept the same or
// an older major version only.
const SchemaVersion = "v1.0.0"

//go:embed schema.json
var schemaJSON []byte

// Payload is the backup wire format: the schema stamp plus every
// collection in the store. Empty collections are omitted so a fresh
// store still exports a document that validates.
type Payload struct {
	SchemaVersion        string                       `json:"schema_version"`
	ExportedAt           time.Time                    `json:"exported_at"`
	Problems             []*store.Problem             `json:"problems,omitempty"`
	Attempts             []*store.Attempt             `json:"attempts,omitempty"`
	TagMastery           []*store.TagMastery          `json:"tag_mastery,omitempty"`
	TagRelationships     []*store.TagRelationship     `json:"tag_relationships,omitempty"`
	ProblemRelationships []*store.ProblemRelationship `json:"problem_relationships,omitempty"`
	Ladders              []*store.PatternLadder       `json:"pattern_ladders,omitempty"`
	DifficultyState      *store.DifficultyState       `json:"difficulty_state,omitempty"`
	Sessions             []*store.Session             `json:"sessions,omitempty"`
	RunTimestamps        []*store.RunTimestamp        `json:"run_timestamps,omitempty"`
	Settings             []*store.Setting             `json:"settings,omitempty"`
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal(schemaJSON, &def); err != nil {
			compileErr = fmt.Errorf("parse embedded backup schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://backup.json", def); err != nil {
			compileErr = fmt.Errorf("add backup schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("schema://backup.json")
	})
	return compiled, compileErr
}

// Parse validates raw backup bytes against the envelope schema and decodes
// them. Row contents are checked by the store on restore, not here.
func Parse(raw []byte) (*Payload, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("backup document is not valid JSON: %w", err)
	}
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("backup document invalid: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode backup document: %w", err)
	}
	return &p, nil
}

// Service exports and restores store snapshots.
type Service struct {
	store *store.Store
	log   *logger.Logger
}

func NewService(s *store.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: s, log: log.With("component", "backup")}
}

// Export writes a complete snapshot of the store to w and returns the
// payload it wrote.
func (s *Service) Export(ctx context.Context, w io.Writer) (*Payload, error) {
	p, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	s.log.Info("backup exported",
		"problems", len(p.Problems), "attempts", len(p.Attempts), "sessions", len(p.Sessions))
	return p, nil
}

func (s *Service) snapshot(ctx context.Context) (*Payload, error) {
	p := &Payload{SchemaVersion: SchemaVersion, ExportedAt: time.Now().UTC()}
	var err error
	if p.Problems, err = s.store.Problems().GetAll(ctx); err != nil {
		return nil, fmt.Errorf("export problems: %w", err)
	}
	if p.Attempts, err = s.store.Attempts().GetAll(ctx); err != nil {
		return nil, fmt.Errorf("export attempts: %w", err)
	}
	if p.TagMastery, err = s.store.TagMastery().GetAll(ctx); err != nil {
		return nil, fmt.Errorf("export tag mastery: %w", err)
	}
	if p.TagRelationships, err = s.store.TagRelationships().GetAll(ctx); err != nil {
		return nil, fmt.Errorf("export tag relationships: %w", err)
	}
	if p.ProblemRelationships, err = s.store.ProblemRelationships().GetAll(ctx); err != nil {
		return nil, fmt.Errorf("export problem relationships: %w", err)
	}
	if p.Ladders, err = s.store.Ladders().GetAll(ctx); err != nil {
		return nil, fmt.Errorf("export pattern ladders: %w", err)
	}
	if p.DifficultyState, err = s.store.DifficultyState().Get(ctx); err != nil {
		return nil, fmt.Errorf("export difficulty state: %w", err)
	}
	if p.Sessions, err = s.store.Sessions().GetAll(ctx); err != nil {
		return nil, fmt.Errorf("export sessions: %w", err)
	}
	if p.RunTimestamps, err = s.store.RunTimestamps().GetAll(ctx); err != nil {
		return nil, fmt.Errorf("export run timestamps: %w", err)
	}
	if p.Settings, err = s.store.Settings().GetAll(ctx); err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	return p, nil
}

// ImportResult reports what one restore wrote.
type ImportResult struct {
	Problems   int
	Attempts   int
	TagMastery int
	Sessions   int
}

// Import validates a backup document, checks schema compatibility, and
// replaces the store's contents with the payload in one transaction.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	p, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := s.checkVersion(p.SchemaVersion); err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Reset(ctx); err != nil {
			return err
		}
		for _, row := range p.Problems {
			if err := tx.Problems().Put(ctx, row); err != nil {
				return err
			}
		}
		for _, row := range p.Attempts {
			if err := tx.Attempts().Append(ctx, row); err != nil {
				return err
			}
		}
		for _, row := range p.TagMastery {
			if err := tx.TagMastery().Put(ctx, row); err != nil {
				return err
			}
		}
		if err := tx.TagRelationships().Seed(ctx, p.TagRelationships); err != nil {
			return err
		}
		if err := tx.ProblemRelationships().Replace(ctx, p.ProblemRelationships); err != nil {
			return err
		}
		for _, row := range p.Ladders {
			if err := tx.Ladders().Put(ctx, row); err != nil {
				return err
			}
		}
		if p.DifficultyState != nil {
			if err := tx.DifficultyState().Put(ctx, p.DifficultyState); err != nil {
				return err
			}
		}
		for _, row := range p.Sessions {
			if err := tx.Sessions().Put(ctx, row); err != nil {
				return err
			}
		}
		for _, row := range p.RunTimestamps {
			if err := tx.RunTimestamps().Put(ctx, row.Name, row.LastRun); err != nil {
				return err
			}
		}
		for _, row := range p.Settings {
			if err := tx.Settings().Put(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("restore backup: %w", err)
	}

	res := &ImportResult{
		Problems:   len(p.Problems),
		Attempts:   len(p.Attempts),
		TagMastery: len(p.TagMastery),
		Sessions:   len(p.Sessions),
	}
	s.log.Info("backup restored",
		"schema", p.SchemaVersion, "problems", res.Problems, "attempts", res.Attempts)
	return res, nil
}

// checkVersion enforces major-version compatibility between the payload
// and this build's schema.
func (s *Service) checkVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("backup schema version %q is not valid semver", v)
	}
	switch semver.Compare(semver.Major(v), semver.Major(SchemaVersion)) {
	case 1:
		return fmt.Errorf("backup schema %s is newer than this build supports (%s)", v, SchemaVersion)
	case -1:
		s.log.Warn("importing an older backup schema", "backup", v, "current", SchemaVersion)
	}
	return nil
}
