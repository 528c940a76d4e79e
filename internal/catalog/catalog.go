// Package catalog seeds the problem bank and its tag reference data from a
// JSON catalog document. Documents are validated against an embedded JSON
// Schema before anything is written.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed starter.json
var starterJSON []byte

// Starter returns the built-in catalog document, used when seeding without
// an explicit file.
func Starter() io.Reader { return bytes.NewReader(starterJSON) }

// Document is the catalog wire format.
type Document struct {
	Problems         []Problem         `json:"problems"`
	TagRelationships []TagRelationship `json:"tag_relationships"`
}

// Problem is one catalog entry. Learner review state lives on the stored
// row, never in the document.
type Problem struct {
	ID         string   `json:"id"`
	LeetcodeID int      `json:"leetcode_id"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
}

// TagRelationship is the seeded reference data for one tag.
type TagRelationship struct {
	Tag                    string                        `json:"tag"`
	Classification         string                        `json:"classification"`
	MasteryThreshold       float64                       `json:"mastery_threshold"`
	MinAttemptsRequired    int                           `json:"min_attempts_required"`
	DifficultyDistribution *store.DifficultyDistribution `json:"difficulty_distribution"`
	RelatedTags            []string                      `json:"related_tags"`
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
			compileErr = fmt.Errorf("parse embedded catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://catalog.json", def); err != nil {
			compileErr = fmt.Errorf("add catalog schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("schema://catalog.json")
	})
	return compiled, compileErr
}

// Parse validates raw catalog bytes against the schema and decodes them.
func Parse(raw []byte) (*Document, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("catalog document is not valid JSON: %w", err)
	}
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("catalog document invalid: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog document: %w", err)
	}
	return &doc, nil
}

// NormalizeTag canonicalizes one tag: trimmed, lowercased, inner whitespace
// collapsed.
func NormalizeTag(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), " ")
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		n := NormalizeTag(tag)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Service seeds catalog documents into the store.
type Service struct {
	store *store.Store
	log   *logger.Logger
}

func NewService(s *store.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: s, log: log.With("component", "catalog")}
}

// SeedResult reports what one seed run wrote.
type SeedResult struct {
	Problems         int
	TagRelationships int
}

// Seed validates and ingests a catalog document. Problems are upserted so
// re-seeding refreshes catalog fields without touching learner review
// state; tag relationships are replaced by tag. An invalid document writes
// nothing.
func (s *Service) Seed(ctx context.Context, r io.Reader) (*SeedResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog document: %w", err)
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	rows := make([]*store.Problem, 0, len(doc.Problems))
	for _, p := range doc.Problems {
		row := &store.Problem{
			ProblemID:  strings.TrimSpace(p.ID),
			LeetcodeID: p.LeetcodeID,
			Title:      strings.TrimSpace(p.Title),
			Difficulty: p.Difficulty,
		}
		row.SetTagList(normalizeTags(p.Tags))
		rows = append(rows, row)
	}

	rels := make([]*store.TagRelationship, 0, len(doc.TagRelationships))
	for _, t := range doc.TagRelationships {
		rel := &store.TagRelationship{
			Tag:                 NormalizeTag(t.Tag),
			Classification:      t.Classification,
			MasteryThreshold:    t.MasteryThreshold,
			MinAttemptsRequired: t.MinAttemptsRequired,
		}
		if t.DifficultyDistribution != nil {
			rel.SetDistribution(*t.DifficultyDistribution)
		}
		rel.SetRelatedTagList(normalizeTags(t.RelatedTags))
		rels = append(rels, rel)
	}

	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		for _, row := range rows {
			if err := tx.Problems().Upsert(ctx, row); err != nil {
				return err
			}
		}
		return tx.TagRelationships().Seed(ctx, rels)
	})
	if err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}

	res := &SeedResult{Problems: len(rows), TagRelationships: len(rels)}
	s.log.Info("catalog seeded", "problems", res.Problems, "tag_relationships", res.TagRelationships)
	return res, nil
}
