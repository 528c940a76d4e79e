package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
)

// TagMasteryRepo is the tag_mastery collection.
type TagMasteryRepo interface {
	Get(ctx context.Context, tag string) (*TagMastery, error)
	Put(ctx context.Context, m *TagMastery) error
	GetAll(ctx context.Context) ([]*TagMastery, error)
	GetByTags(ctx context.Context, tags []string) ([]*TagMastery, error)
}

type tagMasteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *tagMasteryRepo) Get(ctx context.Context, tag string) (*TagMastery, error) {
	var m TagMastery
	if err := r.db.WithContext(ctx).First(&m, "tag = ?", tag).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *tagMasteryRepo) Put(ctx context.Context, m *TagMastery) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("put tag mastery %s: %w", m.Tag, err)
	}
	return nil
}

func (r *tagMasteryRepo) GetAll(ctx context.Context) ([]*TagMastery, error) {
	var out []*TagMastery
	if err := r.db.WithContext(ctx).Order("tag").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagMasteryRepo) GetByTags(ctx context.Context, tags []string) ([]*TagMastery, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	var out []*TagMastery
	if err := r.db.WithContext(ctx).Where("tag IN ?", tags).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// TagRelationshipRepo is the seeded tag_relationships reference data.
type TagRelationshipRepo interface {
	Get(ctx context.Context, tag string) (*TagRelationship, error)
	GetByTags(ctx context.Context, tags []string) ([]*TagRelationship, error)
	GetAll(ctx context.Context) ([]*TagRelationship, error)
	Seed(ctx context.Context, rows []*TagRelationship) error
}

type tagRelationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *tagRelationshipRepo) Get(ctx context.Context, tag string) (*TagRelationship, error) {
	var t TagRelationship
	if err := r.db.WithContext(ctx).First(&t, "tag = ?", tag).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *tagRelationshipRepo) GetByTags(ctx context.Context, tags []string) ([]*TagRelationship, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	var out []*TagRelationship
	if err := r.db.WithContext(ctx).Where("tag IN ?", tags).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRelationshipRepo) GetAll(ctx context.Context) ([]*TagRelationship, error) {
	var out []*TagRelationship
	if err := r.db.WithContext(ctx).Order("tag").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRelationshipRepo) Seed(ctx context.Context, rows []*TagRelationship) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tag"}},
			DoUpdates: clause.AssignmentColumns([]string{"classification", "mastery_threshold", "min_attempts_required", "difficulty_distribution", "related_tags"}),
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed tag relationships: %w", err)
	}
	return nil
}
