package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
)

// ProblemRepo is the problems collection.
type ProblemRepo interface {
	Get(ctx context.Context, id string) (*Problem, error)
	Put(ctx context.Context, p *Problem) error
	// Upsert refreshes catalog fields only, preserving learner review
	// state on rows that already exist.
	Upsert(ctx context.Context, p *Problem) error
	GetAll(ctx context.Context) ([]*Problem, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Problem, error)
	// ByTag matches on the JSON tags column.
	ByTag(ctx context.Context, tag string) ([]*Problem, error)
	// AttemptedBefore returns problems whose last attempt is on or before
	// cutoff. Problems never attempted are excluded.
	AttemptedBefore(ctx context.Context, cutoff time.Time) ([]*Problem, error)
	// AtOrAboveBox returns problems with box_level >= level.
	AtOrAboveBox(ctx context.Context, level int) ([]*Problem, error)
	Count(ctx context.Context) (int64, error)
}

type problemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *problemRepo) Get(ctx context.Context, id string) (*Problem, error) {
	var p Problem
	if err := r.db.WithContext(ctx).First(&p, "problem_id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *problemRepo) Put(ctx context.Context, p *Problem) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("put problem %s: %w", p.ProblemID, err)
	}
	return nil
}

func (r *problemRepo) Upsert(ctx context.Context, p *Problem) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "problem_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"leetcode_id", "title", "difficulty", "tags", "updated_at"}),
		}).
		Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert problem %s: %w", p.ProblemID, err)
	}
	return nil
}

func (r *problemRepo) GetAll(ctx context.Context) ([]*Problem, error) {
	var out []*Problem
	if err := r.db.WithContext(ctx).Order("problem_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRepo) GetByIDs(ctx context.Context, ids []string) ([]*Problem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*Problem
	if err := r.db.WithContext(ctx).Where("problem_id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRepo) ByTag(ctx context.Context, tag string) ([]*Problem, error) {
	// Tags are stored as a JSON array; EXISTS over json_each matches
	// whole elements, not substrings.
	var out []*Problem
	err := r.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM json_each(problems.tags) WHERE json_each.value = ?)", tag).
		Order("problem_id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRepo) AttemptedBefore(ctx context.Context, cutoff time.Time) ([]*Problem, error) {
	var out []*Problem
	err := r.db.WithContext(ctx).
		Where("last_attempt_date IS NOT NULL AND last_attempt_date <= ?", cutoff).
		Order("problem_id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRepo) AtOrAboveBox(ctx context.Context, level int) ([]*Problem, error) {
	var out []*Problem
	err := r.db.WithContext(ctx).
		Where("box_level >= ?", level).
		Order("box_level DESC, problem_id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Problem{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
