package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
)

// ProblemRelationshipRepo is the append-log edge collection. Ordering is
// insertion order (autoincrement id) wherever it matters.
type ProblemRelationshipRepo interface {
	Append(ctx context.Context, e *ProblemRelationship) error
	Update(ctx context.Context, e *ProblemRelationship) error
	// FirstMatch returns the oldest edge with exactly this direction, or
	// ErrNotFound.
	FirstMatch(ctx context.Context, id1, id2 string) (*ProblemRelationship, error)
	// ForProblem returns every edge touching the problem at either
	// endpoint, oldest first.
	ForProblem(ctx context.Context, id string) ([]*ProblemRelationship, error)
	// From returns the outgoing edges of a problem, oldest first.
	From(ctx context.Context, id string) ([]*ProblemRelationship, error)
	GetAll(ctx context.Context) ([]*ProblemRelationship, error)
	// Replace swaps the whole edge set in one shot; used by bulk rebuild.
	Replace(ctx context.Context, edges []*ProblemRelationship) error
}

type problemRelationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *problemRelationshipRepo) Append(ctx context.Context, e *ProblemRelationship) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("append relationship %s->%s: %w", e.ProblemID1, e.ProblemID2, err)
	}
	return nil
}

func (r *problemRelationshipRepo) Update(ctx context.Context, e *ProblemRelationship) error {
	if err := r.db.WithContext(ctx).Save(e).Error; err != nil {
		return fmt.Errorf("update relationship %d: %w", e.ID, err)
	}
	return nil
}

func (r *problemRelationshipRepo) FirstMatch(ctx context.Context, id1, id2 string) (*ProblemRelationship, error) {
	var e ProblemRelationship
	err := r.db.WithContext(ctx).
		Where("problem_id_1 = ? AND problem_id_2 = ?", id1, id2).
		Order("id").
		First(&e).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *problemRelationshipRepo) ForProblem(ctx context.Context, id string) ([]*ProblemRelationship, error) {
	var out []*ProblemRelationship
	err := r.db.WithContext(ctx).
		Where("problem_id_1 = ? OR problem_id_2 = ?", id, id).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRelationshipRepo) From(ctx context.Context, id string) ([]*ProblemRelationship, error) {
	var out []*ProblemRelationship
	err := r.db.WithContext(ctx).
		Where("problem_id_1 = ?", id).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRelationshipRepo) GetAll(ctx context.Context) ([]*ProblemRelationship, error) {
	var out []*ProblemRelationship
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRelationshipRepo) Replace(ctx context.Context, edges []*ProblemRelationship) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ProblemRelationship{}).Error; err != nil {
			return fmt.Errorf("clear relationships: %w", err)
		}
		for _, e := range edges {
			e.ID = 0
			if err := tx.Create(e).Error; err != nil {
				return fmt.Errorf("replace relationship %s->%s: %w", e.ProblemID1, e.ProblemID2, err)
			}
		}
		return nil
	})
}
