package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
)

// AttemptRepo is the append-only attempts collection.
type AttemptRepo interface {
	Append(ctx context.Context, a *Attempt) error
	BySession(ctx context.Context, sessionID string) ([]*Attempt, error)
	ByProblem(ctx context.Context, problemID string) ([]*Attempt, error)
	ByDateRange(ctx context.Context, from, to time.Time) ([]*Attempt, error)
	// Recent returns the n most recent attempts, newest first.
	Recent(ctx context.Context, n int) ([]*Attempt, error)
	// LastDate returns the most recent attempt date across all problems,
	// or ErrNotFound when nothing has ever been attempted.
	LastDate(ctx context.Context) (time.Time, error)
	GetAll(ctx context.Context) ([]*Attempt, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *attemptRepo) Append(ctx context.Context, a *Attempt) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("append attempt %s: %w", a.AttemptID, err)
	}
	return nil
}

func (r *attemptRepo) BySession(ctx context.Context, sessionID string) ([]*Attempt, error) {
	var out []*Attempt
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("attempt_date").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) ByProblem(ctx context.Context, problemID string) ([]*Attempt, error) {
	var out []*Attempt
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("attempt_date").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) ByDateRange(ctx context.Context, from, to time.Time) ([]*Attempt, error) {
	var out []*Attempt
	err := r.db.WithContext(ctx).
		Where("attempt_date >= ? AND attempt_date < ?", from, to).
		Order("attempt_date").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) Recent(ctx context.Context, n int) ([]*Attempt, error) {
	if n <= 0 {
		return nil, nil
	}
	var out []*Attempt
	err := r.db.WithContext(ctx).
		Order("attempt_date DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) LastDate(ctx context.Context) (time.Time, error) {
	var a Attempt
	err := r.db.WithContext(ctx).Order("attempt_date DESC").First(&a).Error
	if err != nil {
		return time.Time{}, notFound(err)
	}
	return a.AttemptDate, nil
}

func (r *attemptRepo) GetAll(ctx context.Context) ([]*Attempt, error) {
	var out []*Attempt
	if err := r.db.WithContext(ctx).Order("attempt_date").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
