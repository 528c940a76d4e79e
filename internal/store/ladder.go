package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
)

// LadderRepo is the pattern_ladders collection, one row per tag.
type LadderRepo interface {
	Get(ctx context.Context, tag string) (*PatternLadder, error)
	Put(ctx context.Context, l *PatternLadder) error
	GetAll(ctx context.Context) ([]*PatternLadder, error)
}

type ladderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *ladderRepo) Get(ctx context.Context, tag string) (*PatternLadder, error) {
	var l PatternLadder
	if err := r.db.WithContext(ctx).First(&l, "tag = ?", tag).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (r *ladderRepo) Put(ctx context.Context, l *PatternLadder) error {
	if err := r.db.WithContext(ctx).Save(l).Error; err != nil {
		return fmt.Errorf("put ladder %s: %w", l.Tag, err)
	}
	return nil
}

func (r *ladderRepo) GetAll(ctx context.Context) ([]*PatternLadder, error) {
	var out []*PatternLadder
	if err := r.db.WithContext(ctx).Order("tag").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
