package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/smithrashell/CodeMaster-sub000/internal/logger"
)

// difficultyStateID keys the singleton promotion record.
const difficultyStateID = 1

// DifficultyStateRepo is the singleton difficulty_state record.
type DifficultyStateRepo interface {
	// Get returns the record, creating the Easy-cap default on first use.
	Get(ctx context.Context) (*DifficultyState, error)
	Put(ctx context.Context, d *DifficultyState) error
}

type difficultyStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *difficultyStateRepo) Get(ctx context.Context) (*DifficultyState, error) {
	var d DifficultyState
	err := r.db.WithContext(ctx).First(&d, "id = ?", difficultyStateID).Error
	if err == nil {
		return &d, nil
	}
	if notFound(err) != ErrNotFound {
		return nil, err
	}
	d = DifficultyState{
		ID:                   difficultyStateID,
		CurrentDifficultyCap: DifficultyEasy,
	}
	if err := r.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, fmt.Errorf("init difficulty state: %w", err)
	}
	return &d, nil
}

func (r *difficultyStateRepo) Put(ctx context.Context, d *DifficultyState) error {
	d.ID = difficultyStateID
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("put difficulty state: %w", err)
	}
	return nil
}

// SessionRepo is the sessions collection.
type SessionRepo interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	// Active returns the active session of the given type, or ErrNotFound.
	Active(ctx context.Context, sessionType string) (*Session, error)
	ByStatus(ctx context.Context, status string) ([]*Session, error)
	GetAll(ctx context.Context) ([]*Session, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).First(&s, "session_id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *sessionRepo) Put(ctx context.Context, s *Session) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return fmt.Errorf("put session %s: %w", s.SessionID, err)
	}
	return nil
}

func (r *sessionRepo) Active(ctx context.Context, sessionType string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("session_type = ? AND status = ?", sessionType, SessionStatusActive).
		Order("started_at DESC").
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *sessionRepo) ByStatus(ctx context.Context, status string) ([]*Session, error) {
	var out []*Session
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("started_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) GetAll(ctx context.Context) ([]*Session, error) {
	var out []*Session
	if err := r.db.WithContext(ctx).Order("started_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RunTimestampRepo records per-job last-run times. The decay service's
// daily cooldown lives here rather than in ambient globals.
type RunTimestampRepo interface {
	// Get returns the zero time when the job has never run.
	Get(ctx context.Context, name string) (time.Time, error)
	Put(ctx context.Context, name string, at time.Time) error
	GetAll(ctx context.Context) ([]*RunTimestamp, error)
}

type runTimestampRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *runTimestampRepo) Get(ctx context.Context, name string) (time.Time, error) {
	var t RunTimestamp
	err := r.db.WithContext(ctx).First(&t, "name = ?", name).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return t.LastRun, nil
}

func (r *runTimestampRepo) Put(ctx context.Context, name string, at time.Time) error {
	t := RunTimestamp{Name: name, LastRun: at}
	if err := r.db.WithContext(ctx).Save(&t).Error; err != nil {
		return fmt.Errorf("put run timestamp %s: %w", name, err)
	}
	return nil
}

func (r *runTimestampRepo) GetAll(ctx context.Context) ([]*RunTimestamp, error) {
	var out []*RunTimestamp
	if err := r.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SettingRepo is the key-value preferences collection.
type SettingRepo interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Put(ctx context.Context, s *Setting) error
	GetAll(ctx context.Context) ([]*Setting, error)
}

type settingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func (r *settingRepo) Get(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	if err := r.db.WithContext(ctx).First(&s, "key = ?", key).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *settingRepo) Put(ctx context.Context, s *Setting) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return fmt.Errorf("put setting %s: %w", s.Key, err)
	}
	return nil
}

func (r *settingRepo) GetAll(ctx context.Context) ([]*Setting, error) {
	var out []*Setting
	if err := r.db.WithContext(ctx).Order("key").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
