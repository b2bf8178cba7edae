package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	apperrors "todo-service.com/todo-service/internal/errors"
)

type txKey struct{}

// txScope is the transaction bound to a context together with the steps to
// run once the outermost transaction commits.
type txScope struct {
	tx       *gorm.DB
	onCommit []func()
}

// Store is the shared handle every versioned repository writes through. It
// owns the clock so that one logical write stamps consistent timestamps.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the store clock. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = func() time.Time { return now().UTC() }
	return s
}

func (s *Store) Now() time.Time {
	return s.now()
}

// WithinTx runs fn inside one transaction. Nested calls join the outer
// transaction, so a cascade of close-and-insert steps commits or aborts as a
// whole. A cancelled ctx aborts the transaction. Losing the sqlite write lock
// is reported as ErrConcurrentUpdate.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txScope); ok {
		return fn(ctx)
	}

	scope := &txScope{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope.tx = tx
		return fn(context.WithValue(ctx, txKey{}, scope))
	})
	if err != nil {
		if isBusy(err) {
			return apperrors.ErrConcurrentUpdate
		}
		return err
	}
	for _, step := range scope.onCommit {
		step()
	}
	return nil
}

// afterCommit defers step until the outermost transaction around ctx has
// committed. Outside a transaction it runs immediately.
func (s *Store) afterCommit(ctx context.Context, step func()) {
	if scope, ok := ctx.Value(txKey{}).(*txScope); ok {
		scope.onCommit = append(scope.onCommit, step)
		return
	}
	step()
}

// conn returns the transaction bound to ctx, or the plain connection.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if scope, ok := ctx.Value(txKey{}).(*txScope); ok {
		return scope.tx
	}
	return s.db.WithContext(ctx)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isBusy reports whether err is sqlite refusing a lock held by another
// connection.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func notFound(err error, entity, key string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("%s %q not exists", entity, key)
	}
	return fmt.Errorf("failed to find %s: %w", strings.ToLower(entity), err)
}
