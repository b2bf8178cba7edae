package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "todo-service.com/todo-service/internal/errors"
	"todo-service.com/todo-service/internal/models"
	"todo-service.com/todo-service/internal/search"
	"todo-service.com/todo-service/pkg/resources"
)

type entity interface {
	TableName() string
	EntityName() string
}

// row is a pointer to a stored versioned entity.
type row[T entity] interface {
	*T
	Meta() *models.Versioned
}

func entityName[T entity]() string {
	var zero T
	return zero.EntityName()
}

func (s *Store) findCurrent(ctx context.Context, dest any, schema *search.Schema, id string, opts []LookupOption) error {
	q := s.conn(ctx).Where("id = ? AND valid_to = ?", id, models.Infinite)
	if !applyLookup(opts).includeDeleted {
		q = q.Where("status <> ?", schema.DeletedStatus)
	}
	return q.Take(dest).Error
}

// open stamps a brand-new entity and inserts it as its only, current row.
func open[T entity, P row[T]](ctx context.Context, s *Store, e P) error {
	meta := e.Meta()
	id := meta.ID
	if id == "" {
		id = uuid.NewString()
	}
	*meta = models.Opened(id, s.now())

	if err := s.conn(ctx).Create(e).Error; err != nil {
		if isBusy(err) {
			return apperrors.ErrConcurrentUpdate
		}
		if isDuplicate(err) {
			return apperrors.Conflict("%s with id: %s already exists", entityName[T](), id)
		}
		return fmt.Errorf("failed to create %s: %w", entityName[T](), err)
	}
	return nil
}

// closeAndInsert closes existing at now and inserts replacement as the next
// version, in one transaction. The close only matches the exact version the
// caller read, so a second writer racing on the same row gets
// ErrConcurrentUpdate instead of overwriting the first. existing is marked
// closed only once the outermost transaction commits.
func closeAndInsert[T entity, P row[T]](ctx context.Context, s *Store, existing, replacement P) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		tx := s.conn(ctx)
		now := s.now()
		meta := existing.Meta()

		res := tx.Model(P(new(T))).
			Where("id = ? AND valid_to = ? AND version = ?", meta.ID, models.Infinite, meta.Version).
			Update("valid_to", now)
		if res.Error != nil {
			return fmt.Errorf("failed to close %s version: %w", entityName[T](), res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConcurrentUpdate
		}

		*replacement.Meta() = meta.Successor(now)
		if err := tx.Create(replacement).Error; err != nil {
			if isDuplicate(err) {
				return apperrors.ErrConcurrentUpdate
			}
			return fmt.Errorf("failed to insert %s version: %w", entityName[T](), err)
		}

		s.afterCommit(ctx, func() { meta.ValidTo = now })
		return nil
	})
}

// listCurrent pages through current, non-deleted rows matching dynamic.
func listCurrent[T entity](ctx context.Context, s *Store, schema *search.Schema, dynamic search.Expr, req resources.PageRequest) ([]T, int64, error) {
	sortCol, err := schema.SortColumn(req.SortBy)
	if err != nil {
		return nil, 0, err
	}

	filter := schema.Compile(search.Conj(schema.Current(), dynamic))
	base := s.conn(ctx).Model(new(T)).Scopes(filter.Scope())

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", schema.Table, err)
	}

	var items []T
	err = base.Session(&gorm.Session{}).
		Select(schema.Table + ".*").
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortCol, Raw: true}, Desc: !req.Ascending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: schema.Table + ".id", Raw: true}}).
		Offset(req.Page * req.Size).
		Limit(req.Size).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", schema.Table, err)
	}
	return items, total, nil
}

// history returns every version of id, newest first.
func history[T entity](ctx context.Context, s *Store, id string) ([]T, error) {
	var versions []T
	err := s.conn(ctx).Where("id = ?", id).Order("version desc").Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s history: %w", entityName[T](), err)
	}
	if len(versions) == 0 {
		return nil, apperrors.NotFound("%s %q not exists", entityName[T](), id)
	}
	return versions, nil
}

// asOf returns the version of id that was in effect at t.
func asOf[T entity](ctx context.Context, s *Store, id string, at time.Time) (*T, error) {
	var v T
	err := s.conn(ctx).
		Where("id = ? AND valid_from <= ? AND valid_to > ?", id, at.UTC(), at.UTC()).
		Take(&v).Error
	if err != nil {
		return nil, notFound(err, entityName[T](), id)
	}
	return &v, nil
}
