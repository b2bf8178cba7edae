package repository

import (
	"context"
	"errors"
	"time"

	"todo-service.com/todo-service/internal/constants"
	apperrors "todo-service.com/todo-service/internal/errors"
	"todo-service.com/todo-service/internal/models"
	"todo-service.com/todo-service/internal/search"
	"todo-service.com/todo-service/pkg/resources"
)

type CategoryRepository struct {
	store *Store
}

func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) FindCurrentByID(ctx context.Context, id string, opts ...LookupOption) (*models.Category, error) {
	var c models.Category
	if err := r.store.findCurrent(ctx, &c, search.CategorySchema, id, opts); err != nil {
		return nil, notFound(err, "Category", id)
	}
	return &c, nil
}

// FindCurrentByName looks up the current, non-deleted category holding name.
func (r *CategoryRepository) FindCurrentByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := r.store.conn(ctx).
		Where("name = ? AND valid_to = ? AND status <> ?", name, models.Infinite, constants.CategoryDeleted).
		Take(&c).Error
	if err != nil {
		return nil, notFound(err, "Category", name)
	}
	return &c, nil
}

func (r *CategoryRepository) ListCurrent(ctx context.Context, filter search.Expr, req resources.PageRequest) ([]models.Category, int64, error) {
	return listCurrent[models.Category](ctx, r.store, search.CategorySchema, filter, req)
}

// Create inserts c as a new ACTIVE category. The name must not be held by
// another current category.
func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return r.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.ensureNameFree(ctx, c.Name, ""); err != nil {
			return err
		}
		if c.Status == "" {
			c.Status = constants.CategoryActive
		}
		return open(ctx, r.store, c)
	})
}

// CloseCurrentAndInsert retires existing and stores replacement as the new
// current version of the same category.
func (r *CategoryRepository) CloseCurrentAndInsert(ctx context.Context, existing, replacement *models.Category) error {
	return r.store.WithinTx(ctx, func(ctx context.Context) error {
		if !replacement.Deleted() {
			if err := r.ensureNameFree(ctx, replacement.Name, existing.ID); err != nil {
				return err
			}
		}
		return closeAndInsert(ctx, r.store, existing, replacement)
	})
}

func (r *CategoryRepository) History(ctx context.Context, id string) ([]models.Category, error) {
	return history[models.Category](ctx, r.store, id)
}

func (r *CategoryRepository) FindAsOf(ctx context.Context, id string, at time.Time) (*models.Category, error) {
	return asOf[models.Category](ctx, r.store, id, at)
}

func (r *CategoryRepository) ensureNameFree(ctx context.Context, name, ownID string) error {
	holder, err := r.FindCurrentByName(ctx, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if holder.ID == ownID {
		return nil
	}
	return apperrors.Conflict("Category with name: %s already exists", name)
}

