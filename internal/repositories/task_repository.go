package repository

import (
	"context"
	"fmt"
	"time"

	"todo-service.com/todo-service/internal/constants"
	"todo-service.com/todo-service/internal/models"
	"todo-service.com/todo-service/internal/search"
	"todo-service.com/todo-service/pkg/resources"
)

type TaskRepository struct {
	store      *Store
	categories *CategoryRepository
}

func NewTaskRepository(store *Store) *TaskRepository {
	return &TaskRepository{
		store:      store,
		categories: NewCategoryRepository(store),
	}
}

func (r *TaskRepository) FindCurrentByID(ctx context.Context, id string, opts ...LookupOption) (*models.Task, error) {
	var t models.Task
	if err := r.store.findCurrent(ctx, &t, search.TaskSchema, id, opts); err != nil {
		return nil, notFound(err, "Task", id)
	}
	if err := r.attachCategories(ctx, []*models.Task{&t}); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) ListCurrent(ctx context.Context, filter search.Expr, req resources.PageRequest) ([]models.Task, int64, error) {
	tasks, total, err := listCurrent[models.Task](ctx, r.store, search.TaskSchema, filter, req)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachCategories(ctx, pointers(tasks)); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// ListCurrentByCategory returns the current, non-deleted tasks filed under
// the category with the given logical id.
func (r *TaskRepository) ListCurrentByCategory(ctx context.Context, categoryID string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.store.conn(ctx).
		Where("category_id = ? AND valid_to = ? AND status <> ?", categoryID, models.Infinite, constants.TaskDeleted).
		Order("valid_from asc").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of category: %w", err)
	}
	if err := r.attachCategories(ctx, pointers(tasks)); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	if t.Status == "" {
		t.Status = constants.TaskCreated
	}
	return open(ctx, r.store, t)
}

func (r *TaskRepository) CloseCurrentAndInsert(ctx context.Context, existing, replacement *models.Task) error {
	return closeAndInsert(ctx, r.store, existing, replacement)
}

func (r *TaskRepository) History(ctx context.Context, id string) ([]models.Task, error) {
	versions, err := history[models.Task](ctx, r.store, id)
	if err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, pointers(versions)); err != nil {
		return nil, err
	}
	return versions, nil
}

// FindAsOf returns the version of the task in effect at at, filed under the
// version of its category that was in effect at the same instant.
func (r *TaskRepository) FindAsOf(ctx context.Context, id string, at time.Time) (*models.Task, error) {
	t, err := asOf[models.Task](ctx, r.store, id, at)
	if err != nil {
		return nil, err
	}
	if t.CategoryID == nil {
		return t, nil
	}
	c, err := r.categories.FindAsOf(ctx, *t.CategoryID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to load task category: %w", err)
	}
	t.Category = c
	return t, nil
}

// attachCategories resolves each task's (category id, validTo) reference to
// the category row it names.
func (r *TaskRepository) attachCategories(ctx context.Context, tasks []*models.Task) error {
	ids := make([]string, 0, len(tasks))
	seen := map[string]bool{}
	for _, t := range tasks {
		if t.CategoryID == nil || seen[*t.CategoryID] {
			continue
		}
		seen[*t.CategoryID] = true
		ids = append(ids, *t.CategoryID)
	}
	if len(ids) == 0 {
		return nil
	}

	var versions []models.Category
	if err := r.store.conn(ctx).Where("id IN ?", ids).Find(&versions).Error; err != nil {
		return fmt.Errorf("failed to load task categories: %w", err)
	}

	for _, t := range tasks {
		if t.CategoryID == nil || t.CategoryValidTo == nil {
			continue
		}
		for i := range versions {
			c := versions[i]
			if c.ID == *t.CategoryID && c.ValidTo.Equal(*t.CategoryValidTo) {
				t.Category = &c
				break
			}
		}
	}
	return nil
}

func pointers[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
