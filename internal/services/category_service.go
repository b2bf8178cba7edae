package services

import (
	"context"
	"errors"
	"log/slog"

	"todo-service.com/todo-service/internal/constants"
	apperrors "todo-service.com/todo-service/internal/errors"
	"todo-service.com/todo-service/internal/models"
	repository "todo-service.com/todo-service/internal/repositories"
	"todo-service.com/todo-service/internal/search"
	"todo-service.com/todo-service/internal/validation"
	"todo-service.com/todo-service/pkg/resources"
)

const categoryEntity = "Category"

type CategoryService struct {
	store       *repository.Store
	categories  *repository.CategoryRepository
	tasks       *repository.TaskRepository
	taskService *TaskService
	paging      Paging
	logger      *slog.Logger
}

func NewCategoryService(
	store *repository.Store,
	categories *repository.CategoryRepository,
	tasks *repository.TaskRepository,
	taskService *TaskService,
	paging Paging,
	logger *slog.Logger,
) *CategoryService {
	return &CategoryService{
		store:       store,
		categories:  categories,
		tasks:       tasks,
		taskService: taskService,
		paging:      paging,
		logger:      logger.With("component", "category_service"),
	}
}

// ListCategories pages through current categories. Tasks are not loaded.
func (s *CategoryService) ListCategories(ctx context.Context, req resources.PageRequest, criteria []resources.Criteria) (resources.Page[resources.CategoryResource], error) {
	s.logger.DebugContext(ctx, "listing categories", "page", req.Page, "size", req.Size, "criteria", len(criteria))

	filter, err := search.CategorySchema.Parse(criteria)
	if err != nil {
		return resources.Page[resources.CategoryResource]{}, err
	}
	req = s.paging.normalize(req, "name")

	categories, total, err := s.categories.ListCurrent(ctx, filter, req)
	if err != nil {
		return resources.Page[resources.CategoryResource]{}, err
	}

	s.logger.InfoContext(ctx, "categories listed", "total", total)
	page := resources.NewPage(categories, total, req)
	return resources.MapPage(page, func(c models.Category) resources.CategoryResource {
		return toCategoryResource(c, nil)
	}), nil
}

// GetCategory returns the current category called name with its current tasks.
func (s *CategoryService) GetCategory(ctx context.Context, name string) (resources.CategoryResource, error) {
	c, err := s.categories.FindCurrentByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "category not found", "name", name)
		}
		return resources.CategoryResource{}, err
	}

	tasks, err := s.tasks.ListCurrentByCategory(ctx, c.ID)
	if err != nil {
		return resources.CategoryResource{}, err
	}
	out := make([]resources.TaskResource, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, s.taskService.ToResource(ctx, t))
	}
	return toCategoryResource(*c, out), nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, in resources.CategoryResource) (resources.CategoryResource, error) {
	created := models.Category{
		Name:        in.Name,
		Description: in.Description,
		Status:      constants.CategoryActive,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		holder, err := s.categories.FindCurrentByName(ctx, in.Name)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if err := validation.EntityAlreadyExists(categoryEntity, "name", in.Name, holder != nil); err != nil {
			return err
		}

		v := validation.New()
		v.FieldNotEmpty(categoryEntity, "name", in.Name)
		if err := v.Err(); err != nil {
			s.logger.WarnContext(ctx, "category rejected", "errors", v.Messages())
			return err
		}
		return s.categories.Create(ctx, &created)
	})
	if err != nil {
		return resources.CategoryResource{}, err
	}

	s.logger.InfoContext(ctx, "category created", "id", created.ID, "name", created.Name)
	return toCategoryResource(created, nil), nil
}

// UpdateDetails renames or redescribes the category with in.ID.
func (s *CategoryService) UpdateDetails(ctx context.Context, in resources.CategoryResource) (resources.CategoryResource, error) {
	var updated models.Category
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.currentCategory(ctx, in.ID)
		if err != nil {
			return err
		}

		holderID := ""
		holder, err := s.categories.FindCurrentByName(ctx, in.Name)
		switch {
		case err == nil:
			holderID = holder.ID
		case !errors.Is(err, apperrors.ErrNotFound):
			return err
		}

		v := validation.New()
		v.NameUniqueAcrossIDs(in.Name, existing.ID, holderID)
		v.FieldNotEmpty(categoryEntity, "name", in.Name)
		if err := v.Err(); err != nil {
			s.logger.WarnContext(ctx, "category update rejected", "id", in.ID, "errors", v.Messages())
			return err
		}

		updated = existing.Revise(existing.Versioned)
		updated.Name = in.Name
		updated.Description = in.Description
		return s.categories.CloseCurrentAndInsert(ctx, existing, &updated)
	})
	if err != nil {
		return resources.CategoryResource{}, err
	}

	s.logger.InfoContext(ctx, "category updated", "id", updated.ID, "version", updated.Version)
	return toCategoryResource(updated, nil), nil
}

// DeleteCategory deletes every current task of the category, then the
// category itself, in one transaction.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.currentCategory(ctx, id)
		if err != nil {
			return err
		}

		tasks, err := s.tasks.ListCurrentByCategory(ctx, id)
		if err != nil {
			return err
		}
		for i := range tasks {
			s.logger.DebugContext(ctx, "deleting task of category", "task_id", tasks[i].ID, "category_id", id)
			if _, err := s.taskService.delete(ctx, &tasks[i]); err != nil {
				return err
			}
		}

		tombstone := existing.Revise(existing.Versioned)
		tombstone.Status = constants.CategoryDeleted
		return s.categories.CloseCurrentAndInsert(ctx, existing, &tombstone)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "category deleted", "id", id)
	return nil
}

func (s *CategoryService) History(ctx context.Context, id string) ([]resources.VersionResource, error) {
	versions, err := s.categories.History(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]resources.VersionResource, 0, len(versions))
	for _, c := range versions {
		out = append(out, resources.VersionResource{
			ID:        c.ID,
			Version:   c.Version,
			ValidFrom: c.ValidFrom,
			ValidTo:   c.ValidTo,
			Current:   c.Current(),
			Status:    string(c.Status),
			Name:      c.Name,
		})
	}
	return out, nil
}

func (s *CategoryService) currentCategory(ctx context.Context, id string) (*models.Category, error) {
	c, err := s.categories.FindCurrentByID(ctx, id)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if err := validation.EntityMustExist(categoryEntity, id, c != nil); err != nil {
		return nil, err
	}
	return c, nil
}

func toCategoryResource(c models.Category, tasks []resources.TaskResource) resources.CategoryResource {
	if tasks == nil {
		tasks = []resources.TaskResource{}
	}
	return resources.CategoryResource{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Tasks:       tasks,
	}
}
