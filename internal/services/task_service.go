package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"todo-service.com/todo-service/internal/constants"
	apperrors "todo-service.com/todo-service/internal/errors"
	"todo-service.com/todo-service/internal/models"
	"todo-service.com/todo-service/internal/profiles"
	repository "todo-service.com/todo-service/internal/repositories"
	"todo-service.com/todo-service/internal/search"
	"todo-service.com/todo-service/internal/validation"
	"todo-service.com/todo-service/pkg/resources"
)

const taskEntity = "Task"

type TaskService struct {
	store      *repository.Store
	tasks      *repository.TaskRepository
	categories *repository.CategoryRepository
	profiles   profiles.Directory
	paging     Paging
	logger     *slog.Logger
}

func NewTaskService(
	store *repository.Store,
	tasks *repository.TaskRepository,
	categories *repository.CategoryRepository,
	directory profiles.Directory,
	paging Paging,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		store:      store,
		tasks:      tasks,
		categories: categories,
		profiles:   directory,
		paging:     paging,
		logger:     logger.With("component", "task_service"),
	}
}

func (s *TaskService) ListTasks(ctx context.Context, req resources.PageRequest, criteria []resources.Criteria) (resources.Page[resources.TaskResource], error) {
	s.logger.DebugContext(ctx, "listing tasks", "page", req.Page, "size", req.Size, "criteria", len(criteria))

	filter, err := search.TaskSchema.Parse(criteria)
	if err != nil {
		return resources.Page[resources.TaskResource]{}, err
	}
	req = s.paging.normalize(req, "deadline")

	tasks, total, err := s.tasks.ListCurrent(ctx, filter, req)
	if err != nil {
		return resources.Page[resources.TaskResource]{}, err
	}

	page := resources.NewPage(tasks, total, req)
	return resources.MapPage(page, func(t models.Task) resources.TaskResource {
		return s.ToResource(ctx, t)
	}), nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (resources.TaskResource, error) {
	t, err := s.tasks.FindCurrentByID(ctx, id)
	if err != nil {
		return resources.TaskResource{}, err
	}
	return s.ToResource(ctx, *t), nil
}

// GetTaskAsOf returns the task as it was at the given instant.
func (s *TaskService) GetTaskAsOf(ctx context.Context, id string, at time.Time) (resources.TaskResource, error) {
	t, err := s.tasks.FindAsOf(ctx, id, at)
	if err != nil {
		return resources.TaskResource{}, err
	}
	return s.ToResource(ctx, *t), nil
}

func (s *TaskService) CreateTask(ctx context.Context, in resources.TaskResource) (resources.TaskResource, error) {
	var created models.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if in.ID != "" {
			_, err := s.tasks.FindCurrentByID(ctx, in.ID, repository.IncludeDeleted())
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if err := validation.EntityAlreadyExists(taskEntity, "id", in.ID, err == nil); err != nil {
				return err
			}
		}

		var category *models.Category
		if strings.TrimSpace(in.CategoryName) != "" {
			c, err := s.categories.FindCurrentByName(ctx, in.CategoryName)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if err := validation.EntityMustExist("Category", in.CategoryName, c != nil); err != nil {
				return err
			}
			category = c
		}

		v := validation.New()
		v.FieldNotEmpty(taskEntity, "name", in.Name)
		v.FieldNotEmpty(taskEntity, "categoryName", in.CategoryName)
		v.FieldNotEmpty(taskEntity, "reportedBy", in.ReportedBy)
		v.DeadlineNotInPast(taskEntity, "Deadline", in.Deadline, s.store.Now())
		if in.Priority != "" {
			v.OneOf(taskEntity, "priority", in.Priority, taskPriorities())
		}
		if err := v.Err(); err != nil {
			s.logger.WarnContext(ctx, "task rejected", "errors", v.Messages())
			return err
		}

		created = models.Task{
			Name:        in.Name,
			Description: in.Description,
			Deadline:    in.Deadline.UTC(),
			Status:      constants.TaskCreated,
			Priority:    priorityOrDefault(in.Priority),
			AssignedTo:  in.AssignedTo,
			ReportedBy:  in.ReportedBy,
		}
		created.ID = in.ID
		created.AttachCategory(category)
		return s.tasks.Create(ctx, &created)
	})
	if err != nil {
		return resources.TaskResource{}, err
	}

	s.logger.InfoContext(ctx, "task created", "id", created.ID, "category", created.CategoryName())
	return s.ToResource(ctx, created), nil
}

// UpdateDetails writes a new version carrying the incoming name, description,
// deadline, priority and assignee. Category and reporter are fixed at
// creation; an empty incoming value for either means unchanged.
func (s *TaskService) UpdateDetails(ctx context.Context, in resources.TaskResource) (resources.TaskResource, error) {
	var updated models.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.currentTask(ctx, in.ID)
		if err != nil {
			return err
		}

		v := validation.New()
		if in.CategoryName != "" {
			v.FieldUnchanged("categoryName", existing.CategoryName(), in.CategoryName)
		}
		if in.ReportedBy != "" {
			v.FieldUnchanged("reportedBy", existing.ReportedBy, in.ReportedBy)
		}
		v.FieldNotEmpty(taskEntity, "name", in.Name)
		v.DeadlineNotInPast(taskEntity, "Deadline", in.Deadline, s.store.Now())
		if in.Priority != "" {
			v.OneOf(taskEntity, "priority", in.Priority, taskPriorities())
		}
		if err := v.Err(); err != nil {
			s.logger.WarnContext(ctx, "task update rejected", "id", in.ID, "errors", v.Messages())
			return err
		}

		updated = existing.Revise(existing.Versioned)
		updated.Name = in.Name
		updated.Description = in.Description
		updated.Deadline = in.Deadline.UTC()
		if in.Priority != "" {
			updated.Priority = constants.TaskPriority(in.Priority)
		}
		if in.AssignedTo != "" {
			updated.AssignedTo = in.AssignedTo
		}
		if err := s.reattachCurrentCategory(ctx, &updated); err != nil {
			return err
		}
		return s.tasks.CloseCurrentAndInsert(ctx, existing, &updated)
	})
	if err != nil {
		return resources.TaskResource{}, err
	}

	s.logger.InfoContext(ctx, "task details updated", "id", updated.ID, "version", updated.Version)
	return s.ToResource(ctx, updated), nil
}

// UpdateStatus moves the task to status. Any transition between live states
// is allowed; DELETED goes through DeleteTask and is terminal.
func (s *TaskService) UpdateStatus(ctx context.Context, id string, status constants.TaskStatus) (resources.TaskResource, error) {
	if !status.Valid() {
		v := validation.New()
		v.OneOf(taskEntity, "status", string(status), taskStatuses())
		return resources.TaskResource{}, v.Err()
	}
	if status == constants.TaskDeleted {
		return s.DeleteTask(ctx, id)
	}

	var updated models.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.currentTask(ctx, id)
		if err != nil {
			return err
		}
		updated = existing.Revise(existing.Versioned)
		updated.Status = status
		if err := s.reattachCurrentCategory(ctx, &updated); err != nil {
			return err
		}
		return s.tasks.CloseCurrentAndInsert(ctx, existing, &updated)
	})
	if err != nil {
		return resources.TaskResource{}, err
	}

	s.logger.InfoContext(ctx, "task status updated", "id", id, "status", status)
	return s.ToResource(ctx, updated), nil
}

// UpdateCategory files the task under the current category named
// categoryName.
func (s *TaskService) UpdateCategory(ctx context.Context, id, categoryName string) (resources.TaskResource, error) {
	v := validation.New()
	v.FieldNotEmpty(taskEntity, "categoryName", categoryName)
	if err := v.Err(); err != nil {
		return resources.TaskResource{}, err
	}

	var updated models.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.currentTask(ctx, id)
		if err != nil {
			return err
		}
		category, err := s.categories.FindCurrentByName(ctx, categoryName)
		if err != nil {
			return err
		}
		updated = existing.Revise(existing.Versioned)
		updated.AttachCategory(category)
		return s.tasks.CloseCurrentAndInsert(ctx, existing, &updated)
	})
	if err != nil {
		return resources.TaskResource{}, err
	}

	s.logger.InfoContext(ctx, "task category updated", "id", id, "category", categoryName)
	return s.ToResource(ctx, updated), nil
}

// DeleteTask closes the current version and writes a DELETED tombstone that
// no longer references a category.
func (s *TaskService) DeleteTask(ctx context.Context, id string) (resources.TaskResource, error) {
	var deleted models.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.currentTask(ctx, id)
		if err != nil {
			return err
		}
		deleted, err = s.delete(ctx, existing)
		return err
	})
	if err != nil {
		return resources.TaskResource{}, err
	}

	s.logger.InfoContext(ctx, "task deleted", "id", id)
	return s.ToResource(ctx, deleted), nil
}

func (s *TaskService) delete(ctx context.Context, existing *models.Task) (models.Task, error) {
	tombstone := existing.Revise(existing.Versioned)
	tombstone.Status = constants.TaskDeleted
	tombstone.DetachCategory()
	if err := s.tasks.CloseCurrentAndInsert(ctx, existing, &tombstone); err != nil {
		return models.Task{}, err
	}
	return tombstone, nil
}

func (s *TaskService) History(ctx context.Context, id string) ([]resources.VersionResource, error) {
	versions, err := s.tasks.History(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]resources.VersionResource, 0, len(versions))
	for _, t := range versions {
		out = append(out, resources.VersionResource{
			ID:        t.ID,
			Version:   t.Version,
			ValidFrom: t.ValidFrom,
			ValidTo:   t.ValidTo,
			Current:   t.Current(),
			Status:    string(t.Status),
			Name:      t.Name,
		})
	}
	return out, nil
}

// ToResource maps t to its transport form with profile display names
// resolved. An unresolvable profile leaves the name empty.
func (s *TaskService) ToResource(ctx context.Context, t models.Task) resources.TaskResource {
	return resources.TaskResource{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Deadline:       t.Deadline,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		AssignedTo:     t.AssignedTo,
		AssignedToName: s.displayName(ctx, t.AssignedTo),
		ReportedBy:     t.ReportedBy,
		ReportedByName: s.displayName(ctx, t.ReportedBy),
		CategoryName:   t.CategoryName(),
	}
}

func (s *TaskService) displayName(ctx context.Context, profileID string) string {
	if profileID == "" {
		return ""
	}
	name, err := s.profiles.DisplayName(ctx, profileID)
	if err != nil {
		if !errors.Is(err, profiles.ErrUnknownProfile) {
			s.logger.WarnContext(ctx, "profile lookup failed", "profile_id", profileID, "error", err)
		}
		return ""
	}
	return name
}

func (s *TaskService) currentTask(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.tasks.FindCurrentByID(ctx, id)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if err := validation.EntityMustExist(taskEntity, id, t != nil); err != nil {
		return nil, err
	}
	return t, nil
}

// reattachCurrentCategory checks that the category t points at is still
// live and points t at its current version.
func (s *TaskService) reattachCurrentCategory(ctx context.Context, t *models.Task) error {
	if t.CategoryID == nil {
		return nil
	}
	c, err := s.categories.FindCurrentByID(ctx, *t.CategoryID)
	if err != nil {
		return err
	}
	t.AttachCategory(c)
	return nil
}

func priorityOrDefault(p string) constants.TaskPriority {
	if p == "" {
		return constants.PriorityMedium
	}
	return constants.TaskPriority(p)
}

func taskPriorities() []string {
	out := make([]string, len(constants.TaskPriorities))
	for i, p := range constants.TaskPriorities {
		out[i] = string(p)
	}
	return out
}

func taskStatuses() []string {
	out := make([]string, len(constants.TaskStatuses))
	for i, st := range constants.TaskStatuses {
		out[i] = string(st)
	}
	return out
}
