package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"todo-service.com/todo-service/internal/http/validators"
	"todo-service.com/todo-service/internal/services"
	"todo-service.com/todo-service/pkg/resources"
)

type Handler struct {
	categories *services.CategoryService
	tasks      *services.TaskService
	ping       func(ctx context.Context) error
	cacheState func() string
}

// NewHandler builds the API handlers. cacheState reports the profile cache
// breaker state on /healthz and may be nil when no cache is configured.
func NewHandler(
	categories *services.CategoryService,
	tasks *services.TaskService,
	ping func(ctx context.Context) error,
	cacheState func() string,
) *Handler {
	return &Handler{
		categories: categories,
		tasks:      tasks,
		ping:       ping,
		cacheState: cacheState,
	}
}

// Health fails only when the database is unreachable. An open profile cache
// breaker is reported but names still resolve from the directory.
func (h *Handler) Health(c echo.Context) error {
	body := echo.Map{"status": "ok"}
	if h.cacheState != nil {
		body["profileCache"] = h.cacheState()
	}
	if h.ping != nil {
		if err := h.ping(c.Request().Context()); err != nil {
			body["status"] = "unavailable"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
	}
	return c.JSON(http.StatusOK, body)
}

func (h *Handler) ListCategories(c echo.Context) error {
	req, err := validators.PageRequest(c)
	if err != nil {
		return err
	}
	criteria, err := validators.Criteria(c)
	if err != nil {
		return err
	}

	page, err := h.categories.ListCategories(c.Request().Context(), req, criteria)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetCategory(c echo.Context) error {
	category, err := h.categories.GetCategory(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

func (h *Handler) CategoryHistory(c echo.Context) error {
	versions, err := h.categories.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, versions)
}

func (h *Handler) CreateCategory(c echo.Context) error {
	var in resources.CategoryResource
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	category, err := h.categories.CreateCategory(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

func (h *Handler) UpdateCategoryDetails(c echo.Context) error {
	var in resources.CategoryResource
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	category, err := h.categories.UpdateDetails(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

func (h *Handler) DeleteCategory(c echo.Context) error {
	if err := h.categories.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) ListTasks(c echo.Context) error {
	req, err := validators.PageRequest(c)
	if err != nil {
		return err
	}
	criteria, err := validators.Criteria(c)
	if err != nil {
		return err
	}

	page, err := h.tasks.ListTasks(c.Request().Context(), req, criteria)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetTask returns the current version, or the version in effect at ?asOf=.
func (h *Handler) GetTask(c echo.Context) error {
	ctx := c.Request().Context()
	at, historical, err := validators.AsOf(c)
	if err != nil {
		return err
	}

	var task resources.TaskResource
	if historical {
		task, err = h.tasks.GetTaskAsOf(ctx, c.Param("id"), at)
	} else {
		task, err = h.tasks.GetTask(ctx, c.Param("id"))
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) TaskHistory(c echo.Context) error {
	versions, err := h.tasks.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, versions)
}

func (h *Handler) CreateTask(c echo.Context) error {
	var in resources.TaskResource
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	task, err := h.tasks.CreateTask(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) UpdateTaskDetails(c echo.Context) error {
	var in resources.TaskResource
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	task, err := h.tasks.UpdateDetails(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) UpdateTaskStatus(c echo.Context) error {
	status, err := validators.TaskStatus(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.UpdateStatus(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) UpdateTaskCategory(c echo.Context) error {
	name, err := validators.CategoryName(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.UpdateCategory(c.Request().Context(), c.Param("id"), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	if _, err := h.tasks.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
