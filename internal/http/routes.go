package http

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"todo-service.com/todo-service/internal/constants"
	middleware "todo-service.com/todo-service/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, tokens *middleware.TokenManager, rateLimitPerMinute int, logger *slog.Logger) {
	e.HTTPErrorHandler = ErrorHandler(logger)
	e.Use(middleware.RequestLogger(logger))

	auth := middleware.JWTAuth(tokens)
	limiter := middleware.RateLimiter(rateLimitPerMinute, time.Minute)
	allow := func(roles ...constants.Role) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{auth, limiter, middleware.RequireRoles(roles...)}
	}
	anyone := allow(constants.RoleUser, constants.RoleAdmin)
	admin := allow(constants.RoleAdmin)

	e.GET("/healthz", h.Health)

	e.GET("/category", h.ListCategories, anyone...)
	e.GET("/category/:name", h.GetCategory, anyone...)
	e.GET("/category/id/:id/history", h.CategoryHistory, anyone...)
	e.POST("/category", h.CreateCategory, admin...)
	e.PUT("/category/updateDetails", h.UpdateCategoryDetails, admin...)
	e.PUT("/category/deleteCategory/:id", h.DeleteCategory, admin...)

	e.GET("/task", h.ListTasks, anyone...)
	e.GET("/task/:id", h.GetTask, anyone...)
	e.GET("/task/:id/history", h.TaskHistory, anyone...)
	e.POST("/task", h.CreateTask, anyone...)
	e.PUT("/task/updateDetails", h.UpdateTaskDetails, anyone...)
	e.PUT("/task/updateStatus/:id", h.UpdateTaskStatus, anyone...)
	e.PUT("/task/updateCategory/:id", h.UpdateTaskCategory, admin...)
	e.PUT("/task/deleteTask/:id", h.DeleteTask, admin...)
}
