package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "todo-service.com/todo-service/internal/errors"
)

type ErrorResponse struct {
	Message   string   `json:"message"`
	Status    int      `json:"status"`
	Path      string   `json:"path"`
	Details   []string `json:"details,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

// ErrorHandler renders domain exceptions with their status and messages.
// Anything else is logged and answered with an opaque 500.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := ErrorResponse{Path: c.Request().URL.Path}
		var httpErr *echo.HTTPError

		if ex, ok := apperrors.As(err); ok {
			resp.Status = ex.StatusCode
			resp.Message = ex.Message
			resp.Details = ex.Details
			resp.Retryable = ex.Retryable
			logger.WarnContext(c.Request().Context(), "request rejected", "kind", ex.Kind, "error", ex.Message)
		} else if errors.As(err, &httpErr) {
			resp.Status = httpErr.Code
			resp.Message = http.StatusText(httpErr.Code)
			if msg, ok := httpErr.Message.(string); ok {
				resp.Message = msg
			}
		} else {
			resp.Status = http.StatusInternalServerError
			resp.Message = "An unexpected error occurred. Please try again."
			logger.ErrorContext(c.Request().Context(), "unexpected error", "error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(resp.Status)
		} else {
			writeErr = c.JSON(resp.Status, resp)
		}
		if writeErr != nil {
			logger.ErrorContext(c.Request().Context(), "failed to write error response", "error", writeErr)
		}
	}
}
