package validators

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"todo-service.com/todo-service/internal/constants"
	apperrors "todo-service.com/todo-service/internal/errors"
	"todo-service.com/todo-service/pkg/resources"
)

// PageRequest reads page, size, sortBy and ascending from the query string.
// Missing values are left zero for the service to default.
func PageRequest(c echo.Context) (resources.PageRequest, error) {
	var (
		req      resources.PageRequest
		messages []string
		err      error
	)

	if v := c.QueryParam("page"); v != "" {
		if req.Page, err = strconv.Atoi(v); err != nil || req.Page < 0 {
			messages = append(messages, "page must be a non-negative integer")
		}
	}
	if v := c.QueryParam("size"); v != "" {
		if req.Size, err = strconv.Atoi(v); err != nil || req.Size <= 0 {
			messages = append(messages, "size must be a positive integer")
		}
	}
	req.SortBy = c.QueryParam("sortBy")
	req.Ascending = true
	if v := c.QueryParam("ascending"); v != "" {
		if req.Ascending, err = strconv.ParseBool(v); err != nil {
			messages = append(messages, "ascending must be true or false")
		}
	}

	if len(messages) > 0 {
		return resources.PageRequest{}, apperrors.Validation(messages)
	}
	return req, nil
}

func TaskStatus(c echo.Context) (constants.TaskStatus, error) {
	v := c.QueryParam("taskStatus")
	if v == "" {
		return "", apperrors.Validation([]string{"taskStatus is required"})
	}
	return constants.TaskStatus(v), nil
}

func CategoryName(c echo.Context) (string, error) {
	v := c.QueryParam("categoryName")
	if v == "" {
		return "", apperrors.Validation([]string{"categoryName is required"})
	}
	return v, nil
}

// AsOf parses the optional asOf query parameter as RFC 3339.
func AsOf(c echo.Context) (time.Time, bool, error) {
	v := c.QueryParam("asOf")
	if v == "" {
		return time.Time{}, false, nil
	}
	at, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false, apperrors.Validation([]string{"asOf must be an RFC 3339 timestamp"})
	}
	return at.UTC(), true, nil
}
