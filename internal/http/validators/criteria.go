package validators

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "todo-service.com/todo-service/internal/errors"
	"todo-service.com/todo-service/pkg/resources"
)

// Criteria reads the search criteria of a list request, either from a JSON
// array body or from the criteria query parameter holding the same JSON.
// Numbers are kept as json.Number so the search engine can coerce them to
// the field type.
func Criteria(c echo.Context) ([]resources.Criteria, error) {
	raw := []byte(strings.TrimSpace(c.QueryParam("criteria")))

	if len(raw) == 0 && c.Request().Body != nil {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return nil, apperrors.InvalidSearchCriteria("Failed to read search criteria")
		}
		raw = bytes.TrimSpace(body)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var criteria []resources.Criteria
	if err := dec.Decode(&criteria); err != nil {
		return nil, apperrors.InvalidSearchCriteria("Malformed search criteria: %v", err)
	}
	return criteria, nil
}
