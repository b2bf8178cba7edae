package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindConflict              Kind = "CONFLICT"
	KindValidation            Kind = "VALIDATION"
	KindInvalidSearchCriteria Kind = "INVALID_SEARCH_CRITERIA"
	KindUnauthorized          Kind = "UNAUTHORIZED"
	KindForbidden             Kind = "FORBIDDEN"
)

var statusByKind = map[Kind]int{
	KindNotFound:              http.StatusNotFound,
	KindConflict:              http.StatusConflict,
	KindValidation:            http.StatusBadRequest,
	KindInvalidSearchCriteria: http.StatusBadRequest,
	KindUnauthorized:          http.StatusUnauthorized,
	KindForbidden:             http.StatusForbidden,
}

type Exception struct {
	Kind       Kind
	Message    string
	Details    []string
	StatusCode int
	Retryable  bool
}

func (e *Exception) Error() string {
	return e.Message
}

// Is matches on kind, and on message too when target carries one.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

func newException(kind Kind, msg string) *Exception {
	return &Exception{
		Kind:       kind,
		Message:    msg,
		StatusCode: statusByKind[kind],
	}
}

func NotFound(format string, args ...any) *Exception {
	return newException(KindNotFound, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Exception {
	return newException(KindConflict, fmt.Sprintf(format, args...))
}

func InvalidSearchCriteria(format string, args ...any) *Exception {
	return newException(KindInvalidSearchCriteria, fmt.Sprintf(format, args...))
}

func Unauthorized(msg string) *Exception {
	return newException(KindUnauthorized, msg)
}

func Forbidden(msg string) *Exception {
	return newException(KindForbidden, msg)
}

// Validation carries every field-level problem found in one pass.
func Validation(messages []string) *Exception {
	e := newException(KindValidation, "validation failed")
	e.Details = append([]string(nil), messages...)
	return e
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// As returns the Exception in err's chain, if any.
func As(err error) (*Exception, bool) {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsRetryable(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Retryable
}
