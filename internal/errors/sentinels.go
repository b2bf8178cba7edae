package errors

import "net/http"

// Kind-only sentinels for errors.Is.
var (
	ErrNotFound              = &Exception{Kind: KindNotFound, StatusCode: http.StatusNotFound}
	ErrConflict              = &Exception{Kind: KindConflict, StatusCode: http.StatusConflict}
	ErrValidation            = &Exception{Kind: KindValidation, StatusCode: http.StatusBadRequest}
	ErrInvalidSearchCriteria = &Exception{Kind: KindInvalidSearchCriteria, StatusCode: http.StatusBadRequest}
	ErrUnauthorized          = &Exception{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized}
	ErrForbidden             = &Exception{Kind: KindForbidden, StatusCode: http.StatusForbidden}
)

// ErrConcurrentUpdate is raised when the version a caller read is no longer
// current by the time it tries to close it. Callers may retry.
var ErrConcurrentUpdate = &Exception{
	Kind:       KindConflict,
	Message:    "entity was modified concurrently, reload and retry",
	StatusCode: http.StatusConflict,
	Retryable:  true,
}
