package api

import (
	"errors"
	"net/http"

	"geolake/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes. An empty
// read result maps to 404; the response body carries the error message so
// clients can tell it apart from a missing collection.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var empty *domain.EmptyResultError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &empty):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
