package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// The forum core reports its failures through four kinds, each mapped to one status:
//   - NotFound (404): forum, thread or post does not exist
//   - Access (403): caller lacks the role for the forum or the privileged action
//   - InvalidState (422): user-correctable condition (non-trailing post, empty clipboard)
//   - Conflict (409): optimistic recheck failed, caller should re-fetch
//
// Validation (400) is used for malformed input.

func NotFound(what string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: fmt.Sprintf("%s not found", what), StatusCode: http.StatusNotFound}
}

func Access(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusForbidden}
}

func InvalidState(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusUnprocessableEntity}
}

func Conflict(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusConflict}
}

func Validation(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest}
}

func Unauthorized(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusUnauthorized}
}

// StatusCode returns the status carried by err, or 500 if err carries none.
func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool     { return hasStatus(err, http.StatusNotFound) }
func IsAccess(err error) bool       { return hasStatus(err, http.StatusForbidden) }
func IsInvalidState(err error) bool { return hasStatus(err, http.StatusUnprocessableEntity) }
func IsConflict(err error) bool     { return hasStatus(err, http.StatusConflict) }
func IsValidation(err error) bool   { return hasStatus(err, http.StatusBadRequest) }

func hasStatus(err error, status int) bool {
	var e *ErrorWithStatusCode
	return errors.As(err, &e) && e.StatusCode == status
}
