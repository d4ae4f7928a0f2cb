package domain

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateCode = errors.New("duplicate property code")
)

// ValidationError reports malformed or missing input. Field is empty when
// the error is not tied to a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// HTTPError is a domain failure with a known HTTP status.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NewHTTPError(status int, msg string) *HTTPError {
	return &HTTPError{Status: status, Message: msg}
}

const genericFailure = "internal error"

// StatusOf maps an error onto the status and message shown to callers.
// Unclassified errors become a generic 500; their text is never exposed.
func StatusOf(err error) (int, string) {
	var ve *ValidationError
	var he *HTTPError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &he):
		return he.Status, he.Message
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, ErrDuplicateCode):
		return http.StatusConflict, "a property with this code already exists"
	}
	return http.StatusInternalServerError, genericFailure
}
