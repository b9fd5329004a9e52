// Package apperr defines the error taxonomy shared by services and handlers
// and its mapping onto HTTP responses.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	// ErrUnauthorized covers a missing or invalid session and every failed credential check.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when an authenticated caller may not act on a resource.
	ErrForbidden = errors.New("forbidden")
	// ErrBadRequest is returned for malformed input or identifiers that match nothing.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound is returned by repositories when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned for hashing and store failures.
	ErrInternal = errors.New("internal server error")
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// messageError carries a client-facing message on top of a sentinel.
type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.kind }

// BadRequest returns an ErrBadRequest whose message is shown to the client.
func BadRequest(msg string) error {
	return &messageError{kind: ErrBadRequest, msg: msg}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything outside the
// taxonomy becomes a 500 with a generic message.
func MapErrorToHTTP(err error) *HTTPError {
	var me *messageError
	msg := ""
	if errors.As(err, &me) {
		msg = me.msg
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrBadRequest):
		if msg == "" {
			msg = ErrBadRequest.Error()
		}
		return NewHTTPError(http.StatusBadRequest, msg, "BAD_REQUEST")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, ErrNotFound.Error(), "NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Error(), "INTERNAL_ERROR")
	}
}

// Write sends err as an ErrorResponse with its mapped status and returns the mapping.
func Write(w http.ResponseWriter, err error) *HTTPError {
	he := MapErrorToHTTP(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.StatusCode)
	_ = json.NewEncoder(w).Encode(he.ToErrorResponse())
	return he
}
