package model

import (
	"errors"
	"net/http"
)

// Error codes
const (
	ErrCodeInvalidType    = "INVALID_TYPE"
	ErrCodeTooShort       = "TOO_SHORT"
	ErrCodeTooLong        = "TOO_LONG"
	ErrCodeAuthorNotFound = "AUTHOR_NOT_FOUND"
	ErrCodeInvalidRecord  = "INVALID_RECORD"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

var (
	// Validation Errors
	ErrInvalidQuery    = errors.New("invalid search query")
	ErrEmptyAuthorName = errors.New("author name is empty")
	ErrUnknownSource   = errors.New("unknown external source")

	// Business Rule Errors
	ErrAuthorNotFound = errors.New("author not found")
	ErrDuplicateName  = errors.New("author with this name already exists")
	ErrDuplicateExtID = errors.New("author with this external id already exists")
)

// ValidationError is returned when a search query fails validation.
// Code is stable and safe to show to API clients.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidQuery
}

// NewValidationError builds a ValidationError with the given code.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// ToErrorCode converts error to API error code
func ToErrorCode(err error) string {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Code
	case errors.Is(err, ErrAuthorNotFound):
		return ErrCodeAuthorNotFound
	case errors.Is(err, ErrEmptyAuthorName), errors.Is(err, ErrUnknownSource):
		return ErrCodeInvalidRecord
	default:
		return ErrCodeInternal
	}
}

// ToHTTPStatus converts error to HTTP status code
func ToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidQuery),
		errors.Is(err, ErrEmptyAuthorName),
		errors.Is(err, ErrUnknownSource):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
