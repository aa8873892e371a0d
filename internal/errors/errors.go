package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a Quoter error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED" // 422
	ErrStorage          ErrorCode = "STORAGE"           // 500
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// QuoterError represents a structured error with code, status, and details.
type QuoterError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *QuoterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *QuoterError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *QuoterError {
	return &QuoterError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record.
// kind names the collection ("quotation", "client", ...).
func NewNotFound(kind, identifier string) *QuoterError {
	return &QuoterError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *QuoterError {
	return &QuoterError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewValidationFailed creates a 422 error carrying every validation message.
// The message is the list joined by newlines.
func NewValidationFailed(messages []string) *QuoterError {
	list := make([]string, len(messages))
	copy(list, messages)
	return &QuoterError{
		Code:    ErrValidationFailed,
		Status:  422,
		Message: strings.Join(list, "\n"),
		Details: map[string]any{"errors": list},
	}
}

// NewStorage creates a 500 error for a collection that could not be read or written.
func NewStorage(collection string, err error) *QuoterError {
	msg := fmt.Sprintf("storage failure on %q", collection)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &QuoterError{
		Code:    ErrStorage,
		Status:  500,
		Message: msg,
		Details: map[string]any{"collection": collection},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *QuoterError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &QuoterError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if err (or anything it wraps) is a QuoterError with the given code.
func Is(err error, code ErrorCode) bool {
	var qErr *QuoterError
	if stderrors.As(err, &qErr) {
		return qErr.Code == code
	}
	return false
}

// As extracts the QuoterError from err, if present.
func As(err error) (*QuoterError, bool) {
	var qErr *QuoterError
	if stderrors.As(err, &qErr) {
		return qErr, true
	}
	return nil, false
}
