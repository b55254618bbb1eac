// Package clierr defines structured error types for CLI commands and the HTTP API.
// Errors carry a machine-readable code, a human-readable message,
// and optional details for scripted consumers.
package clierr

import (
	"errors"
	"fmt"
	"strconv"
)

// Error codes are uppercase and stable across minor versions.
const (
	TaskNotFound     = "TASK_NOT_FOUND"
	PlannerNotFound  = "PLANNER_NOT_FOUND"
	PlannerExists    = "PLANNER_ALREADY_EXISTS"
	InvalidInput     = "INVALID_INPUT"
	InvalidPriority  = "INVALID_PRIORITY"
	InvalidCategory  = "INVALID_CATEGORY"
	InvalidDate      = "INVALID_DATE"
	InvalidTaskID    = "INVALID_TASK_ID"
	InvalidFilter    = "INVALID_FILTER"
	InvalidSort      = "INVALID_SORT"
	InvalidRatio     = "INVALID_RATIO"
	InvalidFormat    = "INVALID_FORMAT"
	NoChanges        = "NO_CHANGES"
	ConfirmationReq  = "CONFIRMATION_REQUIRED"
	NothingSelected  = "NOTHING_SELECTED"
	TaskPending      = "TASK_PENDING"
	StoreUnavailable = "STORE_UNAVAILABLE"
	LoadFailed       = "LOAD_FAILED"
	CreateFailed     = "CREATE_FAILED"
	UpdateFailed     = "UPDATE_FAILED"
	DeleteFailed     = "DELETE_FAILED"
	ExportFailed     = "EXPORT_FAILED"
	InternalError    = "INTERNAL_ERROR"
)

// Error represents a structured CLI error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any

	// cause is the wrapped error, if any.
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error whose message is the cause's message and which
// unwraps to cause.
func Wrap(code string, cause error) *Error {
	return &Error{Code: code, Message: cause.Error(), cause: cause}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}

// CodeOf returns the code of the first *Error in err's chain, or InternalError.
func CodeOf(err error) string {
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return InternalError
}

// SilentError signals an exit code without additional output.
// Used by batch operations where results are already written to stdout.
type SilentError struct {
	Code int
}

// Error implements the error interface.
func (e *SilentError) Error() string { return "exit " + strconv.Itoa(e.Code) }
