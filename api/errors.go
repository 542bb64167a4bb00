// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-sync.

package api

import "fmt"

// ErrorCode classifies a failure independently of its NT status number.
type ErrorCode int

const (
	CodeOK ErrorCode = iota
	CodeInvalidParameter
	CodeInvalidHandleOrType
	CodeAccessDenied
	CodeLimitExceeded
	CodeOwnershipViolation
	CodeInvalidTarget
	CodeNameCollision
	CodeNotFound
)

func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidParameter:
		return "invalid parameter"
	case CodeInvalidHandleOrType:
		return "invalid handle or type"
	case CodeAccessDenied:
		return "access denied"
	case CodeLimitExceeded:
		return "limit exceeded"
	case CodeOwnershipViolation:
		return "ownership violation"
	case CodeInvalidTarget:
		return "invalid target"
	case CodeNameCollision:
		return "name collision"
	case CodeNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Common errors returned by the synchronization core.
var (
	ErrInvalidParameter   = NewError(CodeInvalidParameter, StatusInvalidParameter, "invalid parameter")
	ErrInvalidParameter1  = NewError(CodeInvalidParameter, StatusInvalidParameter1, "invalid first parameter")
	ErrInvalidHandle      = NewError(CodeInvalidHandleOrType, StatusInvalidHandle, "invalid handle")
	ErrObjectTypeMismatch = NewError(CodeInvalidHandleOrType, StatusObjectTypeMismatch, "object type mismatch")
	ErrAccessDenied       = NewError(CodeAccessDenied, StatusAccessDenied, "access denied")
	ErrLimitExceeded      = NewError(CodeLimitExceeded, StatusSemaphoreLimitExceeded, "semaphore limit exceeded")
	ErrMutantNotOwned     = NewError(CodeOwnershipViolation, StatusMutantNotOwned, "mutant not owned by caller")
	ErrInvalidTarget      = NewError(CodeInvalidTarget, StatusInvalidCID, "invalid thread target")
	ErrNameCollision      = NewError(CodeNameCollision, StatusObjectNameCollision, "object name collision")
	ErrNameNotFound       = NewError(CodeNotFound, StatusObjectNameNotFound, "object name not found")
	ErrTooManyHandles     = NewError(CodeLimitExceeded, StatusInsufficientResources, "handle table exhausted")
)

// Error represents a structured error with code, status and context.
type Error struct {
	Code    ErrorCode
	Status  Status
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Is matches errors carrying the same status, so a sentinel still matches
// a copy enriched through WithContext.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == e.Status
}

// NewError creates a new structured error.
func NewError(code ErrorCode, status Status, message string) *Error {
	return &Error{
		Code:    code,
		Status:  status,
		Message: message,
	}
}

// WithContext returns a copy of the error with key set to value.
// Sentinels are shared, so the receiver is never mutated.
func (e *Error) WithContext(key string, value any) *Error {
	ctx := make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &Error{Code: e.Code, Status: e.Status, Message: e.Message, Context: ctx}
}
