package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors for transport mapping
type ErrorKind string

const (
	KindValidation            ErrorKind = "validation"
	KindNotFound              ErrorKind = "not_found"
	KindVersionConflict       ErrorKind = "version_conflict"
	KindInvalidTransition     ErrorKind = "invalid_transition"
	KindConflict              ErrorKind = "conflict"
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
	KindInternal              ErrorKind = "internal"
)

// Error codes surfaced to clients
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeNotFound              = "NOT_FOUND"
	CodeVersionConflict       = "VERSION_CONFLICT"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeConflict              = "CONFLICT"
	CodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	CodeInternal              = "INTERNAL_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by code so sentinels work with errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error. The kind is derived from well
// known codes and defaults to validation for business-specific codes.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: kindForCode(code)}
}

func kindForCode(code string) ErrorKind {
	switch code {
	case CodeNotFound:
		return KindNotFound
	case CodeVersionConflict:
		return KindVersionConflict
	case CodeInvalidTransition:
		return KindInvalidTransition
	case CodeConflict:
		return KindConflict
	case CodeDependencyUnavailable:
		return KindDependencyUnavailable
	case CodeInternal:
		return KindInternal
	default:
		return KindValidation
	}
}

// NewValidationError reports malformed or missing input
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message, Kind: KindValidation}
}

// NewNotFoundError reports an unresolved entity id
func NewNotFoundError(entity string, id any) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", entity, id),
		Kind:    KindNotFound,
	}
}

// NewVersionConflictError reports an optimistic concurrency mismatch
func NewVersionConflictError(expected, actual int) *DomainError {
	return &DomainError{
		Code:    CodeVersionConflict,
		Message: fmt.Sprintf("version mismatch: expected %d, current %d", expected, actual),
		Kind:    KindVersionConflict,
	}
}

// NewInvalidTransitionError reports a state machine rule violation
func NewInvalidTransitionError(message string) *DomainError {
	return &DomainError{Code: CodeInvalidTransition, Message: message, Kind: KindInvalidTransition}
}

// NewConflictError reports a uniqueness violation
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message, Kind: KindConflict}
}

// NewDependencyUnavailableError wraps an unreachable dependency failure
func NewDependencyUnavailableError(dependency string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeDependencyUnavailable,
		Message: fmt.Sprintf("%s is unavailable", dependency),
		Kind:    KindDependencyUnavailable,
		cause:   cause,
	}
}

// NewInternalError wraps an unexpected failure
func NewInternalError(message string, cause error) *DomainError {
	return &DomainError{Code: CodeInternal, Message: message, Kind: KindInternal, cause: cause}
}

// KindOf returns the kind of a domain error anywhere in the chain, or
// KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Sentinels for errors.Is checks
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrVersionConflict   = NewDomainError(CodeVersionConflict, "Resource was modified by another request")
	ErrInvalidTransition = NewDomainError(CodeInvalidTransition, "Operation not allowed in current state")
	ErrConflict          = NewDomainError(CodeConflict, "Resource already exists")
	ErrValidation        = NewDomainError(CodeValidation, "Invalid input provided")
)
