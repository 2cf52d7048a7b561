package dto

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// Codes produced by the HTTP layer itself. Domain codes come from shared.
const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeForbidden       = "FORBIDDEN"
	CodeRateLimited     = "RATE_LIMITED"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

const internalMessage = "An unexpected error occurred"

var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation:            http.StatusBadRequest,
	shared.KindNotFound:              http.StatusNotFound,
	shared.KindVersionConflict:       http.StatusConflict,
	shared.KindInvalidTransition:     http.StatusBadRequest,
	shared.KindConflict:              http.StatusConflict,
	shared.KindDependencyUnavailable: http.StatusServiceUnavailable,
	shared.KindInternal:              http.StatusInternalServerError,
}

// APIError is an error reduced to what a client sees
type APIError struct {
	Status  int
	Code    string
	Message string
	Details []ValidationDetail
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// NewAPIError creates an error raised by the HTTP layer
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// StatusForKind returns the HTTP status of a domain error kind
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// TranslateError maps any error onto status, code and message. Both the
// standard and the legacy renderer go through it.
func TranslateError(err error) APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return *apiErr
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		message := de.Message
		if de.Kind == shared.KindInternal {
			message = internalMessage
		}
		return APIError{Status: StatusForKind(de.Kind), Code: de.Code, Message: message}
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return APIError{
			Status:  http.StatusBadRequest,
			Code:    shared.CodeValidation,
			Message: "Request validation failed",
			Details: ValidationDetails(fieldErrs),
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return APIError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    CodeRequestTooLarge,
			Message: "Request body exceeds maximum allowed size",
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return APIError{
			Status:  http.StatusBadRequest,
			Code:    shared.CodeValidation,
			Message: "Invalid value for field " + typeErr.Field,
		}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return APIError{Status: http.StatusBadRequest, Code: shared.CodeValidation, Message: "Malformed JSON body"}
	}

	return APIError{Status: http.StatusInternalServerError, Code: shared.CodeInternal, Message: internalMessage}
}

// ValidationDetails turns validator field errors into response details
func ValidationDetails(errs validator.ValidationErrors) []ValidationDetail {
	details := make([]ValidationDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, ValidationDetail{Field: e.Field(), Message: validationMessage(e)})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}
