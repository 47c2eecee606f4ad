// errors/errors.go
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error represents a structured error with code, message, and HTTP status.
type Error struct {
	// Code is a machine-readable error code (e.g., "invalid_url", "invalid_parameter_set")
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Status is the HTTP status code (not included in JSON)
	Status int `json:"-"`

	// Details contains additional error context (optional)
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying error (not included in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error carrying the same code.
// This lets callers match against the package-level sentinels with
// errors.Is regardless of message or details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// WithDetails replaces the details of the error.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// HTTPStatus returns the HTTP status code for the error.
func (e *Error) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return json.Marshal(&struct {
		*alias
	}{
		alias: (*alias)(e),
	})
}

// New creates a new Error with code, message, and HTTP status.
func New(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(err error, code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// From extracts an *Error from err if possible, or wraps it as an internal error.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{
		Code:    CodeInternalError,
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether any error in err's chain matches target.
// Re-exported from standard errors package for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// Re-exported from standard errors package for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Error codes.
const (
	CodeBadRequest          = "bad_request"
	CodeNotFound            = "not_found"
	CodeMethodNotAllowed    = "method_not_allowed"
	CodeInternalError       = "internal_error"
	CodeValidationFailed    = "validation_failed"
	CodeInvalidInput        = "invalid_input"
	CodeInvalidURL          = "invalid_url"
	CodeInvalidParameterSet = "invalid_parameter_set"
	CodeNoLocation          = "no_location"
	CodeUnsetHandle         = "unset_handle"
)

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *Error {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// MethodNotAllowed creates a 405 Method Not Allowed error.
func MethodNotAllowed(message string) *Error {
	return New(CodeMethodNotAllowed, message, http.StatusMethodNotAllowed)
}

// Internal creates a 500 Internal Server Error.
func Internal(message string) *Error {
	return New(CodeInternalError, message, http.StatusInternalServerError)
}

// Validation creates a 400 Bad Request error with validation code.
func Validation(message string) *Error {
	return New(CodeValidationFailed, message, http.StatusBadRequest)
}

// InvalidInput creates a 400 Bad Request error with invalid_input code.
func InvalidInput(message string) *Error {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

// InvalidURL creates a 400 error for a value that is not an absolute URL.
func InvalidURL(message string) *Error {
	return New(CodeInvalidURL, message, http.StatusBadRequest)
}

// InvalidParameterSet creates a 400 error for a parameter set that is not a mapping.
func InvalidParameterSet(message string) *Error {
	return New(CodeInvalidParameterSet, message, http.StatusBadRequest)
}

// NoLocation creates a 400 error for absent input with no current location available.
func NoLocation(message string) *Error {
	return New(CodeNoLocation, message, http.StatusBadRequest)
}

// UnsetHandle creates a 500 error for operations on a handle that was never constructed.
func UnsetHandle(message string) *Error {
	return New(CodeUnsetHandle, message, http.StatusInternalServerError)
}

// ValidationErrors holds multiple field-level validation errors.
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", v.Errors[0].Field, v.Errors[0].Message)
}

// AddWithCode adds a field error with a code.
func (v *ValidationErrors) AddWithCode(field, message, code string) *ValidationErrors {
	v.Errors = append(v.Errors, FieldError{Field: field, Message: message, Code: code})
	return v
}

// HasErrors returns true if there are validation errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// ToError converts ValidationErrors to an *Error if there are errors.
func (v *ValidationErrors) ToError() *Error {
	if !v.HasErrors() {
		return nil
	}
	return Validation("validation failed").WithDetail("errors", v.Errors)
}

// NewValidationErrors creates a new ValidationErrors.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]FieldError, 0),
	}
}
