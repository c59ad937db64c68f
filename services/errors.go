package services

import (
	"errors"
	"fmt"
)

// ErrorType classifies a domain error; handlers map it to an HTTP status
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError is an error whose Message is safe to show to the client.
// The wrapped Err is for logs only.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  map[string]string // per-field messages, validation errors only
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return string(e.Type) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches any DomainError of the same type, so errors.Is(err, ErrUnauthorized)
// holds for every unauthorized error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{Type: errType, Message: message, Err: err}
}

var (
	ErrUserNotFound      = NewNotFoundError("user not found")
	ErrWorkspaceNotFound = NewNotFoundError("Workspace not found.")

	ErrUnauthorized = NewUnauthorizedError("Unauthorized.")
	ErrInvalidToken = NewUnauthorizedError("invalid authentication token")
	ErrTokenExpired = NewUnauthorizedError("authentication token expired")
)

// NewValidationError creates a validation error carrying per-field messages
func NewValidationError(message string, fields map[string]string) *DomainError {
	e := NewDomainError(ErrorTypeValidation, message, nil)
	if len(fields) > 0 {
		e.Fields = fields
	}
	return e
}

func NewUnauthorizedError(message string) *DomainError {
	return NewDomainError(ErrorTypeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewDomainError(ErrorTypeForbidden, message, nil)
}

func NewNotFoundError(message string) *DomainError {
	return NewDomainError(ErrorTypeNotFound, message, nil)
}

func NewConflictError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeConflict, message, err)
}

func NewRateLimitError(message string) *DomainError {
	return NewDomainError(ErrorTypeRateLimit, message, nil)
}

// WrapInternal hides err behind a generic client message
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal marks a failure of a system we depend on, such as the mail server
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

func asDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

func hasType(err error, t ErrorType) bool {
	de, ok := asDomainError(err)
	return ok && de.Type == t
}

func IsNotFoundError(err error) bool     { return hasType(err, ErrorTypeNotFound) }
func IsValidationError(err error) bool   { return hasType(err, ErrorTypeValidation) }
func IsUnauthorizedError(err error) bool { return hasType(err, ErrorTypeUnauthorized) }
func IsForbiddenError(err error) bool    { return hasType(err, ErrorTypeForbidden) }
func IsRateLimitError(err error) bool    { return hasType(err, ErrorTypeRateLimit) }
func IsConflictError(err error) bool     { return hasType(err, ErrorTypeConflict) }
func IsInternalError(err error) bool     { return hasType(err, ErrorTypeInternal) }
func IsExternalError(err error) bool     { return hasType(err, ErrorTypeExternal) }

// GetValidationFields returns the per-field messages of a validation error
func GetValidationFields(err error) map[string]string {
	if de, ok := asDomainError(err); ok && de.Type == ErrorTypeValidation {
		return de.Fields
	}
	return nil
}

// PublicMessage returns the client-facing message of a domain error, or ""
// when err is not one
func PublicMessage(err error) string {
	if de, ok := asDomainError(err); ok {
		return de.Message
	}
	return ""
}
