package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

// newValidator reports fields by their JSON name so error maps line up with request bodies
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		switch name, _, _ := strings.Cut(fld.Tag.Get("json"), ","); name {
		case "-":
			return ""
		case "":
			return fld.Name
		default:
			return name
		}
	})
	return v
}

// MessageProvider is implemented by request types that override validation
// messages. Keys have the form "field.tag", e.g. "name.min".
type MessageProvider interface {
	ValidationMessages() map[string]string
}

// defaultMessages are used when a request type does not override a field's message
var defaultMessages = map[string]func(field, param string) string{
	"required": func(f, _ string) string { return f + " is required" },
	"email":    func(f, _ string) string { return f + " must be a valid email" },
	"uuid":     func(f, _ string) string { return f + " must be a valid UUID" },
	"min":      func(f, p string) string { return fmt.Sprintf("%s must be at least %s", f, p) },
	"max":      func(f, p string) string { return fmt.Sprintf("%s must be at most %s", f, p) },
	"oneof":    func(f, p string) string { return fmt.Sprintf("%s must be one of: %s", f, p) },
}

// ValidationError carries one message per failing field
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// ValidateStruct validates s against its `validate` tags. Only the first
// failing rule of each field is reported.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}

	var overrides map[string]string
	if mp, ok := s.(MessageProvider); ok {
		overrides = mp.ValidationMessages()
	}

	fields := make(map[string]string, len(failures))
	for _, fe := range failures {
		field := fe.Field()
		if _, seen := fields[field]; seen {
			continue
		}
		fields[field] = fieldMessage(fe, overrides)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError, overrides map[string]string) string {
	if msg, ok := overrides[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if format, ok := defaultMessages[fe.Tag()]; ok {
		return format(fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag())
}

// IsValidationError reports whether err came from ValidateStruct
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields returns the per-field messages of a ValidationError
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// ParseUUID parses a path or body identifier, tolerating surrounding whitespace
func ParseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID format: %q", s)
	}
	return id, nil
}
