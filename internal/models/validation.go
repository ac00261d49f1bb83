package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by ValidationErrors.
var ErrValidation = errors.New("validation failed")

// FieldError is a validation failure for one field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects field errors.
type ValidationErrors struct {
	Errors []FieldError
}

// AddMessage records a failure for field.
func (v *ValidationErrors) AddMessage(field, message string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Message: message})
}

// Err returns nil when no failures were recorded.
func (v *ValidationErrors) Err() error {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for _, fe := range v.Errors {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}
