package queries

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTemplate is matched by UnknownTemplateError.
	ErrUnknownTemplate = errors.New("unknown query template")
	// ErrMissingParameter is matched by MissingParameterError.
	ErrMissingParameter = errors.New("missing query parameter")
	// ErrTypeMismatch is matched by TypeMismatchError.
	ErrTypeMismatch = errors.New("query parameter type mismatch")
	// ErrInvalidQueryFile is matched by QueryFileError.
	ErrInvalidQueryFile = errors.New("invalid query file")
)

// UnknownTemplateError is returned when a template name is not in the catalog.
type UnknownTemplateError struct {
	Name string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown query template %q", e.Name)
}

func (e *UnknownTemplateError) Is(target error) bool {
	return target == ErrUnknownTemplate
}

// MissingParameterError is returned when a parameter has neither a default nor an override.
type MissingParameterError struct {
	Template  string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("template %q: missing value for parameter %q", e.Template, e.Parameter)
}

func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// TypeMismatchError is returned when a value cannot be interpreted as the declared type.
type TypeMismatchError struct {
	Template  string
	Parameter string
	Type      ParamType
	Value     any
	Reason    string
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("template %q: parameter %q expects %s, got %T (%v)", e.Template, e.Parameter, e.Type, e.Value, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// QueryFileError describes a validation error in a query file.
type QueryFileError struct {
	Source  string
	Field   string
	Message string
}

func (e *QueryFileError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("query file %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("query file %s: %s: %s", e.Source, e.Field, e.Message)
}

func (e *QueryFileError) Is(target error) bool {
	return target == ErrInvalidQueryFile
}
