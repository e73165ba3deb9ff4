package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorKind classifies an AppError for the HTTP layer.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindStorage
)

// AppError carries a client-safe message and, for storage failures, the
// underlying cause that must only be logged.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a 400-class error. validator.ValidationErrors
// and JSON decoding errors are rendered field by field.
func NewValidationError(err error) *AppError {
	return &AppError{Kind: KindValidation, Message: "Validation error: " + describe(err), Err: err}
}

// NewNotFoundError builds a 404-class error for the named resource.
func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

// NewConflictError builds a 409-class error.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewStorageError wraps a backend failure behind a generic message.
func NewStorageError(message string, err error) *AppError {
	return &AppError{Kind: KindStorage, Message: message, Err: err}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s at %q", fieldMessage(fe), fe.Field()))
		}
		return strings.Join(parts, "; ")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("Expected %s, received %s at %q", typeErr.Type.Kind(), typeErr.Value, typeErr.Field)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "Malformed JSON body"
	}
	return err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		return fmt.Sprintf("Must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("Must contain at most %s character(s)", fe.Param())
	default:
		return fmt.Sprintf("Failed %q check", fe.Tag())
	}
}
