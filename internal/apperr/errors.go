// Package apperr defines the error types rendered by the API. It has no
// internal dependencies so every layer can construct them.
package apperr

import (
	"errors"
	"fmt"
)

const (
	ValidationException   = "ValidationException"
	UnauthorizedException = "UnauthorizedException"
	ForbiddenException    = "ForbiddenException"
	NotFoundException     = "NotFoundException"
	ConflictException     = "ConflictException"
	InternalException     = "InternalException"
)

// Violation describes one failed rule for one field.
type Violation struct {
	Field   string         `json:"field"`
	Rule    string         `json:"rule"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Prefixed returns a copy of v with its field nested under prefix.
func (v Violation) Prefixed(prefix string) Violation {
	if prefix == "" {
		return v
	}
	if v.Field == "" {
		v.Field = prefix
		return v
	}
	v.Field = prefix + "." + v.Field
	return v
}

type AppError struct {
	Name        string      `json:"name"`
	Code        int         `json:"code"`
	Message     string      `json:"message"`
	Validations []Violation `json:"validations,omitempty"`
}

func (e *AppError) Error() string {
	if len(e.Validations) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%d violations)", e.Message, len(e.Validations))
}

func New(name string, code int, msg string) *AppError {
	return &AppError{Name: name, Code: code, Message: msg}
}

// Validation wraps a batch of violations into a single 400 error.
func Validation(violations []Violation) *AppError {
	return &AppError{
		Name:        ValidationException,
		Code:        400,
		Message:     "An error occurred while validating the request",
		Validations: violations,
	}
}

func Unauthorized(msg string) *AppError {
	return New(UnauthorizedException, 401, msg)
}

func Forbidden(msg string) *AppError {
	return New(ForbiddenException, 403, msg)
}

func NotFound(entity, id string) *AppError {
	return New(NotFoundException, 404, fmt.Sprintf("%s with id %s not found", entity, id))
}

func Conflict(msg string) *AppError {
	return New(ConflictException, 409, msg)
}

func Internal(msg string) *AppError {
	return New(InternalException, 500, msg)
}

// AsValidation extracts the violations of a ValidationException, if err is one.
func AsValidation(err error) ([]Violation, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Name != ValidationException {
		return nil, false
	}
	return appErr.Validations, true
}
