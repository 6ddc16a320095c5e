package service

import (
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalid          = errors.New("invalid")
	ErrModelUnavailable = errors.New("model unavailable")
)

// ValidationError is returned when a request field is rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
