package models

import "errors"

var (
	// ErrNotFound is returned for absent records and for records the
	// requester may not touch. Callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrColumnOccupied is returned when deleting a column that still holds tasks.
	ErrColumnOccupied = errors.New("column still holds tasks")
)

// ValidationError reports a malformed or out of range value of a single field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
