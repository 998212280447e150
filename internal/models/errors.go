package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
	ErrInvalidID    = errors.New("invalid ID format")
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError reports which field, and for participant fields which
// participant, broke its contract. Index is -1 for race-level fields.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("participant %d: invalid %s: %s", e.Index, e.Field, e.Message)
}

// Is lets callers match any validation failure with errors.Is(err, ErrInvalidInput)
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a race-level validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Index: -1, Field: field, Message: message}
}

// NewParticipantError creates a validation error tied to one participant
func NewParticipantError(index int, field, message string) *ValidationError {
	return &ValidationError{Index: index, Field: field, Message: message}
}
