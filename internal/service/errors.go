package service

import (
	"errors"
	"fmt"
)

var (
	// ErrParticipantNotFound indicates the participant does not exist.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrParticipantConflict indicates a unique field is already taken.
	ErrParticipantConflict = errors.New("participant already exists")
	// ErrInvalidCredentials is returned when an admin login fails.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ConflictError names the unique field that collided.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is already registered", e.Field)
}

// Is lets callers match with errors.Is(err, ErrParticipantConflict).
func (e *ConflictError) Is(target error) bool {
	return target == ErrParticipantConflict
}

// ValidationError reports a request that breaks a business rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
