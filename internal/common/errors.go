// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors.
	ErrInvalidInput = errors.New("invalid input")

	// Dataset errors.
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrMalformedDataset = errors.New("malformed dataset")

	// Model errors.
	ErrModelNotFound  = errors.New("model artifact not found")
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	ErrNoModels       = errors.New("no candidate model completed")

	// Playbook errors.
	ErrExternalService = errors.New("external service failure")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Process exit statuses.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitModelMissing = 3
	ExitDataset      = 4
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrModelNotFound):
		return ExitModelMissing
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidConfig):
		return ExitInvalidInput
	case errors.Is(err, ErrDatasetNotFound), errors.Is(err, ErrMalformedDataset):
		return ExitDataset
	default:
		return ExitFailure
	}
}
