package session

import (
	"errors"
	"fmt"
)

// Common editor session errors
var (
	// ErrNotSaved is returned when an operation needs a saved record but the
	// session is on an unsaved draft.
	ErrNotSaved = errors.New("bill has not been saved yet")

	// ErrInvalidDocumentType is returned for anything but invoice or estimate.
	ErrInvalidDocumentType = errors.New("unknown document type")

	// ErrNoOpenForm is returned when committing without an open item form.
	ErrNoOpenForm = errors.New("no line item form is open")
)

// SessionError wraps failures of editor session operations, most often a
// store error that was surfaced to the user.
type SessionError struct {
	// Op is the operation that failed (e.g., "Save", "Open").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("session: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("session: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *SessionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewSessionError creates a new SessionError with the specified operation and underlying error.
func NewSessionError(op string, err error, details string) *SessionError {
	return &SessionError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapSessionError wraps an error as a SessionError if it isn't already one.
func WrapSessionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var sessionErr *SessionError
	if errors.As(err, &sessionErr) {
		return err // Already wrapped
	}

	return NewSessionError(op, err, details)
}
