// Package raffleerr defines the error taxonomy of the raffle engine.
// Store-layer errors propagate to callers untouched; handlers map them to
// HTTP statuses.
package raffleerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a raffle (or other record) does not
	// exist. Delete treats it as an idempotent no-op; get/update callers
	// surface it.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyDrawn is returned when a winner is recorded for a prize
	// that already has one. It is an expected concurrency collision and is
	// swallowed by the winner selector.
	ErrAlreadyDrawn = errors.New("prize already has a winner")

	// ErrNoParticipants is returned when a draw is attempted against an
	// empty entry pool. It is terminal for the raffle until the
	// participant list changes.
	ErrNoParticipants = errors.New("no participants to draw from")
)

// ValidationError reports bad create input. It is reported inline to the
// caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a field.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
