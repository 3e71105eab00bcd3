package utils

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. Callers classify with
// errors.Is; the HTTP layer maps them onto status codes.
var (
	// ErrInvalidInput marks malformed alerts rejected at the boundary.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks lookups for clusters that do not exist (or were
	// evicted).
	ErrNotFound = errors.New("not found")

	// ErrStrategyUnavailable marks a correlation capability that is
	// missing or timed out. Never fatal: the strategy degrades to an
	// empty result.
	ErrStrategyUnavailable = errors.New("strategy unavailable")
)

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
