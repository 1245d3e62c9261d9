// Package errors defines the sentinel errors surfaced by the query-execution
// layer and an AppError wrapper that attaches a human-readable message while
// keeping the sentinel reachable through errors.Is.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrFieldNotIndexed       = errors.New("field not indexed")
	ErrMissingTermDictionary = errors.New("missing term dictionary")
	ErrIndexCorrupted        = errors.New("index corrupted")
	ErrDocNotMatched         = errors.New("document does not match")
	ErrSegmentUnavailable    = errors.New("segment unavailable")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInternal              = errors.New("internal error")
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsIndexFault reports whether err originates from an unreadable or
// inconsistent segment, as opposed to a caller mistake.
func IsIndexFault(err error) bool {
	return errors.Is(err, ErrIndexCorrupted) ||
		errors.Is(err, ErrMissingTermDictionary) ||
		errors.Is(err, ErrSegmentUnavailable)
}

// ExitCode maps an error to a process exit status for command-line tools.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrDocNotMatched):
		return 2
	case errors.Is(err, ErrFieldNotIndexed):
		return 3
	case IsIndexFault(err):
		return 4
	default:
		return 1
	}
}
