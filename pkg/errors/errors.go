// Package errors defines the error taxonomy shared by the store, index,
// query and synthesis packages. Callers match on the sentinels with
// errors.Is; Kind maps an error onto a short label for logs and metrics.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKey      = errors.New("unknown key")
	ErrUnknownTerm     = errors.New("unknown term")
	ErrMalformedQuery  = errors.New("malformed query")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSinkUnavailable = errors.New("reporting sink unavailable")
)

// Error attaches a human-readable message to one of the sentinels above.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *Error {
	return &Error{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *Error {
	return &Error{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Kind returns a stable label for err, suitable as a metrics label value.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrUnknownKey):
		return "unknown_key"
	case errors.Is(err, ErrUnknownTerm):
		return "unknown_term"
	case errors.Is(err, ErrMalformedQuery):
		return "malformed_query"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrSinkUnavailable):
		return "sink_unavailable"
	default:
		return "internal"
	}
}
