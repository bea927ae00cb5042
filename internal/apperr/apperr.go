// Package apperr classifies failures of the reservation core so that callers
// can tell malformed input from rule violations and state conflicts.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input (date, hour, year, interval shape).
	ErrValidation = errors.New("validation error")
	// ErrPolicy marks a well-formed request that breaks a booking rule.
	ErrPolicy = errors.New("policy violation")
	// ErrNotFound marks a missing room, order or occupancy.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a failed transition guard or an unavailable room.
	ErrConflict = errors.New("state conflict")
	// ErrForbidden marks an acting user who does not own the resource.
	ErrForbidden = errors.New("forbidden")
)

var kinds = []error{ErrValidation, ErrPolicy, ErrNotFound, ErrConflict, ErrForbidden}

func Validation(format string, args ...any) error { return wrap(ErrValidation, format, args...) }
func Policy(format string, args ...any) error     { return wrap(ErrPolicy, format, args...) }
func NotFound(format string, args ...any) error   { return wrap(ErrNotFound, format, args...) }
func Conflict(format string, args ...any) error   { return wrap(ErrConflict, format, args...) }
func Forbidden(format string, args ...any) error  { return wrap(ErrForbidden, format, args...) }

func wrap(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Error is a classified error. Its message is safe to show to end users.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the kind sentinel to errors.Is.
func (e *Error) Unwrap() error { return e.kind }

// Kind returns the classification sentinel of err, or nil when err is not classified.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsClassified reports whether err carries one of the kinds above.
func IsClassified(err error) bool {
	return Kind(err) != nil
}
