package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// InvalidStateError indicates an operation attempted from a state that does
// not permit it (eg. editing a finalized attendance session, approving an
// already-terminal submission).
type InvalidStateError struct {
	message string
}

func NewInvalidStateError(msg string) error {
	return &InvalidStateError{message: msg}
}

func (err InvalidStateError) Error() string {
	return err.message
}

func IsInvalidState(err error) bool {
	_, ok := errors.Cause(err).(*InvalidStateError)
	return ok
}

// RoleMismatchError indicates the actor lacks the role required for a
// workflow transition. Surfaced as an access denial, not a generic failure.
type RoleMismatchError struct {
	message string
}

func NewRoleMismatchError(msg string) error {
	return &RoleMismatchError{message: msg}
}

func (err RoleMismatchError) Error() string {
	return err.message
}

func IsRoleMismatch(err error) bool {
	_, ok := errors.Cause(err).(*RoleMismatchError)
	return ok
}

// ConflictError indicates a concurrent write was detected at the store layer.
// It is surfaced as-is; callers must not retry automatically.
type ConflictError struct {
	message string
}

func NewConflictError(msg string) error {
	return &ConflictError{message: msg}
}

func (err ConflictError) Error() string {
	return err.message
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
