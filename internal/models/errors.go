package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the engine, the store and the transport. Callers
// match with errors.Is; detail types below wrap one of these.
var (
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrIncompleteRecordData = errors.New("incomplete record data")
	ErrConstraintViolation  = errors.New("constraint violation")
	ErrNotFound             = errors.New("not found")
)

// ConstraintError reports a uniqueness, foreign-key or check breach. The
// constraint name is whatever the store reported, or a field name for
// violations caught before the write.
type ConstraintError struct {
	Constraint string
	Reason     string
	Err        error
}

func (e *ConstraintError) Error() string {
	msg := "constraint violation"
	if e.Constraint != "" {
		msg += " on " + e.Constraint
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is makes errors.Is(err, ErrConstraintViolation) hold for every ConstraintError.
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraintViolation
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// Invalid builds a ConstraintError for a field rejected before reaching the store.
func Invalid(field, format string, args ...any) error {
	return &ConstraintError{Constraint: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError names the entity that could not be resolved.
func NotFoundError(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}
