package registry

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup by dataset id yields nothing.
var ErrNotFound = errors.New("dataset not found")

// ValidationError rejects a malformed record before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// IsValidation checks whether an error is a record validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CorruptionError signals that the persisted document is unreadable or
// malformed. It must propagate; a corrupt document is never served as an
// empty store.
type CorruptionError struct {
	Path string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("document store corrupt at %s: %v", e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// IsCorruption checks whether an error is a document corruption failure.
func IsCorruption(err error) bool {
	var ce *CorruptionError
	return errors.As(err, &ce)
}
