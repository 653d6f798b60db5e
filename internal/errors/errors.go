// Package errors defines the sentinel errors the vault reports and small
// helpers for wrapping and inspecting them. Use cases return these so
// callers can branch on Is/As without knowing which layer failed.
package errors

import (
	"errors"
	"fmt"
)

// Sentinels shared across the vault's modules.
var (
	// ErrNotFound means the requested record or file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the operation collides with existing data, such as
	// a name that is already taken.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput means the caller's input failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// New creates an error with the given message. Thin wrapper around
// errors.New so callers import a single errors package.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message, preserving the chain for Is/As. Returns
// nil when err is nil so call sites can wrap unconditionally.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join combines errors into one, discarding nil values.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
