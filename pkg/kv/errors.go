package kv

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by store operations.
var (
	// ErrConnectionClosed is returned by any operation other than IsClosed
	// once the store has been closed.
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrConnectionAlreadyClosed is returned by Close on a closed store.
	ErrConnectionAlreadyClosed = errors.New("connection is already closed")

	// ErrTypeMismatch is returned when a stored value cannot be read as the
	// requested type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnsupportedValue is returned by Set when a value cannot be
	// represented in the file format, such as a channel or a NaN.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// TypeMismatchError describes a typed read that did not match the stored value.
// It matches ErrTypeMismatch under errors.Is.
type TypeMismatchError struct {
	Key  string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("key %q: cannot read %s as %s", e.Key, e.Got, e.Want)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}
