package keybase

import (
	"errors"
	"fmt"
)

// ErrCorrupt is returned by Load and Open in strict mode when the file exists
// but does not decode into a database document.
var ErrCorrupt = errors.New("database file is corrupt")

// IOError reports a failed read or write of the backing file.
// The underlying *fs.PathError stays reachable through errors.Is and errors.As.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("keybase: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
