package keybase

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keybase/pkg/codec"
	"github.com/heysubinoy/keybase/pkg/kv"
)

// Connection is an open handle on one database file.
//
// A Connection is not safe for concurrent use. Callers that share one must
// serialise access themselves, for example with internal/store.Locked.
type Connection struct {
	data   map[string]any
	path   string
	codec  codec.Codec
	mode   fs.FileMode
	closed bool
	logger hclog.Logger
}

// Compile-time check to ensure Connection implements kv.Store.
var _ kv.Store = (*Connection)(nil)

// Get returns the value stored under key.
func (c *Connection) Get(key string) (any, bool, error) {
	if c.closed {
		return nil, false, kv.ErrConnectionClosed
	}
	v, ok := c.data[key]
	return v, ok, nil
}

// Set inserts or replaces the value stored under key.
//
// The value is stored in the form a reload would produce (int64, float64,
// map[string]any, []any), so reads see the same value before and after Save.
// Values the format cannot hold, such as channels or NaN, fail with
// kv.ErrUnsupportedValue and leave the mapping unchanged.
func (c *Connection) Set(key string, value any) error {
	if c.closed {
		return kv.ErrConnectionClosed
	}
	generic, err := codec.Generic(value)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", kv.ErrUnsupportedValue, key, err)
	}
	c.data[key] = generic
	return nil
}

// Remove deletes key. Removing a missing key does nothing.
func (c *Connection) Remove(key string) error {
	if c.closed {
		return kv.ErrConnectionClosed
	}
	delete(c.data, key)
	return nil
}

// Exists reports whether key is present.
func (c *Connection) Exists(key string) (bool, error) {
	if c.closed {
		return false, kv.ErrConnectionClosed
	}
	_, ok := c.data[key]
	return ok, nil
}

// Keys returns the stored keys in ascending order.
func (c *Connection) Keys() ([]string, error) {
	if c.closed {
		return nil, kv.ErrConnectionClosed
	}
	return slices.Sorted(maps.Keys(c.data)), nil
}

// Len returns the number of stored keys.
func (c *Connection) Len() (int, error) {
	if c.closed {
		return 0, kv.ErrConnectionClosed
	}
	return len(c.data), nil
}

// Save encodes the whole mapping and overwrites the backing file with it.
// Changes made to the file by anyone else since Open are lost.
// A failed write leaves the in-memory mapping untouched.
func (c *Connection) Save() error {
	if c.closed {
		return kv.ErrConnectionClosed
	}
	b, err := c.codec.Encode(codec.Document{Data: c.data})
	if err != nil {
		return fmt.Errorf("keybase: encode %s: %w", c.path, err)
	}
	if err := os.WriteFile(c.path, b, c.mode); err != nil {
		return &IOError{Op: "write", Path: c.path, Err: err}
	}
	c.logger.Debug("saved", "keys", len(c.data), "bytes", len(b))
	return nil
}

// Close drops the in-memory mapping and marks the connection closed.
// It does not save.
func (c *Connection) Close() error {
	if c.closed {
		return kv.ErrConnectionAlreadyClosed
	}
	c.closed = true
	clear(c.data)
	c.data = nil
	c.logger.Debug("connection closed")
	return nil
}

// IsClosed reports whether Close has been called. It works in either state.
func (c *Connection) IsClosed() bool {
	return c.closed
}

// Path returns the file the connection was opened on.
func (c *Connection) Path() string {
	return c.path
}
