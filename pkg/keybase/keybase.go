// Package keybase is an embedded single-file key-value database.
//
// A Connection loads the whole file into memory when it is opened, serves
// reads and writes from that copy, and writes the full mapping back only when
// Save is called. The file is not locked: two connections on the same path
// each hold their own copy, and whichever saves last wins.
//
//	err := keybase.With("app.json", func(c *keybase.Connection) error {
//		if err := kv.Set(c, "Hello", "World"); err != nil {
//			return err
//		}
//		return c.Save()
//	})
package keybase

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"
)

// Load reads the database file at path and returns its mapping.
//
// A missing or empty file yields an empty mapping. A file that does not
// decode also yields an empty mapping and a warning, unless WithStrictLoad is
// set, in which case the error wraps ErrCorrupt. Any other read failure is
// returned as an *IOError.
func Load(path string, opts ...Option) (map[string]any, error) {
	return load(path, buildOptions(path, opts))
}

func load(path string, o *options) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return map[string]any{}, nil
	}

	doc, err := o.codec.Decode(b)
	if err != nil {
		if o.strict {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
		}
		o.logger.Warn("database file does not decode, starting empty",
			"path", path, "format", o.codec.Name(), "error", err)
		return map[string]any{}, nil
	}
	if doc.Data == nil {
		return map[string]any{}, nil
	}
	return doc.Data, nil
}

// Open loads the file at path and returns an open connection to it.
// The file does not have to exist; it is created by the first Save.
func Open(path string, opts ...Option) (*Connection, error) {
	o := buildOptions(path, opts)
	data, err := load(path, o)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		data:   data,
		path:   path,
		codec:  o.codec,
		mode:   o.mode,
		logger: o.logger.Named("keybase").With("conn", uuid.NewString(), "path", path),
	}
	c.logger.Debug("connection opened", "keys", len(data), "format", o.codec.Name())
	return c, nil
}

// With opens path, passes the connection to fn and closes it afterwards,
// also when fn panics. It never saves: fn must call Save to persist changes.
// If fn already closed the connection, With leaves it alone.
func With(path string, fn func(*Connection) error, opts ...Option) (err error) {
	c, err := Open(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if c.IsClosed() {
			return
		}
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(c)
}
