// Package codec implements the structured-text formats a keybase file can be
// written in. Both formats share the same top-level shape: a single object
// whose "data" field holds the key/value mapping.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Document is the top-level shape of a database file.
type Document struct {
	Data map[string]any `json:"data" yaml:"data"`
}

// Codec encodes and decodes whole documents.
type Codec interface {
	// Name returns the format name, "json" or "yaml".
	Name() string
	Encode(doc Document) ([]byte, error)
	// Decode parses b. Values in the returned mapping are normalised:
	// integers are int64, other numbers float64, nested objects map[string]any.
	Decode(b []byte) (Document, error)
}

// ByName returns the codec registered under name. pretty only affects JSON.
func ByName(name string, pretty bool) (Codec, error) {
	switch strings.ToLower(name) {
	case "json":
		return JSON{Pretty: pretty}, nil
	case "yaml", "yml":
		return YAML{}, nil
	}
	return nil, fmt.Errorf("unknown format %q", name)
}

// ForPath picks a codec from the file extension. Anything that is not
// .yaml or .yml is treated as pretty-printed JSON.
func ForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML{}
	}
	return JSON{Pretty: true}
}

// Normalize rewrites decoded values in place into the canonical forms listed
// on Codec.Decode and returns the result. It fails on numbers that have no
// canonical form: integers outside int64 and floats outside float64.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		return normalizeNumber(t)
	case int:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return nil, fmt.Errorf("number %d overflows int64", t)
		}
		return int64(t), nil
	case map[string]any:
		for k, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			m[fmt.Sprint(k)] = n
		}
		return m, nil
	case []any:
		for i, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	}
	return v, nil
}

func normalizeNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	if !strings.ContainsAny(string(n), ".eE") {
		return nil, fmt.Errorf("number %s overflows int64", n)
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("number %s: %w", n, err)
	}
	return f, nil
}

// Unmarshal decodes a single JSON value into its normalised form.
func Unmarshal(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after value")
	}
	return Normalize(out)
}

// Generic converts an arbitrary serialisable value into the normalised form
// a decoded document would hold for it.
func Generic(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Unmarshal(b)
}

// Bind copies a generic value into dst, which must be a pointer.
func Bind(v any, dst any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
