package kv

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/heysubinoy/keybase/pkg/codec"
)

// Get reads key from s and converts it to T.
// A missing key yields the zero value, false and no error.
//
// Numbers are interchangeable between numeric types as long as the stored
// value fits the target exactly: decoded files only carry int64 and float64,
// so an int written before a save reads back through the same accessor
// afterwards. An integer too large for a float's mantissa is a mismatch.
// Anything else, such as a string read as an int, is a *TypeMismatchError.
func Get[T Scalar](s Store, key string) (T, bool, error) {
	var zero T
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return zero, ok, err
	}
	v, err := convert[T](key, raw)
	if err != nil {
		return zero, true, err
	}
	return v, true, nil
}

// Set stores v under key.
func Set[T Scalar](s Store, key string, v T) error {
	return s.Set(key, v)
}

// GetObject decodes the structured value stored under key into a T.
func GetObject[T any](s Store, key string) (T, bool, error) {
	var out T
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return out, ok, err
	}
	if err := codec.Bind(raw, &out); err != nil {
		return out, true, &TypeMismatchError{Key: key, Want: fmt.Sprintf("%T", out), Got: typeName(raw)}
	}
	return out, true, nil
}

// SetObject stores v in the generic form the file format produces,
// so the value reads back identically before and after a save.
func SetObject(s Store, key string, v any) error {
	generic, err := codec.Generic(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedValue, key, err)
	}
	return s.Set(key, generic)
}

func convert[T Scalar](key string, raw any) (T, error) {
	var out T
	ok := true
	switch p := any(&out).(type) {
	case *string:
		*p, ok = raw.(string)
	case *bool:
		*p, ok = raw.(bool)
	case *float64:
		*p, ok = toFloat(raw, 64)
	case *float32:
		var f float64
		f, ok = toFloat(raw, 32)
		if ok && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			ok = false
		}
		*p = float32(f)
	case *int:
		var n int64
		n, ok = toInt(raw, math.MinInt, math.MaxInt)
		*p = int(n)
	case *int8:
		var n int64
		n, ok = toInt(raw, math.MinInt8, math.MaxInt8)
		*p = int8(n)
	case *int16:
		var n int64
		n, ok = toInt(raw, math.MinInt16, math.MaxInt16)
		*p = int16(n)
	case *int32:
		var n int64
		n, ok = toInt(raw, math.MinInt32, math.MaxInt32)
		*p = int32(n)
	case *int64:
		*p, ok = toInt(raw, math.MinInt64, math.MaxInt64)
	case *uint8:
		var n int64
		n, ok = toInt(raw, 0, math.MaxUint8)
		*p = uint8(n)
	}
	if !ok {
		var zero T
		return zero, &TypeMismatchError{Key: key, Want: fmt.Sprintf("%T", zero), Got: typeName(raw)}
	}
	return out, nil
}

// asInt64 reports whether raw holds an integer and, if so, whether that
// integer fits in an int64.
func asInt64(raw any) (n int64, isInt, ok bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true, true
	case int8:
		return int64(v), true, true
	case int16:
		return int64(v), true, true
	case int32:
		return int64(v), true, true
	case int64:
		return v, true, true
	case uint8:
		return int64(v), true, true
	case uint16:
		return int64(v), true, true
	case uint32:
		return int64(v), true, true
	case uint:
		return int64(v), true, uint64(v) <= math.MaxInt64
	case uint64:
		return int64(v), true, v <= math.MaxInt64
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true, true
		}
	}
	return 0, false, false
}

func toInt(raw any, lo, hi int64) (int64, bool) {
	if n, isInt, ok := asInt64(raw); isInt {
		if !ok || n < lo || n > hi {
			return 0, false
		}
		return n, true
	}
	switch v := raw.(type) {
	case float32:
		return integral(float64(v), lo, hi)
	case float64:
		return integral(v, lo, hi)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f, lo, hi)
	}
	return 0, false
}

// integral accepts f only if it is a whole number inside [lo, hi].
func integral(f float64, lo, hi int64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// 2^63 is the first float64 outside int64.
	if f < -9223372036854775808.0 || f >= 9223372036854775808.0 {
		return 0, false
	}
	n := int64(f)
	if n < lo || n > hi {
		return 0, false
	}
	return n, true
}

// toFloat converts raw for a float target of the given bit size.
// Integers must be exactly representable at that size; floats are
// narrowed the way the format itself narrows them.
func toFloat(raw any, bits int) (float64, bool) {
	if n, isInt, ok := asInt64(raw); isInt {
		if !ok {
			return 0, false
		}
		f := float64(n)
		if f >= 9223372036854775808.0 || int64(f) != n {
			return 0, false
		}
		if bits == 32 && float64(float32(f)) != f {
			return 0, false
		}
		return f, true
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
