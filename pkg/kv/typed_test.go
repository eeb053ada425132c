package kv_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/heysubinoy/keybase/pkg/keybase"
	"github.com/heysubinoy/keybase/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*keybase.Connection, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.json")
	conn, err := keybase.Open(path)
	require.NoError(t, err)
	return conn, path
}

// reopen saves and closes conn, then opens a fresh connection on path.
func reopen(t *testing.T, conn *keybase.Connection, path string) *keybase.Connection {
	t.Helper()
	require.NoError(t, conn.Save())
	require.NoError(t, conn.Close())
	next, err := keybase.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		if !next.IsClosed() {
			next.Close()
		}
	})
	return next
}

func TestTypedRoundTrip(t *testing.T) {
	conn, path := openTemp(t)

	require.NoError(t, kv.Set(conn, "string", "World"))
	require.NoError(t, kv.Set(conn, "bool", true))
	require.NoError(t, kv.Set(conn, "int", 42))
	require.NoError(t, kv.Set(conn, "int8", int8(-8)))
	require.NoError(t, kv.Set(conn, "int16", int16(1600)))
	require.NoError(t, kv.Set(conn, "int32", int32(-320000)))
	require.NoError(t, kv.Set(conn, "int64", int64(1)<<60))
	require.NoError(t, kv.Set(conn, "byte", byte(200)))
	require.NoError(t, kv.Set(conn, "float32", float32(0.25)))
	require.NoError(t, kv.Set(conn, "float64", 3.5))

	check := func(t *testing.T, s kv.Store) {
		s1, ok, err := kv.Get[string](s, "string")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "World", s1)

		b, _, err := kv.Get[bool](s, "bool")
		require.NoError(t, err)
		assert.True(t, b)

		i, _, err := kv.Get[int](s, "int")
		require.NoError(t, err)
		assert.Equal(t, 42, i)

		i8, _, err := kv.Get[int8](s, "int8")
		require.NoError(t, err)
		assert.Equal(t, int8(-8), i8)

		i16, _, err := kv.Get[int16](s, "int16")
		require.NoError(t, err)
		assert.Equal(t, int16(1600), i16)

		i32, _, err := kv.Get[int32](s, "int32")
		require.NoError(t, err)
		assert.Equal(t, int32(-320000), i32)

		i64, _, err := kv.Get[int64](s, "int64")
		require.NoError(t, err)
		assert.Equal(t, int64(1)<<60, i64)

		u8, _, err := kv.Get[byte](s, "byte")
		require.NoError(t, err)
		assert.Equal(t, byte(200), u8)

		f32, _, err := kv.Get[float32](s, "float32")
		require.NoError(t, err)
		assert.Equal(t, float32(0.25), f32)

		f64, _, err := kv.Get[float64](s, "float64")
		require.NoError(t, err)
		assert.Equal(t, 3.5, f64)
	}

	t.Run("in memory", func(t *testing.T) { check(t, conn) })
	t.Run("after reopen", func(t *testing.T) { check(t, reopen(t, conn, path)) })
}

func TestGetMissingKey(t *testing.T) {
	conn, _ := openTemp(t)

	v, ok, err := kv.Get[string](conn, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)

	obj, ok, err := kv.GetObject[map[string]any](conn, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, obj)
}

func TestTypeMismatch(t *testing.T) {
	conn, _ := openTemp(t)
	require.NoError(t, kv.Set(conn, "greeting", "hello"))

	_, ok, err := kv.Get[int](conn, "greeting")
	assert.True(t, ok)
	require.ErrorIs(t, err, kv.ErrTypeMismatch)

	var mismatch *kv.TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "greeting", mismatch.Key)
	assert.Equal(t, "int", mismatch.Want)
	assert.Equal(t, "string", mismatch.Got)

	// The stored value is left alone.
	s, _, err := kv.Get[string](conn, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	require.NoError(t, kv.Set(conn, "count", 7))
	_, _, err = kv.Get[string](conn, "count")
	assert.ErrorIs(t, err, kv.ErrTypeMismatch)
	_, _, err = kv.Get[bool](conn, "count")
	assert.ErrorIs(t, err, kv.ErrTypeMismatch)
}

func TestNumericWidening(t *testing.T) {
	conn, _ := openTemp(t)
	require.NoError(t, kv.Set(conn, "small", 100))
	require.NoError(t, kv.Set(conn, "big", 300))
	require.NoError(t, kv.Set(conn, "whole", 12.0))
	require.NoError(t, kv.Set(conn, "half", 1.5))
	require.NoError(t, kv.Set(conn, "negative", -1))

	i8, _, err := kv.Get[int8](conn, "small")
	require.NoError(t, err)
	assert.Equal(t, int8(100), i8)

	f, _, err := kv.Get[float64](conn, "small")
	require.NoError(t, err)
	assert.Equal(t, 100.0, f)

	n, _, err := kv.Get[int](conn, "whole")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, _, err = kv.Get[int8](conn, "big")
	assert.ErrorIs(t, err, kv.ErrTypeMismatch, "300 does not fit in int8")

	_, _, err = kv.Get[int](conn, "half")
	assert.ErrorIs(t, err, kv.ErrTypeMismatch, "1.5 is not a whole number")

	_, _, err = kv.Get[byte](conn, "negative")
	assert.ErrorIs(t, err, kv.ErrTypeMismatch)
}

func TestFloatTargetsRequireExactIntegers(t *testing.T) {
	conn, _ := openTemp(t)
	require.NoError(t, kv.Set(conn, "pow60", int64(1)<<60))
	require.NoError(t, kv.Set(conn, "pow60+1", int64(1)<<60+1))
	require.NoError(t, kv.Set(conn, "pow24", 1<<24))
	require.NoError(t, kv.Set(conn, "pow24+1", 1<<24+1))
	require.NoError(t, kv.Set(conn, "tenth", 0.1))

	f, _, err := kv.Get[float64](conn, "pow60")
	require.NoError(t, err)
	assert.Equal(t, float64(1<<60), f)

	_, _, err = kv.Get[float64](conn, "pow60+1")
	assert.ErrorIs(t, err, kv.ErrTypeMismatch, "2^60+1 has no exact float64")

	f32, _, err := kv.Get[float32](conn, "pow24")
	require.NoError(t, err)
	assert.Equal(t, float32(1<<24), f32)

	_, _, err = kv.Get[float32](conn, "pow24+1")
	assert.ErrorIs(t, err, kv.ErrTypeMismatch, "2^24+1 has no exact float32")

	f32, _, err = kv.Get[float32](conn, "tenth")
	require.NoError(t, err)
	assert.Equal(t, float32(0.1), f32)
}

type profile struct {
	Name  string   `json:"name"`
	Age   int      `json:"age"`
	Tags  []string `json:"tags"`
	Admin bool     `json:"admin"`
}

func TestObjectRoundTrip(t *testing.T) {
	conn, path := openTemp(t)
	want := profile{Name: "ada", Age: 36, Tags: []string{"math", "engines"}, Admin: true}
	require.NoError(t, kv.SetObject(conn, "user", want))

	got, ok, err := kv.GetObject[profile](conn, "user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	conn = reopen(t, conn, path)
	got, _, err = kv.GetObject[profile](conn, "user")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The raw value is the generic form, the same before and after a save.
	raw, _, err := conn.Get("user")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":  "ada",
		"age":   int64(36),
		"tags":  []any{"math", "engines"},
		"admin": true,
	}, raw)
}

func TestObjectMismatch(t *testing.T) {
	conn, _ := openTemp(t)
	require.NoError(t, kv.Set(conn, "user", "not an object"))

	_, ok, err := kv.GetObject[profile](conn, "user")
	assert.True(t, ok)
	assert.ErrorIs(t, err, kv.ErrTypeMismatch)
}

func TestSetObjectUnencodable(t *testing.T) {
	conn, _ := openTemp(t)

	err := kv.SetObject(conn, "ch", make(chan int))
	require.ErrorIs(t, err, kv.ErrUnsupportedValue)

	ok, err := conn.Exists("ch")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTypedAccessOnClosedStore(t *testing.T) {
	conn, _ := openTemp(t)
	require.NoError(t, conn.Close())

	_, _, err := kv.Get[string](conn, "k")
	assert.ErrorIs(t, err, kv.ErrConnectionClosed)
	assert.ErrorIs(t, kv.Set(conn, "k", 1), kv.ErrConnectionClosed)
	_, _, err = kv.GetObject[profile](conn, "k")
	assert.ErrorIs(t, err, kv.ErrConnectionClosed)
	assert.ErrorIs(t, kv.SetObject(conn, "k", profile{}), kv.ErrConnectionClosed)
}
