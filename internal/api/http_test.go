package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heysubinoy/keybase/internal/store"
	"github.com/heysubinoy/keybase/pkg/keybase"
	"github.com/heysubinoy/keybase/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*http.ServeMux, *store.InstrumentedStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	conn, err := keybase.Open(path)
	require.NoError(t, err)

	instrumented := store.NewInstrumentedStore(conn)
	mux := http.NewServeMux()
	NewServer(store.NewLocked(instrumented), nil).RegisterRoutes(mux)
	mux.HandleFunc("/metrics", MetricsHandler(instrumented))
	return mux, instrumented, path
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHTTPSetGetSave(t *testing.T) {
	mux, _, path := newTestServer(t)

	rec := do(mux, http.MethodPost, "/set", `{"key": "Hello", "value": "World"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(mux, http.MethodPost, "/set", `{"key": "n", "value": 12}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, http.MethodGet, "/get?key=Hello", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key": "Hello", "value": "World"}`, rec.Body.String())

	rec = do(mux, http.MethodGet, "/exists?key=n", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key": "n", "exists": true}`, rec.Body.String())

	rec = do(mux, http.MethodGet, "/keys", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"keys": ["Hello", "n"]}`, rec.Body.String())

	rec = do(mux, http.MethodPost, "/save", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	data, err := keybase.Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Hello": "World", "n": int64(12)}, data)
}

func TestHTTPSetNumbers(t *testing.T) {
	mux, _, path := newTestServer(t)

	rec := do(mux, http.MethodPost, "/set", `{"key": "n", "value": 9007199254740993}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, http.MethodPost, "/set", `{"key": "x", "value": 1e400}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/save", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	data, err := keybase.Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": int64(9007199254740993)}, data)
}

func TestHTTPDelete(t *testing.T) {
	mux, _, _ := newTestServer(t)
	do(mux, http.MethodPost, "/set", `{"key": "k", "value": true}`)

	rec := do(mux, http.MethodPost, "/delete", `{"key": "k"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(mux, http.MethodPost, "/delete", `{"key": "k"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(mux, http.MethodGet, "/get?key=k", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPBadRequests(t *testing.T) {
	mux, _, _ := newTestServer(t)

	assert.Equal(t, http.StatusMethodNotAllowed, do(mux, http.MethodPost, "/get?key=k", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(mux, http.MethodGet, "/set", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(mux, http.MethodGet, "/save", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/get", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/exists", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/set", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/set", `{"value": 1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/delete", `{}`).Code)
}

func TestHTTPClosedStore(t *testing.T) {
	mux, instrumented, _ := newTestServer(t)
	require.NoError(t, instrumented.Close())

	assert.Equal(t, http.StatusConflict, do(mux, http.MethodGet, "/get?key=k", "").Code)
	assert.Equal(t, http.StatusConflict, do(mux, http.MethodPost, "/set", `{"key": "k", "value": 1}`).Code)
	assert.Equal(t, http.StatusConflict, do(mux, http.MethodPost, "/save", "").Code)
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusConflict, httpStatus(kv.ErrConnectionAlreadyClosed))
	assert.Equal(t, http.StatusUnprocessableEntity, httpStatus(&kv.TypeMismatchError{Key: "k"}))
	assert.Equal(t, http.StatusUnprocessableEntity, httpStatus(kv.ErrUnsupportedValue))
	assert.Equal(t, http.StatusInternalServerError, httpStatus(&keybase.IOError{Op: "write"}))
}

func TestMetricsHandler(t *testing.T) {
	mux, _, _ := newTestServer(t)
	do(mux, http.MethodPost, "/set", `{"key": "k", "value": 1}`)
	do(mux, http.MethodGet, "/get?key=k", "")
	do(mux, http.MethodPost, "/save", "")

	rec := do(mux, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Operations map[string]uint64 `json:"operations"`
		Errors     uint64            `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.Operations["set"])
	assert.Equal(t, uint64(1), body.Operations["get"])
	assert.Equal(t, uint64(1), body.Operations["save"])
	assert.Zero(t, body.Errors)
}
