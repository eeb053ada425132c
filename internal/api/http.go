package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keybase/pkg/codec"
	"github.com/heysubinoy/keybase/pkg/kv"
)

// Server wraps a kv.Store and exposes HTTP endpoints for KV operations.
// The store must be safe for concurrent use; wrap a connection in
// store.Locked before handing it over.
type Server struct {
	Store  kv.Store
	Logger hclog.Logger
}

// NewServer creates a new HTTP server with the given store.
func NewServer(store kv.Store, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		Store:  store,
		Logger: logger.Named("http"),
	}
}

// RegisterRoutes registers all HTTP handlers on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/get", s.handleGet)
	mux.HandleFunc("/exists", s.handleExists)
	mux.HandleFunc("/keys", s.handleKeys)
	mux.HandleFunc("/set", s.handleSet)
	mux.HandleFunc("/delete", s.handleDelete)
	mux.HandleFunc("/save", s.handleSave)
}

// handleGet handles GET /get?key=foo requests.
// Responds with {"key": "foo", "value": ...}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	value, ok, err := s.Store.Get(key)
	if err != nil {
		s.writeError(w, "get", err)
		return
	}
	if !ok {
		http.Error(w, "Key not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{"key": key, "value": value})
}

// handleExists handles GET /exists?key=foo requests.
func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	ok, err := s.Store.Exists(key)
	if err != nil {
		s.writeError(w, "exists", err)
		return
	}

	writeJSON(w, map[string]any{"key": key, "exists": ok})
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	keys, err := s.Store.Keys()
	if err != nil {
		s.writeError(w, "keys", err)
		return
	}

	writeJSON(w, map[string]any{"keys": keys})
}

// handleSet handles POST /set requests with JSON body.
// Expects: {"key": "foo", "value": <any JSON value>}
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Key == "" {
		http.Error(w, "Missing key field", http.StatusBadRequest)
		return
	}

	value, err := codec.Normalize(req.Value)
	if err != nil {
		http.Error(w, "Invalid value: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Store.Set(req.Key, value); err != nil {
		s.writeError(w, "set", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDelete handles POST /delete requests with JSON body.
// Expects: {"key": "foo"}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Key string `json:"key"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Key == "" {
		http.Error(w, "Missing key field", http.StatusBadRequest)
		return
	}

	if err := s.Store.Remove(req.Key); err != nil {
		s.writeError(w, "delete", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSave handles POST /save and flushes the database to its file.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.Store.Save(); err != nil {
		s.writeError(w, "save", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		s.Logger.Error("request failed", "op", op, "error", err)
	}
	http.Error(w, err.Error(), code)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, kv.ErrConnectionClosed), errors.Is(err, kv.ErrConnectionAlreadyClosed):
		return http.StatusConflict
	case errors.Is(err, kv.ErrTypeMismatch), errors.Is(err, kv.ErrUnsupportedValue):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
