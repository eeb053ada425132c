package kv

// Store defines the interface for a file-backed key-value store.
// The file-backed keybase.Connection implements it, and the wrappers in
// internal/store decorate it, so the API layer never depends on a concrete type.
//
// Every method except IsClosed fails with ErrConnectionClosed once the store
// has been closed.
type Store interface {
	// Get retrieves the value associated with the given key.
	// Returns the value and true if the key exists, or nil and false if not.
	// A missing key is not an error.
	Get(key string) (any, bool, error)

	// Set stores a key-value pair, replacing any previous value for key.
	Set(key string, value any) error

	// Remove deletes a key. Removing a missing key is a no-op.
	Remove(key string) error

	// Exists reports whether key is currently present.
	Exists(key string) (bool, error)

	// Keys returns the present keys in ascending order.
	Keys() ([]string, error)

	// Save writes the full mapping to the backing file.
	Save() error

	// Close releases the mapping. A second Close fails with
	// ErrConnectionAlreadyClosed. Close never saves.
	Close() error

	// IsClosed reports whether Close has been called. It never fails.
	IsClosed() bool
}

// Scalar is the closed set of primitive types the typed accessors accept.
// uint8 doubles as byte.
type Scalar interface {
	string | bool | int | int8 | int16 | int32 | int64 | uint8 | float32 | float64
}
