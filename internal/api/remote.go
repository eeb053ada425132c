package api

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/heysubinoy/keybase/pkg/kv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RemoteStore is a kv.Store backed by a keybase.KV gRPC service.
// Closing it closes the local handle only; the server keeps its database open.
type RemoteStore struct {
	client  *KVClient
	conn    grpc.ClientConnInterface
	timeout time.Duration
	closed  bool
}

// Compile-time check to ensure RemoteStore implements kv.Store.
var _ kv.Store = (*RemoteStore)(nil)

// NewRemoteStore wraps cc. Every call is bounded by timeout.
func NewRemoteStore(cc grpc.ClientConnInterface, timeout time.Duration) *RemoteStore {
	return &RemoteStore{
		client:  NewKVClient(cc),
		conn:    cc,
		timeout: timeout,
	}
}

func (r *RemoteStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

// Get fetches key from the server. A NotFound status reports a missing key.
func (r *RemoteStore) Get(key string) (any, bool, error) {
	if r.closed {
		return nil, false, kv.ErrConnectionClosed
	}
	ctx, cancel := r.ctx()
	defer cancel()

	v, err := r.client.Get(ctx, key)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, remoteError(err)
	}
	return v, true, nil
}

// Set sends value to the server as JSON.
func (r *RemoteStore) Set(key string, value any) error {
	if r.closed {
		return kv.ErrConnectionClosed
	}
	ctx, cancel := r.ctx()
	defer cancel()

	return remoteError(r.client.Set(ctx, key, value))
}

// Remove deletes key on the server.
func (r *RemoteStore) Remove(key string) error {
	if r.closed {
		return kv.ErrConnectionClosed
	}
	ctx, cancel := r.ctx()
	defer cancel()

	return remoteError(r.client.Delete(ctx, key))
}

// Exists asks the server whether key is present.
func (r *RemoteStore) Exists(key string) (bool, error) {
	if r.closed {
		return false, kv.ErrConnectionClosed
	}
	ctx, cancel := r.ctx()
	defer cancel()

	ok, err := r.client.Exists(ctx, key)
	return ok, remoteError(err)
}

// Keys lists the keys present on the server.
func (r *RemoteStore) Keys() ([]string, error) {
	if r.closed {
		return nil, kv.ErrConnectionClosed
	}
	ctx, cancel := r.ctx()
	defer cancel()

	keys, err := r.client.Keys(ctx)
	return keys, remoteError(err)
}

// Save asks the server to write its database file.
func (r *RemoteStore) Save() error {
	if r.closed {
		return kv.ErrConnectionClosed
	}
	ctx, cancel := r.ctx()
	defer cancel()

	return remoteError(r.client.Save(ctx))
}

// Close closes the client side only; the server database stays open.
func (r *RemoteStore) Close() error {
	if r.closed {
		return kv.ErrConnectionAlreadyClosed
	}
	r.closed = true
	if c, ok := r.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// IsClosed reports whether Close has been called on this client.
func (r *RemoteStore) IsClosed() bool {
	return r.closed
}

// remoteError maps a server-side closed database back onto the sentinel.
func remoteError(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.FailedPrecondition {
		return fmt.Errorf("%w: %s", kv.ErrConnectionClosed, status.Convert(err).Message())
	}
	return err
}
