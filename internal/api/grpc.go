package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keybase/pkg/codec"
	"github.com/heysubinoy/keybase/pkg/kv"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCServer implements KVServer.
// It wraps a kv.Store and exposes it over gRPC.
type GRPCServer struct {
	Store  kv.Store
	Logger hclog.Logger
}

// Compile-time check to ensure GRPCServer implements KVServer.
var _ KVServer = (*GRPCServer)(nil)

// NewGRPCServer creates a new gRPC server with the given store.
func NewGRPCServer(store kv.Store, logger hclog.Logger) *GRPCServer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCServer{
		Store:  store,
		Logger: logger.Named("grpc"),
	}
}

// Get retrieves a value by key and returns it as JSON.
func (s *GRPCServer) Get(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	value, found, err := s.Store.Get(req.GetValue())
	if err != nil {
		return nil, s.statusError("get", err)
	}
	if !found {
		return nil, status.Errorf(codes.NotFound, "key %q not found", req.GetValue())
	}

	b, err := json.Marshal(value)
	if err != nil {
		return nil, s.statusError("get", err)
	}
	return wrapperspb.Bytes(b), nil
}

// Exists reports whether a key is present.
func (s *GRPCServer) Exists(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	ok, err := s.Store.Exists(req.GetValue())
	if err != nil {
		return nil, s.statusError("exists", err)
	}
	return wrapperspb.Bool(ok), nil
}

// Keys lists all keys in ascending order.
func (s *GRPCServer) Keys(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	keys, err := s.Store.Keys()
	if err != nil {
		return nil, s.statusError("keys", err)
	}

	values := make([]*structpb.Value, 0, len(keys))
	for _, k := range keys {
		values = append(values, structpb.NewStringValue(k))
	}
	return &structpb.ListValue{Values: values}, nil
}

// Set stores a key-value pair. The request carries a "key" string and the
// value as JSON text in "json".
func (s *GRPCServer) Set(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fields := req.GetFields()
	key := fields["key"].GetStringValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}
	raw, ok := fields["json"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "json value is required")
	}
	value, err := codec.Unmarshal([]byte(raw.GetStringValue()))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid value: %v", err)
	}

	if err := s.Store.Set(key, value); err != nil {
		return nil, s.statusError("set", err)
	}
	return &emptypb.Empty{}, nil
}

// Delete removes a key from the store.
func (s *GRPCServer) Delete(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	if err := s.Store.Remove(req.GetValue()); err != nil {
		return nil, s.statusError("delete", err)
	}
	return &emptypb.Empty{}, nil
}

// Save flushes the store to its backing file.
func (s *GRPCServer) Save(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.Store.Save(); err != nil {
		return nil, s.statusError("save", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) statusError(op string, err error) error {
	switch {
	case errors.Is(err, kv.ErrConnectionClosed), errors.Is(err, kv.ErrConnectionAlreadyClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, kv.ErrTypeMismatch), errors.Is(err, kv.ErrUnsupportedValue):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	s.Logger.Error("request failed", "op", op, "error", err)
	return status.Error(codes.Internal, err.Error())
}
