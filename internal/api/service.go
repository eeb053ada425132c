package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heysubinoy/keybase/pkg/codec"
	"github.com/heysubinoy/keybase/pkg/kv"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "keybase.KV"

// The service is declared by hand over protobuf well-known types, so there
// is no .proto file to generate from. Stored values travel as JSON text so
// int64 values keep every digit; structpb numbers are doubles.
//
//	Get(StringValue) -> BytesValue (JSON)
//	Exists(StringValue) -> BoolValue
//	Keys(Empty) -> ListValue
//	Set(Struct{key: string, json: string}) -> Empty
//	Delete(StringValue) -> Empty
//	Save(Empty) -> Empty

// KVServer is the server API for the keybase.KV service.
type KVServer interface {
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Exists(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Keys(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Set(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Delete(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Save(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

var kvServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KVServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Get", KVServer.Get),
		unary("Exists", KVServer.Exists),
		unary("Keys", KVServer.Keys),
		unary("Set", KVServer.Set),
		unary("Delete", KVServer.Delete),
		unary("Save", KVServer.Save),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "keybase/kv",
}

// RegisterKVServer registers srv on s.
func RegisterKVServer(s grpc.ServiceRegistrar, srv KVServer) {
	s.RegisterService(&kvServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(KVServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(KVServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// KVClient is the client API for the keybase.KV service.
type KVClient struct {
	cc grpc.ClientConnInterface
}

// NewKVClient creates a client that issues calls over cc.
func NewKVClient(cc grpc.ClientConnInterface) *KVClient {
	return &KVClient{cc: cc}
}

func (c *KVClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
}

// Get returns the value stored under key in normalised form.
// A missing key is a NotFound status.
func (c *KVClient) Get(ctx context.Context, key string) (any, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, "Get", wrapperspb.String(key), out); err != nil {
		return nil, err
	}
	return codec.Unmarshal(out.GetValue())
}

// Exists reports whether key is present on the server.
func (c *KVClient) Exists(ctx context.Context, key string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, "Exists", wrapperspb.String(key), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Keys lists the server's keys in ascending order.
func (c *KVClient) Keys(ctx context.Context) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.invoke(ctx, "Keys", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		keys = append(keys, v.GetStringValue())
	}
	return keys, nil
}

// Set sends value as JSON and stores it under key.
func (c *KVClient) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", kv.ErrUnsupportedValue, key, err)
	}
	in, err := structpb.NewStruct(map[string]any{"key": key, "json": string(b)})
	if err != nil {
		return err
	}
	return c.invoke(ctx, "Set", in, new(emptypb.Empty))
}

// Delete removes key on the server.
func (c *KVClient) Delete(ctx context.Context, key string) error {
	return c.invoke(ctx, "Delete", wrapperspb.String(key), new(emptypb.Empty))
}

// Save asks the server to write its database file.
func (c *KVClient) Save(ctx context.Context) error {
	return c.invoke(ctx, "Save", &emptypb.Empty{}, new(emptypb.Empty))
}
