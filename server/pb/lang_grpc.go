// Package pb defines the pfq.lang.v1.Lang gRPC service.
//
// Every request and response is a google.protobuf.Struct; the field
// layout of each message is fixed by the conversion helpers in
// messages.go, so both ends agree without generated message types.
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "pfq.lang.v1.Lang"

// Full method names.
const (
	Lang_Compile_FullMethodName  = "/" + ServiceName + "/Compile"
	Lang_Get_FullMethodName      = "/" + ServiceName + "/Get"
	Lang_List_FullMethodName     = "/" + ServiceName + "/List"
	Lang_Delete_FullMethodName   = "/" + ServiceName + "/Delete"
	Lang_Evaluate_FullMethodName = "/" + ServiceName + "/Evaluate"
)

// LangClient is the client API for the Lang service.
type LangClient interface {
	Compile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Get(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type langClient struct {
	cc grpc.ClientConnInterface
}

// NewLangClient returns a LangClient over cc.
func NewLangClient(cc grpc.ClientConnInterface) LangClient {
	return &langClient{cc}
}

func (c *langClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *langClient) Compile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Lang_Compile_FullMethodName, in, opts)
}

func (c *langClient) Get(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Lang_Get_FullMethodName, in, opts)
}

func (c *langClient) List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Lang_List_FullMethodName, in, opts)
}

func (c *langClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Lang_Delete_FullMethodName, in, opts)
}

func (c *langClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Lang_Evaluate_FullMethodName, in, opts)
}

// LangServer is the server API for the Lang service.
type LangServer interface {
	Compile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedLangServer can be embedded to have forward compatible
// implementations.
type UnimplementedLangServer struct{}

func (UnimplementedLangServer) Compile(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Compile not implemented")
}

func (UnimplementedLangServer) Get(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}

func (UnimplementedLangServer) List(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method List not implemented")
}

func (UnimplementedLangServer) Delete(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}

func (UnimplementedLangServer) Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Evaluate not implemented")
}

// RegisterLangServer registers srv with s.
func RegisterLangServer(s grpc.ServiceRegistrar, srv LangServer) {
	s.RegisterService(&Lang_ServiceDesc, srv)
}

func unaryHandler(method string, call func(LangServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LangServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LangServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Lang_ServiceDesc is the grpc.ServiceDesc for the Lang service.
var Lang_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LangServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Compile", Handler: unaryHandler(Lang_Compile_FullMethodName, LangServer.Compile)},
		{MethodName: "Get", Handler: unaryHandler(Lang_Get_FullMethodName, LangServer.Get)},
		{MethodName: "List", Handler: unaryHandler(Lang_List_FullMethodName, LangServer.List)},
		{MethodName: "Delete", Handler: unaryHandler(Lang_Delete_FullMethodName, LangServer.Delete)},
		{MethodName: "Evaluate", Handler: unaryHandler(Lang_Evaluate_FullMethodName, LangServer.Evaluate)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pfq/lang/v1/lang.proto",
}
