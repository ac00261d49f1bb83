package catalogd

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "querycat.v1.CatalogService"

// Full method names.
const (
	ListTemplatesMethod    = "/" + ServiceName + "/ListTemplates"
	DescribeTemplateMethod = "/" + ServiceName + "/DescribeTemplate"
	ResolveMethod          = "/" + ServiceName + "/Resolve"
	PingMethod             = "/" + ServiceName + "/Ping"
)

// CatalogServiceServer is the server API for the catalog service. Requests and
// responses are protobuf Structs so clients need no generated stubs.
type CatalogServiceServer interface {
	ListTemplates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DescribeTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterCatalogServiceServer registers srv with the gRPC server.
func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}

// CatalogServiceDesc describes the catalog service for grpc.Server.RegisterService.
var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTemplates", Handler: structHandler(ListTemplatesMethod, CatalogServiceServer.ListTemplates)},
		{MethodName: "DescribeTemplate", Handler: structHandler(DescribeTemplateMethod, CatalogServiceServer.DescribeTemplate)},
		{MethodName: "Resolve", Handler: structHandler(ResolveMethod, CatalogServiceServer.Resolve)},
		{MethodName: "Ping", Handler: pingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "querycat/v1/catalog.proto",
}

type structMethod func(CatalogServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func structHandler(fullMethod string, call structMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServiceServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
