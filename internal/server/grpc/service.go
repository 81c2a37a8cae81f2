package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "todoapi.v1.AuthService"

// Full method names.
const (
	MethodLogin         = "/" + ServiceName + "/Login"
	MethodRefreshTokens = "/" + ServiceName + "/RefreshTokens"
	MethodLogout        = "/" + ServiceName + "/Logout"
	MethodMe            = "/" + ServiceName + "/Me"
)

type authServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshTokens(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Logout(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Me(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*authServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Login", authServer.Login),
		unaryMethod("RefreshTokens", authServer.RefreshTokens),
		unaryMethod("Logout", authServer.Logout),
		unaryMethod("Me", authServer.Me),
	},
	Streams: []grpc.StreamDesc{},
}

func unaryMethod[Req, Resp any](name string, call func(authServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(authServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(authServer), ctx, req.(*Req))
			})
		},
	}
}
