// Package api describes the postbox gRPC service: its name, methods and
// message shapes. Messages travel as google.protobuf.Struct and are mapped
// to the typed structs in messages.go through their JSON form.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "postbox.v1.PostboxService"

const (
	MethodRegister         = "Register"
	MethodLogin            = "Login"
	MethodCreatePost       = "CreatePost"
	MethodGetPost          = "GetPost"
	MethodListPosts        = "ListPosts"
	MethodUpdatePost       = "UpdatePost"
	MethodDeletePost       = "DeletePost"
	MethodImageUploadURL   = "ImageUploadURL"
	MethodImageDownloadURL = "ImageDownloadURL"
)

// FullMethod returns the "/service/method" path used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// PostboxServer is implemented by the server transport.
type PostboxServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreatePost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPosts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdatePost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeletePost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImageUploadURL(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImageDownloadURL(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(PostboxServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(PostboxServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(PostboxServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is the grpc.ServiceDesc for PostboxService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PostboxServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, PostboxServer.Register),
		unary(MethodLogin, PostboxServer.Login),
		unary(MethodCreatePost, PostboxServer.CreatePost),
		unary(MethodGetPost, PostboxServer.GetPost),
		unary(MethodListPosts, PostboxServer.ListPosts),
		unary(MethodUpdatePost, PostboxServer.UpdatePost),
		unary(MethodDeletePost, PostboxServer.DeletePost),
		unary(MethodImageUploadURL, PostboxServer.ImageUploadURL),
		unary(MethodImageDownloadURL, PostboxServer.ImageDownloadURL),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "postbox/v1/postbox.proto",
}

func RegisterPostboxServer(s grpc.ServiceRegistrar, srv PostboxServer) {
	s.RegisterService(&ServiceDesc, srv)
}
