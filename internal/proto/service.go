package proto

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	protobuf "google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "tipsync.v1.DocumentStore"

const (
	MethodPutDocument        = "/" + ServiceName + "/PutDocument"
	MethodGetDocument        = "/" + ServiceName + "/GetDocument"
	MethodQueryDocuments     = "/" + ServiceName + "/QueryDocuments"
	MethodDeleteDocument     = "/" + ServiceName + "/DeleteDocument"
	MethodRegister           = "/" + ServiceName + "/Register"
	MethodGetSalt            = "/" + ServiceName + "/GetSalt"
	MethodLogin              = "/" + ServiceName + "/Login"
	MethodRefreshToken       = "/" + ServiceName + "/RefreshToken"
	MethodPing               = "/" + ServiceName + "/Ping"
	MethodPresignImageUpload = "/" + ServiceName + "/PresignImageUpload"
)

// DocumentStoreServer is implemented by the server.
type DocumentStoreServer interface {
	PutDocument(ctx context.Context, req *PutDocumentRequest) error
	GetDocument(ctx context.Context, key *DocumentKey) (*Document, error)
	QueryDocuments(ctx context.Context, q *QueryRequest) ([]*Document, error)
	DeleteDocument(ctx context.Context, key *DocumentKey) error
	Register(ctx context.Context, c *Credentials) (string, error)
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, c *Credentials) (*Tokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*Tokens, error)
	Ping(ctx context.Context) (string, error)
	PresignImageUpload(ctx context.Context, req *PresignRequest) (*PresignResponse, error)
}

// UnimplementedDocumentStoreServer can be embedded to satisfy
// DocumentStoreServer partially.
type UnimplementedDocumentStoreServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedDocumentStoreServer) PutDocument(context.Context, *PutDocumentRequest) error {
	return unimplemented("PutDocument")
}
func (UnimplementedDocumentStoreServer) GetDocument(context.Context, *DocumentKey) (*Document, error) {
	return nil, unimplemented("GetDocument")
}
func (UnimplementedDocumentStoreServer) QueryDocuments(context.Context, *QueryRequest) ([]*Document, error) {
	return nil, unimplemented("QueryDocuments")
}
func (UnimplementedDocumentStoreServer) DeleteDocument(context.Context, *DocumentKey) error {
	return unimplemented("DeleteDocument")
}
func (UnimplementedDocumentStoreServer) Register(context.Context, *Credentials) (string, error) {
	return "", unimplemented("Register")
}
func (UnimplementedDocumentStoreServer) GetSalt(context.Context, string) ([]byte, error) {
	return nil, unimplemented("GetSalt")
}
func (UnimplementedDocumentStoreServer) Login(context.Context, *Credentials) (*Tokens, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedDocumentStoreServer) RefreshToken(context.Context, string) (*Tokens, error) {
	return nil, unimplemented("RefreshToken")
}
func (UnimplementedDocumentStoreServer) Ping(context.Context) (string, error) {
	return "", unimplemented("Ping")
}
func (UnimplementedDocumentStoreServer) PresignImageUpload(context.Context, *PresignRequest) (*PresignResponse, error) {
	return nil, unimplemented("PresignImageUpload")
}

// unaryHandler decodes the wire message W into the typed request R, runs the
// interceptor chain with R as the request and calls the implementation.
func unaryHandler[W protobuf.Message, R any](
	method string,
	newWire func() W,
	decode func(W) (R, error),
	call func(DocumentStoreServer, context.Context, R) (protobuf.Message, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newWire()
		if err := dec(in); err != nil {
			return nil, err
		}
		req, err := decode(in)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		impl := srv.(DocumentStoreServer)
		if interceptor == nil {
			return call(impl, ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
			return call(impl, ctx, r.(R))
		})
	}
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }

func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }

func newEmpty() *emptypb.Empty { return &emptypb.Empty{} }

func stringValue(w *wrapperspb.StringValue) (string, error) { return w.GetValue(), nil }

func emptyValue(*emptypb.Empty) (struct{}, error) { return struct{}{}, nil }

type marshaler interface {
	Marshal() (*structpb.Struct, error)
}

func encodeResponse(m marshaler) (protobuf.Message, error) {
	s, err := m.Marshal()
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return s, nil
}

// ServiceDesc describes tipsync.v1.DocumentStore for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PutDocument",
			Handler: unaryHandler(MethodPutDocument, newStruct, UnmarshalPutDocumentRequest,
				func(s DocumentStoreServer, ctx context.Context, r *PutDocumentRequest) (protobuf.Message, error) {
					if err := s.PutDocument(ctx, r); err != nil {
						return nil, err
					}
					return &emptypb.Empty{}, nil
				}),
		},
		{
			MethodName: "GetDocument",
			Handler: unaryHandler(MethodGetDocument, newStruct, UnmarshalDocumentKey,
				func(s DocumentStoreServer, ctx context.Context, k *DocumentKey) (protobuf.Message, error) {
					resp, err := s.GetDocument(ctx, k)
					if err != nil {
						return nil, err
					}
					return encodeResponse(resp)
				}),
		},
		{
			MethodName: "QueryDocuments",
			Handler: unaryHandler(MethodQueryDocuments, newStruct, UnmarshalQueryRequest,
				func(s DocumentStoreServer, ctx context.Context, q *QueryRequest) (protobuf.Message, error) {
					docs, err := s.QueryDocuments(ctx, q)
					if err != nil {
						return nil, err
					}
					list, err := MarshalDocuments(docs)
					if err != nil {
						return nil, status.Error(codes.Internal, err.Error())
					}
					return list, nil
				}),
		},
		{
			MethodName: "DeleteDocument",
			Handler: unaryHandler(MethodDeleteDocument, newStruct, UnmarshalDocumentKey,
				func(s DocumentStoreServer, ctx context.Context, k *DocumentKey) (protobuf.Message, error) {
					if err := s.DeleteDocument(ctx, k); err != nil {
						return nil, err
					}
					return &emptypb.Empty{}, nil
				}),
		},
		{
			MethodName: "Register",
			Handler: unaryHandler(MethodRegister, newStruct, UnmarshalCredentials,
				func(s DocumentStoreServer, ctx context.Context, c *Credentials) (protobuf.Message, error) {
					id, err := s.Register(ctx, c)
					if err != nil {
						return nil, err
					}
					return wrapperspb.String(id), nil
				}),
		},
		{
			MethodName: "GetSalt",
			Handler: unaryHandler(MethodGetSalt, newString, stringValue,
				func(s DocumentStoreServer, ctx context.Context, username string) (protobuf.Message, error) {
					salt, err := s.GetSalt(ctx, username)
					if err != nil {
						return nil, err
					}
					return wrapperspb.Bytes(salt), nil
				}),
		},
		{
			MethodName: "Login",
			Handler: unaryHandler(MethodLogin, newStruct, UnmarshalCredentials,
				func(s DocumentStoreServer, ctx context.Context, c *Credentials) (protobuf.Message, error) {
					resp, err := s.Login(ctx, c)
					if err != nil {
						return nil, err
					}
					return encodeResponse(resp)
				}),
		},
		{
			MethodName: "RefreshToken",
			Handler: unaryHandler(MethodRefreshToken, newString, stringValue,
				func(s DocumentStoreServer, ctx context.Context, token string) (protobuf.Message, error) {
					resp, err := s.RefreshToken(ctx, token)
					if err != nil {
						return nil, err
					}
					return encodeResponse(resp)
				}),
		},
		{
			MethodName: "Ping",
			Handler: unaryHandler(MethodPing, newEmpty, emptyValue,
				func(s DocumentStoreServer, ctx context.Context, _ struct{}) (protobuf.Message, error) {
					st, err := s.Ping(ctx)
					if err != nil {
						return nil, err
					}
					return wrapperspb.String(st), nil
				}),
		},
		{
			MethodName: "PresignImageUpload",
			Handler: unaryHandler(MethodPresignImageUpload, newStruct, UnmarshalPresignRequest,
				func(s DocumentStoreServer, ctx context.Context, r *PresignRequest) (protobuf.Message, error) {
					resp, err := s.PresignImageUpload(ctx, r)
					if err != nil {
						return nil, err
					}
					return encodeResponse(resp)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tipsync/v1/docstore",
}

func RegisterDocumentStoreServer(s grpc.ServiceRegistrar, srv DocumentStoreServer) {
	s.RegisterService(&ServiceDesc, srv)
}
