package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DocumentStoreClient is the client API for tipsync.v1.DocumentStore.
type DocumentStoreClient interface {
	PutDocument(ctx context.Context, in *PutDocumentRequest, opts ...grpc.CallOption) error
	GetDocument(ctx context.Context, in *DocumentKey, opts ...grpc.CallOption) (*Document, error)
	QueryDocuments(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) ([]*Document, error)
	DeleteDocument(ctx context.Context, in *DocumentKey, opts ...grpc.CallOption) error
	Register(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (string, error)
	GetSalt(ctx context.Context, username string, opts ...grpc.CallOption) ([]byte, error)
	Login(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*Tokens, error)
	RefreshToken(ctx context.Context, refreshToken string, opts ...grpc.CallOption) (*Tokens, error)
	Ping(ctx context.Context, opts ...grpc.CallOption) (string, error)
	PresignImageUpload(ctx context.Context, in *PresignRequest, opts ...grpc.CallOption) (*PresignResponse, error)
}

type documentStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentStoreClient(cc grpc.ClientConnInterface) DocumentStoreClient {
	return &documentStoreClient{cc: cc}
}

func (c *documentStoreClient) PutDocument(ctx context.Context, in *PutDocumentRequest, opts ...grpc.CallOption) error {
	req, err := in.Marshal()
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, MethodPutDocument, req, &emptypb.Empty{}, opts...)
}

func (c *documentStoreClient) GetDocument(ctx context.Context, in *DocumentKey, opts ...grpc.CallOption) (*Document, error) {
	req, err := in.Marshal()
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, MethodGetDocument, req, out, opts...); err != nil {
		return nil, err
	}
	return UnmarshalDocument(out)
}

func (c *documentStoreClient) QueryDocuments(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) ([]*Document, error) {
	req, err := in.Marshal()
	if err != nil {
		return nil, err
	}
	out := &structpb.ListValue{}
	if err := c.cc.Invoke(ctx, MethodQueryDocuments, req, out, opts...); err != nil {
		return nil, err
	}
	return UnmarshalDocuments(out)
}

func (c *documentStoreClient) DeleteDocument(ctx context.Context, in *DocumentKey, opts ...grpc.CallOption) error {
	req, err := in.Marshal()
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, MethodDeleteDocument, req, &emptypb.Empty{}, opts...)
}

func (c *documentStoreClient) Register(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (string, error) {
	req, err := in.Marshal()
	if err != nil {
		return "", err
	}
	out := &wrapperspb.StringValue{}
	if err := c.cc.Invoke(ctx, MethodRegister, req, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *documentStoreClient) GetSalt(ctx context.Context, username string, opts ...grpc.CallOption) ([]byte, error) {
	out := &wrapperspb.BytesValue{}
	if err := c.cc.Invoke(ctx, MethodGetSalt, wrapperspb.String(username), out, opts...); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *documentStoreClient) Login(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*Tokens, error) {
	req, err := in.Marshal()
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, MethodLogin, req, out, opts...); err != nil {
		return nil, err
	}
	return UnmarshalTokens(out)
}

func (c *documentStoreClient) RefreshToken(ctx context.Context, refreshToken string, opts ...grpc.CallOption) (*Tokens, error) {
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, MethodRefreshToken, wrapperspb.String(refreshToken), out, opts...); err != nil {
		return nil, err
	}
	return UnmarshalTokens(out)
}

func (c *documentStoreClient) Ping(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out := &wrapperspb.StringValue{}
	if err := c.cc.Invoke(ctx, MethodPing, &emptypb.Empty{}, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *documentStoreClient) PresignImageUpload(ctx context.Context, in *PresignRequest, opts ...grpc.CallOption) (*PresignResponse, error) {
	req, err := in.Marshal()
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, MethodPresignImageUpload, req, out, opts...); err != nil {
		return nil, err
	}
	return UnmarshalPresignResponse(out)
}
