package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/common"
	pb "github.com/dmitrijs2005/tipsync/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const saltTimeout = 12 * time.Second

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.DocumentStoreClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	access, refresh := s.tokens()
	if method == pb.MethodRefreshToken {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	tokens, rerr := s.client.RefreshToken(ctx, refresh)
	if rerr != nil {
		return rerr
	}
	s.setTokens(tokens.AccessToken, tokens.RefreshToken)

	// tokens refreshed, retry once with the new access token
	return invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
}

func NewGRPCClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewDocumentStoreClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Register(ctx context.Context, userName string, salt []byte, verifier []byte) (string, error) {
	id, err := s.client.Register(ctx, &pb.Credentials{Username: userName, Salt: salt, Verifier: verifier})
	if err != nil {
		return "", s.mapError(err)
	}
	return id, nil
}

func (s *GRPCClient) GetSalt(ctx context.Context, userName string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, saltTimeout)
	defer cancel()

	salt, err := s.client.GetSalt(ctx, userName)
	if err != nil {
		return nil, s.mapError(err)
	}
	return salt, nil
}

func (s *GRPCClient) Login(ctx context.Context, userName string, verifier []byte) (string, error) {
	tokens, err := s.client.Login(ctx, &pb.Credentials{Username: userName, Verifier: verifier})
	if err != nil {
		return "", s.mapError(err)
	}
	s.setTokens(tokens.AccessToken, tokens.RefreshToken)
	return tokens.UserID, nil
}

func (s *GRPCClient) Logout() {
	s.setTokens("", "")
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	st, err := s.client.Ping(ctx)
	if err != nil {
		return s.mapError(err)
	}
	if st != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) PutDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	err := s.client.PutDocument(ctx, &pb.PutDocumentRequest{Collection: collection, ID: id, Fields: fields})
	return s.mapError(err)
}

func (s *GRPCClient) GetDocument(ctx context.Context, collection, id string) (*Document, error) {
	d, err := s.client.GetDocument(ctx, &pb.DocumentKey{Collection: collection, ID: id})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &Document{ID: d.ID, Fields: d.Fields}, nil
}

func (s *GRPCClient) QueryOrdered(ctx context.Context, q Query) ([]*Document, error) {
	req := &pb.QueryRequest{
		Collection: q.Collection,
		OrderBy:    q.OrderBy,
		Descending: q.Descending,
		Limit:      q.Limit,
	}
	if q.FieldEquals != nil {
		req.FilterField = q.FieldEquals.Field
		req.FilterValue = q.FieldEquals.Value
	}

	docs, err := s.client.QueryDocuments(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, &Document{ID: d.ID, Fields: d.Fields})
	}
	return out, nil
}

func (s *GRPCClient) DeleteDocument(ctx context.Context, collection, id string) error {
	err := s.mapError(s.client.DeleteDocument(ctx, &pb.DocumentKey{Collection: collection, ID: id}))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return nil
}

func (s *GRPCClient) PresignImageUpload(ctx context.Context, tipID, contentType, extension string) (*ImageUpload, error) {
	resp, err := s.client.PresignImageUpload(ctx, &pb.PresignRequest{TipID: tipID, ContentType: contentType, Extension: extension})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &ImageUpload{Key: resp.Key, PutURL: resp.PutURL, GetURL: resp.GetURL}, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.InvalidArgument:
		return common.New(common.KindValidation, "rpc", st.Message())
	case codes.Canceled:
		return fmt.Errorf("rpc canceled: %w", context.Canceled)
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
