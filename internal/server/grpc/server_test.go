package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/tipsync/internal/client/client"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/metrics"
	pb "github.com/dmitrijs2005/tipsync/internal/proto"
	"github.com/dmitrijs2005/tipsync/internal/server/auth"
	"github.com/dmitrijs2005/tipsync/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type harness struct {
	users  *fakeUsers
	docs   *fakeDocuments
	images *fakeImages
	reg    *prometheus.Registry
	client pb.DocumentStoreClient
}

func startBufServer(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		users:  &fakeUsers{salt: []byte("salt")},
		docs:   newFakeDocuments(),
		images: &fakeImages{},
		reg:    prometheus.NewRegistry(),
	}
	srv := NewGRPCServer("bufnet", logging.Nop(), h.users, h.docs, h.images, metrics.NewDocumentMetrics(h.reg), testSecret)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		assert.NoError(t, <-done)
	})
	h.client = pb.NewDocumentStoreClient(conn)
	return h
}

func authed(t *testing.T, userID string) context.Context {
	t.Helper()
	tok, err := auth.GenerateToken(userID, []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, tok)
}

func TestServer_PublicMethods(t *testing.T) {
	h := startBufServer(t)
	ctx := context.Background()

	st, err := h.client.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "OK", st)

	id, err := h.client.Register(ctx, &pb.Credentials{Username: "alice", Salt: []byte("s"), Verifier: []byte("v")})
	require.NoError(t, err)
	assert.Equal(t, "uid-alice", id)

	salt, err := h.client.GetSalt(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("salt"), salt)

	h.users.pair = &services.TokenPair{UserID: "uid-alice", AccessToken: "a", RefreshToken: "r"}
	tokens, err := h.client.Login(ctx, &pb.Credentials{Username: "alice", Verifier: []byte("v")})
	require.NoError(t, err)
	assert.Equal(t, &pb.Tokens{UserID: "uid-alice", AccessToken: "a", RefreshToken: "r"}, tokens)
	assert.Equal(t, "alice", h.users.lastLogin)

	h.users.err = common.ErrorUnauthorized
	_, err = h.client.Login(ctx, &pb.Credentials{Username: "alice", Verifier: []byte("bad")})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	assert.Equal(t, float64(1), requestCount(t, h, "Ping", "OK"))
	assert.Equal(t, float64(1), requestCount(t, h, "Login", "Unauthenticated"))
}

func requestCount(t *testing.T, h *harness, method, code string) float64 {
	t.Helper()
	families, err := h.reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "tipsync_documents_requests_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["method"] == method && labels["code"] == code {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestServer_DocumentsRequireToken(t *testing.T) {
	h := startBufServer(t)

	err := h.client.PutDocument(context.Background(), &pb.PutDocumentRequest{Collection: "tips", ID: "t1", Fields: map[string]any{"body": "x"}})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = h.client.QueryDocuments(context.Background(), &pb.QueryRequest{Collection: "tips"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_DocumentLifecycle(t *testing.T) {
	h := startBufServer(t)
	alice, bob := authed(t, "alice"), authed(t, "bob")

	require.NoError(t, h.client.PutDocument(alice, &pb.PutDocumentRequest{
		Collection: "tips", ID: "t1", Fields: map[string]any{"body": "hello", "createdAt": float64(7)},
	}))

	doc, err := h.client.GetDocument(bob, &pb.DocumentKey{Collection: "tips", ID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Fields["body"])
	assert.Equal(t, "alice", h.docs.docs["tips/t1"].OwnerID)

	docs, err := h.client.QueryDocuments(bob, &pb.QueryRequest{Collection: "tips"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	err = h.client.PutDocument(bob, &pb.PutDocumentRequest{Collection: "tips", ID: "t1", Fields: map[string]any{"body": "mine now"}})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	err = h.client.DeleteDocument(bob, &pb.DocumentKey{Collection: "tips", ID: "t1"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	require.NoError(t, h.client.DeleteDocument(alice, &pb.DocumentKey{Collection: "tips", ID: "t1"}))

	_, err = h.client.GetDocument(alice, &pb.DocumentKey{Collection: "tips", ID: "t1"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.QueryDocuments(alice, &pb.QueryRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_PresignImageUpload(t *testing.T) {
	h := startBufServer(t)

	resp, err := h.client.PresignImageUpload(authed(t, "alice"), &pb.PresignRequest{TipID: "t1", ContentType: "image/png", Extension: "png"})
	require.NoError(t, err)
	assert.Equal(t, "tips/t1.png", resp.Key)
	assert.Equal(t, "http://s3/get/tips/t1.png", resp.GetURL)
	assert.Equal(t, "alice", h.images.lastUser)
}

// The real client refreshes an expired access token once and retries.
func TestServer_ClientRefreshesExpiredToken(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	expired, err := auth.GenerateToken("alice", []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	fresh, err := auth.GenerateToken("alice", []byte(testSecret), time.Minute)
	require.NoError(t, err)

	users := &fakeUsers{pair: &services.TokenPair{UserID: "alice", AccessToken: expired, RefreshToken: "r1"}}
	docs := newFakeDocuments()
	srv := NewGRPCServer("", logging.Nop(), users, docs, &fakeImages{}, nil, testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	c, err := client.NewGRPCClient(lis.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	uid, err := c.Login(context.Background(), "alice", []byte("v"))
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)

	users.pair = &services.TokenPair{UserID: "alice", AccessToken: fresh, RefreshToken: "r2"}
	require.NoError(t, c.PutDocument(context.Background(), "tips", "t1", map[string]any{"body": "x"}))
	assert.Contains(t, docs.docs, "tips/t1")
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop(), &fakeUsers{}, newFakeDocuments(), &fakeImages{}, nil, testSecret)
	assert.Error(t, srv.Run(context.Background()))
}
