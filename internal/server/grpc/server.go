// Package grpc serves the tipsync.v1.DocumentStore service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/tipsync/internal/logging"
	"github.com/dmitrijs2005/tipsync/internal/metrics"
	pb "github.com/dmitrijs2005/tipsync/internal/proto"
	"github.com/dmitrijs2005/tipsync/internal/server/models"
	"github.com/dmitrijs2005/tipsync/internal/server/services"
	"google.golang.org/grpc"
)

type Users interface {
	Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type Documents interface {
	Put(ctx context.Context, userID, collection, id string, fields map[string]any) error
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	Query(ctx context.Context, q models.DocumentQuery) ([]*models.Document, error)
	Delete(ctx context.Context, userID, collection, id string) error
}

type Images interface {
	PresignUpload(ctx context.Context, userID, tipID, contentType, ext string) (*services.ImageUpload, error)
}

type GRPCServer struct {
	pb.UnimplementedDocumentStoreServer
	address   string
	users     Users
	documents Documents
	images    Images
	metrics   *metrics.DocumentMetrics
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us Users, ds Documents, is Images, m *metrics.DocumentMetrics, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		documents: ds,
		images:    is,
		metrics:   m,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor))
	pb.RegisterDocumentStoreServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
