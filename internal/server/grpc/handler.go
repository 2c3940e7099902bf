package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/tipsync/internal/proto"
	"github.com/dmitrijs2005/tipsync/internal/server/models"
)

func (s *GRPCServer) PutDocument(ctx context.Context, req *pb.PutDocumentRequest) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	return s.toStatus(ctx, "PutDocument", s.documents.Put(ctx, userID, req.Collection, req.ID, req.Fields))
}

func (s *GRPCServer) GetDocument(ctx context.Context, key *pb.DocumentKey) (*pb.Document, error) {
	doc, err := s.documents.Get(ctx, key.Collection, key.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "GetDocument", err)
	}
	return &pb.Document{ID: doc.ID, Fields: doc.Fields}, nil
}

func (s *GRPCServer) QueryDocuments(ctx context.Context, q *pb.QueryRequest) ([]*pb.Document, error) {
	docs, err := s.documents.Query(ctx, models.DocumentQuery{
		Collection:  q.Collection,
		FilterField: q.FilterField,
		FilterValue: q.FilterValue,
		OrderBy:     q.OrderBy,
		Descending:  q.Descending,
		Limit:       q.Limit,
	})
	if err != nil {
		return nil, s.toStatus(ctx, "QueryDocuments", err)
	}

	s.metrics.ObserveQueryResults(q.Collection, len(docs))

	out := make([]*pb.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, &pb.Document{ID: d.ID, Fields: d.Fields})
	}
	return out, nil
}

func (s *GRPCServer) DeleteDocument(ctx context.Context, key *pb.DocumentKey) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	return s.toStatus(ctx, "DeleteDocument", s.documents.Delete(ctx, userID, key.Collection, key.ID))
}

func (s *GRPCServer) Register(ctx context.Context, c *pb.Credentials) (string, error) {
	s.logger.Info(ctx, "Registration request", "username", c.Username)

	user, err := s.users.Register(ctx, c.Username, c.Salt, c.Verifier)
	if err != nil {
		return "", s.toStatus(ctx, "Register", err)
	}
	return user.ID, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, username string) ([]byte, error) {
	salt, err := s.users.GetSalt(ctx, username)
	if err != nil {
		return nil, s.toStatus(ctx, "GetSalt", err)
	}
	return salt, nil
}

func (s *GRPCServer) Login(ctx context.Context, c *pb.Credentials) (*pb.Tokens, error) {
	pair, err := s.users.Login(ctx, c.Username, c.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, "Login", err)
	}
	return &pb.Tokens{UserID: pair.UserID, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, refreshToken string) (*pb.Tokens, error) {
	pair, err := s.users.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, "RefreshToken", err)
	}
	return &pb.Tokens{UserID: pair.UserID, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) Ping(context.Context) (string, error) {
	return "OK", nil
}

func (s *GRPCServer) PresignImageUpload(ctx context.Context, req *pb.PresignRequest) (*pb.PresignResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	up, err := s.images.PresignUpload(ctx, userID, req.TipID, req.ContentType, req.Extension)
	if err != nil {
		return nil, s.toStatus(ctx, "PresignImageUpload", err)
	}
	return &pb.PresignResponse{Key: up.Key, PutURL: up.PutURL, GetURL: up.GetURL}, nil
}
