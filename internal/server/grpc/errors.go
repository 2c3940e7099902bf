package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus converts a service error into a gRPC status. Unclassified
// failures are logged and reported as a bare Internal.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrNotOwner):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrRefreshTokenExpired), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	switch common.KindOf(err) {
	case common.KindUnauthorized:
		return status.Error(codes.Unauthenticated, "unauthorized")
	case common.KindNotFound:
		return status.Error(codes.NotFound, "not found")
	case common.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	}

	s.logger.Error(ctx, "request failed", "op", op, "error", err)
	return status.Error(codes.Internal, "internal error")
}
