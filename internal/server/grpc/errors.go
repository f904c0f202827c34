package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/server/validation"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	msgValidation      = "validation failed"
	msgAlreadyExists   = "user already exists"
	msgBadCredentials  = "invalid email or password"
	msgUnauthenticated = "not authenticated"
	msgForbidden       = "not authorized"
	msgNotFound        = "post not found"
	msgInternal        = "internal error"
	msgMalformed       = "malformed request"
)

// toStatus maps a service error to a gRPC status. Unknown errors are
// logged and reported as Internal without details.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	var ve *validation.ValidationError

	switch {
	case errors.As(err, &ve):
		return validationStatus(ve)
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, msgAlreadyExists)
	case errors.Is(err, common.ErrUnauthenticated), errors.Is(err, common.ErrUserNotFound):
		return status.Error(codes.Unauthenticated, msgUnauthenticated)
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, msgBadCredentials)
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, msgForbidden)
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, msgNotFound)
	}

	s.logger.Error(ctx, "request failed", "method", method, "error", err)
	return status.Error(codes.Internal, msgInternal)
}

func validationStatus(ve *validation.ValidationError) error {
	st := status.New(codes.InvalidArgument, msgValidation)

	br := &errdetails.BadRequest{}
	for _, f := range ve.Fields {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       f.Field,
			Description: f.Message,
		})
	}

	withDetails, err := st.WithDetails(br)
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}
