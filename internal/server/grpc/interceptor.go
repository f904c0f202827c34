package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeader = "x-request-id"

// bearerToken extracts the token from the authorization metadata. The
// scheme is matched case-insensitively.
func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return ""
	}
	v := strings.TrimSpace(values[0])
	if len(v) < len(common.BearerPrefix) || !strings.EqualFold(v[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(common.BearerPrefix):])
}

// identityInterceptor resolves the caller identity for every request. A
// missing or bad token gives an anonymous identity; the services decide
// whether that is acceptable.
func (s *GRPCServer) identityInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := auth.Anonymous

	if token := bearerToken(ctx); token != "" {
		claims, err := s.tokens.Verify(token)
		if err != nil {
			s.logger.Debug(ctx, "token rejected", "method", info.FullMethod, "error", err)
		} else {
			id = auth.Authenticated(claims.UserID)
		}
	}

	return handler(auth.WithIdentity(ctx, id), req)
}

// requestLogInterceptor tags each call with a request id and logs its
// outcome.
func (s *GRPCServer) requestLogInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	requestID, err := common.MakeRandHexString(8)
	if err != nil {
		requestID = "unknown"
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, requestID))

	start := time.Now()
	resp, err := handler(ctx, req)

	s.logger.Info(ctx, "request handled",
		"request_id", requestID,
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)

	return resp, err
}
