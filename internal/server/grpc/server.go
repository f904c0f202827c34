// Package grpc is the server transport: it decodes requests, attaches the
// caller identity, calls the services and maps their errors to gRPC
// status codes.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/postbox/internal/api"
	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/server/auth"
	"github.com/dmitrijs2005/postbox/internal/server/metrics"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type UserService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

type PostService interface {
	Create(ctx context.Context, id auth.Identity, in services.PostInput) (*models.Post, error)
	Get(ctx context.Context, id auth.Identity, postID string) (*models.Post, error)
	List(ctx context.Context, id auth.Identity, page int) (*models.PostPage, error)
	Update(ctx context.Context, id auth.Identity, postID string, in services.PostUpdate) (*models.Post, error)
	Delete(ctx context.Context, id auth.Identity, postID string) (bool, error)
	ImageUploadURL(ctx context.Context, id auth.Identity) (string, string, error)
	ImageDownloadURL(ctx context.Context, id auth.Identity, postID string) (string, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.SessionClaims, error)
}

type GRPCServer struct {
	address string
	users   UserService
	posts   PostService
	tokens  TokenVerifier
	metrics *metrics.Metrics
	logger  logging.Logger
}

var _ api.PostboxServer = (*GRPCServer)(nil)

// NewGRPCServer wires the transport. m may be nil.
func NewGRPCServer(a string, l logging.Logger, us UserService, ps PostService, tv TokenVerifier, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		posts:   ps,
		tokens:  tv,
		metrics: m,
	}
}

func (s *GRPCServer) newServer() (*grpc.Server, *health.Server) {
	interceptors := []grpc.UnaryServerInterceptor{s.requestLogInterceptor}
	if s.metrics != nil {
		interceptors = append(interceptors, s.metrics.UnaryServerInterceptor)
	}
	interceptors = append(interceptors, s.identityInterceptor)

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))

	api.RegisterPostboxServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv, hs := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
