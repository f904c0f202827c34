package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/postbox/internal/api"
	"github.com/dmitrijs2005/postbox/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultRequestTimeout bounds every call that has no earlier deadline.
const DefaultRequestTimeout = 10 * time.Second

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration

	conn   *grpc.ClientConn
	cc     grpc.ClientConnInterface
	health healthpb.HealthClient

	mu    sync.RWMutex
	token string
}

var _ Client = (*GRPCClient)(nil)

func withBearerToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) bearerTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if token := s.sessionToken(); token != "" {
		ctx = withBearerToken(ctx, token)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewPostboxClient connects lazily to endpointURL. Extra dial options are
// appended to the defaults.
func NewPostboxClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.bearerTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.cc = conn
	s.health = healthpb.NewHealthClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) sessionToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *GRPCClient) setSessionToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *GRPCClient) LoggedIn() bool {
	return s.sessionToken() != ""
}

func (s *GRPCClient) Logout() {
	s.setSessionToken("")
}

// call encodes req, invokes method and decodes the answer into resp.
func (s *GRPCClient) call(ctx context.Context, method string, req, resp any) error {
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	in, err := api.Encode(req)
	if err != nil {
		return err
	}

	out := &structpb.Struct{}
	if err := s.cc.Invoke(ctx, api.FullMethod(method), in, out); err != nil {
		return s.mapError(err)
	}

	if resp == nil {
		return nil
	}
	return api.Decode(out, resp)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, password, name string) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := s.call(ctx, api.MethodRegister, api.RegisterRequest{Email: email, Password: password, Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	if err := s.call(ctx, api.MethodLogin, api.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}

	s.setSessionToken(resp.Token)
	return &resp, nil
}

func (s *GRPCClient) ListPosts(ctx context.Context, page int) (*api.ListPostsResponse, error) {
	var resp api.ListPostsResponse
	if err := s.call(ctx, api.MethodListPosts, api.ListPostsRequest{Page: page}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) GetPost(ctx context.Context, id string) (*api.Post, error) {
	var resp api.PostResponse
	if err := s.call(ctx, api.MethodGetPost, api.PostIDRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp.Post, nil
}

func (s *GRPCClient) CreatePost(ctx context.Context, req api.CreatePostRequest) (*api.Post, error) {
	var resp api.PostResponse
	if err := s.call(ctx, api.MethodCreatePost, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Post, nil
}

func (s *GRPCClient) UpdatePost(ctx context.Context, req api.UpdatePostRequest) (*api.Post, error) {
	var resp api.PostResponse
	if err := s.call(ctx, api.MethodUpdatePost, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Post, nil
}

func (s *GRPCClient) DeletePost(ctx context.Context, id string) (bool, error) {
	var resp api.DeletePostResponse
	if err := s.call(ctx, api.MethodDeletePost, api.PostIDRequest{ID: id}, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

func (s *GRPCClient) ImageUploadURL(ctx context.Context) (*api.ImageUploadURLResponse, error) {
	var resp api.ImageUploadURLResponse
	if err := s.call(ctx, api.MethodImageUploadURL, api.Empty{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ImageDownloadURL returns a short-lived link to the post's image.
func (s *GRPCClient) ImageDownloadURL(ctx context.Context, id string) (string, error) {
	var resp api.ImageDownloadURLResponse
	if err := s.call(ctx, api.MethodImageDownloadURL, api.PostIDRequest{ID: id}, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
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
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return validationError(st)
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func validationError(st *status.Status) error {
	ve := &ValidationError{}
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, v := range br.GetFieldViolations() {
			ve.Violations = append(ve.Violations, FieldViolation{Field: v.GetField(), Description: v.GetDescription()})
		}
	}
	if len(ve.Violations) == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	}
	return ve
}
