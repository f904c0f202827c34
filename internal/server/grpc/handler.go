package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/postbox/internal/api"
	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/server/auth"
	"github.com/dmitrijs2005/postbox/internal/server/metrics"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func toAPIPost(p *models.Post) api.Post {
	return api.Post{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Creator:   api.Creator{ID: p.Creator.ID, Name: p.Creator.Name},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (s *GRPCServer) decode(req *structpb.Struct, v any) error {
	if err := api.Decode(req, v); err != nil {
		return status.Error(codes.InvalidArgument, msgMalformed)
	}
	return nil
}

func (s *GRPCServer) encode(ctx context.Context, v any) (*structpb.Struct, error) {
	out, err := api.Encode(v)
	if err != nil {
		s.logger.Error(ctx, "encode response", "error", err)
		return nil, status.Error(codes.Internal, msgInternal)
	}
	return out, nil
}

func (s *GRPCServer) recordAuth(event string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.AuthSuccess
	if err != nil {
		outcome = metrics.AuthFailure
	}
	s.metrics.RecordAuth(event, outcome)
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.RegisterRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}

	user, err := s.users.Register(ctx, in.Email, in.Password, in.Name)
	s.recordAuth("register", err)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodRegister, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return s.encode(ctx, api.RegisterResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.LoginRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}

	res, err := s.users.Login(ctx, in.Email, in.Password)
	s.recordAuth("login", err)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrInvalidCredentials) {
			return nil, status.Error(codes.Unauthenticated, msgBadCredentials)
		}
		return nil, s.toStatus(ctx, api.MethodLogin, err)
	}

	return s.encode(ctx, api.LoginResponse{Token: res.Token, UserID: res.UserID})
}

func (s *GRPCServer) CreatePost(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.CreatePostRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}

	post, err := s.posts.Create(ctx, auth.IdentityFromContext(ctx), services.PostInput{
		Title:    in.Title,
		Content:  in.Content,
		ImageURL: in.ImageURL,
	})
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodCreatePost, err)
	}

	return s.encode(ctx, api.PostResponse{Post: toAPIPost(post)})
}

func (s *GRPCServer) GetPost(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.PostIDRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}

	post, err := s.posts.Get(ctx, auth.IdentityFromContext(ctx), in.ID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodGetPost, err)
	}

	return s.encode(ctx, api.PostResponse{Post: toAPIPost(post)})
}

func (s *GRPCServer) ListPosts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.ListPostsRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}

	page, err := s.posts.List(ctx, auth.IdentityFromContext(ctx), in.Page)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodListPosts, err)
	}

	out := api.ListPostsResponse{Posts: make([]api.Post, 0, len(page.Posts)), TotalPosts: page.TotalPosts}
	for _, p := range page.Posts {
		out.Posts = append(out.Posts, toAPIPost(p))
	}

	return s.encode(ctx, out)
}

func (s *GRPCServer) UpdatePost(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.UpdatePostRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}

	post, err := s.posts.Update(ctx, auth.IdentityFromContext(ctx), in.ID, services.PostUpdate{
		Title:    in.Title,
		Content:  in.Content,
		ImageURL: in.ImageURL,
	})
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodUpdatePost, err)
	}

	return s.encode(ctx, api.PostResponse{Post: toAPIPost(post)})
}

func (s *GRPCServer) DeletePost(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.PostIDRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}

	deleted, err := s.posts.Delete(ctx, auth.IdentityFromContext(ctx), in.ID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodDeletePost, err)
	}

	return s.encode(ctx, api.DeletePostResponse{Deleted: deleted})
}

func (s *GRPCServer) ImageUploadURL(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key, url, err := s.posts.ImageUploadURL(ctx, auth.IdentityFromContext(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodImageUploadURL, err)
	}

	return s.encode(ctx, api.ImageUploadURLResponse{Key: key, URL: url})
}

func (s *GRPCServer) ImageDownloadURL(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in api.PostIDRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}

	url, err := s.posts.ImageDownloadURL(ctx, auth.IdentityFromContext(ctx), in.ID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodImageDownloadURL, err)
	}

	return s.encode(ctx, api.ImageDownloadURLResponse{URL: url})
}
