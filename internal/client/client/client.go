package client

import (
	"context"

	"github.com/dmitrijs2005/postbox/internal/api"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Register(ctx context.Context, email, password, name string) (*api.RegisterResponse, error)
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Logout()
	LoggedIn() bool

	ListPosts(ctx context.Context, page int) (*api.ListPostsResponse, error)
	GetPost(ctx context.Context, id string) (*api.Post, error)
	CreatePost(ctx context.Context, req api.CreatePostRequest) (*api.Post, error)
	UpdatePost(ctx context.Context, req api.UpdatePostRequest) (*api.Post, error)
	DeletePost(ctx context.Context, id string) (bool, error)
	ImageUploadURL(ctx context.Context) (*api.ImageUploadURLResponse, error)
	ImageDownloadURL(ctx context.Context, id string) (string, error)
}
