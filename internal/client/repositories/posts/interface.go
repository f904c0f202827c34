package posts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/postbox/internal/api"
)

// CachedPage is a page as last fetched from the server.
type CachedPage struct {
	Page       int
	TotalPosts int
	Posts      []api.Post
	FetchedAt  time.Time
}

// Repository describes the local post cache.
type Repository interface {
	// SavePage replaces the cached content of page.
	SavePage(ctx context.Context, page int, total int, posts []api.Post, fetchedAt time.Time) error

	// GetPage returns common.ErrorNotFound when the page was never cached.
	GetPage(ctx context.Context, page int) (*CachedPage, error)

	// Save inserts or refreshes a single post.
	Save(ctx context.Context, p *api.Post) error

	// GetByID returns common.ErrorNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (*api.Post, error)

	// DeleteByID drops the post and its page slots. Unknown ids are ignored.
	DeleteByID(ctx context.Context, id string) error

	// Clear empties the cache.
	Clear(ctx context.Context) error
}
