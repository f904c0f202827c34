// Package services contains application services for the postbox client.
// PostService calls the server and mirrors what it sees into the local
// cache; reads fall back to the cache while the server is unreachable.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/postbox/internal/api"
	"github.com/dmitrijs2005/postbox/internal/client/client"
	"github.com/dmitrijs2005/postbox/internal/client/repositories/posts"
	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/netx"
)

// PostsPerPage matches the server page size.
const PostsPerPage = 4

// PageView is one page of posts ready for display.
type PageView struct {
	Page       int
	Pages      int
	TotalPosts int
	Posts      []api.Post

	// Offline is set when the page came from the cache; FetchedAt says
	// when it was last seen online.
	Offline   bool
	FetchedAt time.Time
}

// PostService defines the post operations used by the CLI.
//
// List and Get may answer from the cache when the server is unavailable.
// Mutations always go to the server.
type PostService interface {
	List(ctx context.Context, page int) (*PageView, error)
	Get(ctx context.Context, id string) (*api.Post, bool, error)
	Create(ctx context.Context, req api.CreatePostRequest) (*api.Post, error)
	Update(ctx context.Context, req api.UpdatePostRequest) (*api.Post, error)
	Delete(ctx context.Context, id string) (bool, error)
	ImageUploadURL(ctx context.Context) (*api.ImageUploadURLResponse, error)
	ImageDownloadURL(ctx context.Context, id string) (string, error)
	UploadImage(ctx context.Context, path string) (string, error)
	ClearCache(ctx context.Context) error
}

type postService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time
}

// uploadToPresignedURL and readFile are seams for tests.
var (
	uploadToPresignedURL = netx.UploadToPresignedURL
	readFile             = os.ReadFile
)

func NewPostService(c client.Client, db *sql.DB) PostService {
	return &postService{client: c, db: db, now: time.Now}
}

func (s *postService) cache() posts.Repository {
	return posts.NewSQLiteRepository(s.db)
}

func pageCount(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PostsPerPage - 1) / PostsPerPage
}

func (s *postService) List(ctx context.Context, page int) (*PageView, error) {
	if page < 1 {
		page = 1
	}

	res, err := s.client.ListPosts(ctx, page)
	if err != nil {
		if !errors.Is(err, client.ErrUnavailable) {
			return nil, err
		}
		cp, cacheErr := s.cache().GetPage(ctx, page)
		if cacheErr != nil {
			return nil, err
		}
		return &PageView{
			Page: page, Pages: pageCount(cp.TotalPosts), TotalPosts: cp.TotalPosts,
			Posts: cp.Posts, Offline: true, FetchedAt: cp.FetchedAt,
		}, nil
	}

	fetchedAt := s.now()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return posts.NewSQLiteRepository(tx).SavePage(ctx, page, res.TotalPosts, res.Posts, fetchedAt)
	})
	if err != nil {
		log.Printf("cache: saving page %d: %v", page, err)
	}

	return &PageView{
		Page: page, Pages: pageCount(res.TotalPosts), TotalPosts: res.TotalPosts,
		Posts: res.Posts, FetchedAt: fetchedAt,
	}, nil
}

// Get returns the post and whether it came from the cache.
func (s *postService) Get(ctx context.Context, id string) (*api.Post, bool, error) {
	p, err := s.client.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			s.forget(ctx, id)
			return nil, false, err
		}
		if !errors.Is(err, client.ErrUnavailable) {
			return nil, false, err
		}
		cached, cacheErr := s.cache().GetByID(ctx, id)
		if cacheErr != nil {
			return nil, false, err
		}
		return cached, true, nil
	}

	s.remember(ctx, p)
	return p, false, nil
}

func (s *postService) Create(ctx context.Context, req api.CreatePostRequest) (*api.Post, error) {
	p, err := s.client.CreatePost(ctx, req)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, p)
	return p, nil
}

func (s *postService) Update(ctx context.Context, req api.UpdatePostRequest) (*api.Post, error) {
	p, err := s.client.UpdatePost(ctx, req)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, p)
	return p, nil
}

func (s *postService) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.client.DeletePost(ctx, id)
	if err != nil {
		return false, err
	}
	s.forget(ctx, id)
	return deleted, nil
}

func (s *postService) ImageUploadURL(ctx context.Context) (*api.ImageUploadURLResponse, error) {
	return s.client.ImageUploadURL(ctx)
}

func (s *postService) ImageDownloadURL(ctx context.Context, id string) (string, error) {
	return s.client.ImageDownloadURL(ctx, id)
}

// UploadImage sends the file at path to storage and returns the key to use
// as a post image.
func (s *postService) UploadImage(ctx context.Context, path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	target, err := s.client.ImageUploadURL(ctx)
	if err != nil {
		return "", err
	}

	if err := uploadToPresignedURL(ctx, target.URL, data); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	return target.Key, nil
}

func (s *postService) ClearCache(ctx context.Context) error {
	return s.cache().Clear(ctx)
}

func (s *postService) remember(ctx context.Context, p *api.Post) {
	if err := s.cache().Save(ctx, p); err != nil {
		log.Printf("cache: saving post %s: %v", p.ID, err)
	}
}

func (s *postService) forget(ctx context.Context, id string) {
	if err := s.cache().DeleteByID(ctx, id); err != nil {
		log.Printf("cache: dropping post %s: %v", id, err)
	}
}
