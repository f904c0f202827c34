package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/server/auth"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/postbox/internal/server/validation"
)

// PostsPerPage is the fixed listing page size.
const PostsPerPage = 4

// AssetStore holds uploaded images. Keys issued by PresignPut carry the
// uploader's prefix (models.ImageKeyPrefix).
type AssetStore interface {
	PresignPut(ctx context.Context, userID string) (key, url string, err error)
	PresignGet(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

type PostInput struct {
	Title    string
	Content  string
	ImageURL string
}

// PostUpdate replaces title and content. ImageURL is left unchanged when nil.
type PostUpdate struct {
	Title    string
	Content  string
	ImageURL *string
}

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	assets      AssetStore
	log         logging.Logger
	now         func() time.Time
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, assets AssetStore, log logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		assets:      assets,
		log:         log.With("module", "posts"),
		now:         time.Now,
	}
}

func (s *PostService) Create(ctx context.Context, id auth.Identity, in PostInput) (*models.Post, error) {
	if err := auth.RequireAuthenticated(id); err != nil {
		return nil, err
	}

	errs := validation.ValidateContent(in.Title, in.Content)
	errs = append(errs, validation.ValidateImageKey(in.ImageURL, id.UserID)...)
	if err := validation.AsError(errs); err != nil {
		return nil, err
	}

	owner, err := s.repomanager.Users(s.db).GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error looking up owner: %w", err)
	}

	now := s.now().UTC()
	post := &models.Post{
		Title:     in.Title,
		Content:   in.Content,
		ImageURL:  in.ImageURL,
		Creator:   models.Creator{ID: owner.ID, Name: owner.Name},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Posts(tx).Create(ctx, post); err != nil {
			return err
		}
		return s.repomanager.Users(tx).AddPost(ctx, owner.ID, post.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	s.log.Info(ctx, "post created", "post_id", post.ID, "user_id", owner.ID)
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id auth.Identity, postID string) (*models.Post, error) {
	if err := auth.RequireAuthenticated(id); err != nil {
		return nil, err
	}
	return s.lookup(ctx, postID)
}

func (s *PostService) lookup(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.repomanager.Posts(s.db).GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error getting post: %w", err)
	}
	return post, nil
}

// List returns one page of posts, newest first. Pages below 1 are treated
// as page 1.
func (s *PostService) List(ctx context.Context, id auth.Identity, page int) (*models.PostPage, error) {
	if err := auth.RequireAuthenticated(id); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}

	repo := s.repomanager.Posts(s.db)

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting posts: %w", err)
	}

	if page-1 > total/PostsPerPage {
		return &models.PostPage{Posts: []*models.Post{}, TotalPosts: total}, nil
	}

	posts, err := repo.List(ctx, (page-1)*PostsPerPage, PostsPerPage)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	return &models.PostPage{Posts: posts, TotalPosts: total}, nil
}

func (s *PostService) Update(ctx context.Context, id auth.Identity, postID string, in PostUpdate) (*models.Post, error) {
	if err := auth.RequireAuthenticated(id); err != nil {
		return nil, err
	}

	post, err := s.lookup(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !auth.CanMutate(id, post) {
		return nil, common.ErrForbidden
	}

	errs := validation.ValidateContent(in.Title, in.Content)
	if in.ImageURL != nil {
		errs = append(errs, validation.ValidateImageKey(*in.ImageURL, id.UserID)...)
	}
	if err := validation.AsError(errs); err != nil {
		return nil, err
	}

	oldImage := post.ImageURL

	post.Title = in.Title
	post.Content = in.Content
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	post.UpdatedAt = s.now().UTC()

	if err := s.repomanager.Posts(s.db).Update(ctx, post); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating post: %w", err)
	}

	if oldImage != post.ImageURL {
		s.removeAsset(ctx, oldImage)
	}

	return post, nil
}

// Delete removes the post and the owner's reference to it, then its image.
func (s *PostService) Delete(ctx context.Context, id auth.Identity, postID string) (bool, error) {
	if err := auth.RequireAuthenticated(id); err != nil {
		return false, err
	}

	post, err := s.lookup(ctx, postID)
	if err != nil {
		return false, err
	}

	if !auth.CanMutate(id, post) {
		return false, common.ErrForbidden
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Posts(tx).Delete(ctx, post.ID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).RemovePost(ctx, post.Creator.ID, post.ID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("error deleting post: %w", err)
	}

	s.removeAsset(ctx, post.ImageURL)

	s.log.Info(ctx, "post deleted", "post_id", post.ID, "user_id", id.UserID)
	return true, nil
}

// ImageUploadURL returns a fresh object key and a presigned upload URL for it.
func (s *PostService) ImageUploadURL(ctx context.Context, id auth.Identity) (string, string, error) {
	if err := auth.RequireAuthenticated(id); err != nil {
		return "", "", err
	}

	key, url, err := s.assets.PresignPut(ctx, id.UserID)
	if err != nil {
		return "", "", fmt.Errorf("error presigning upload: %w", err)
	}
	return key, url, nil
}

// ImageDownloadURL returns a presigned download URL for the post's image.
// A post without an image reports common.ErrorNotFound.
func (s *PostService) ImageDownloadURL(ctx context.Context, id auth.Identity, postID string) (string, error) {
	if err := auth.RequireAuthenticated(id); err != nil {
		return "", err
	}

	post, err := s.lookup(ctx, postID)
	if err != nil {
		return "", err
	}
	if post.ImageURL == "" {
		return "", common.ErrorNotFound
	}

	url, err := s.assets.PresignGet(ctx, post.ImageURL)
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}
	return url, nil
}

// removeAsset never fails the caller; errors are only logged.
func (s *PostService) removeAsset(ctx context.Context, key string) {
	if key == "" || s.assets == nil {
		return
	}
	if err := s.assets.Remove(ctx, key); err != nil {
		s.log.Warn(ctx, "asset cleanup failed", "key", key, "error", err)
	}
}
