package grpc

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/server/auth"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/services"
)

type fakeUsers struct {
	regResp *models.User
	regErr  error

	loginResp *services.LoginResult
	loginErr  error
}

func (f *fakeUsers) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	return f.regResp, f.regErr
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	return f.loginResp, f.loginErr
}

// fakePosts records the identity and arguments of the last call.
type fakePosts struct {
	mu sync.Mutex

	lastID     auth.Identity
	lastPostID string
	lastPage   int
	lastInput  services.PostInput
	lastUpdate services.PostUpdate

	post    *models.Post
	page    *models.PostPage
	deleted bool
	key     string
	url     string
	err     error
}

func (f *fakePosts) record(id auth.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastID = id
}

func (f *fakePosts) identity() auth.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastID
}

func (f *fakePosts) Create(ctx context.Context, id auth.Identity, in services.PostInput) (*models.Post, error) {
	f.record(id)
	f.lastInput = in
	return f.post, f.err
}

func (f *fakePosts) Get(ctx context.Context, id auth.Identity, postID string) (*models.Post, error) {
	f.record(id)
	f.lastPostID = postID
	return f.post, f.err
}

func (f *fakePosts) List(ctx context.Context, id auth.Identity, page int) (*models.PostPage, error) {
	f.record(id)
	f.lastPage = page
	return f.page, f.err
}

func (f *fakePosts) Update(ctx context.Context, id auth.Identity, postID string, in services.PostUpdate) (*models.Post, error) {
	f.record(id)
	f.lastPostID = postID
	f.lastUpdate = in
	return f.post, f.err
}

func (f *fakePosts) Delete(ctx context.Context, id auth.Identity, postID string) (bool, error) {
	f.record(id)
	f.lastPostID = postID
	return f.deleted, f.err
}

func (f *fakePosts) ImageUploadURL(ctx context.Context, id auth.Identity) (string, string, error) {
	f.record(id)
	return f.key, f.url, f.err
}

func (f *fakePosts) ImageDownloadURL(ctx context.Context, id auth.Identity, postID string) (string, error) {
	f.record(id)
	f.lastPostID = postID
	return f.url, f.err
}

// fakeTokens accepts "good-<user>" tokens.
type fakeTokens struct{}

func (fakeTokens) Verify(token string) (*auth.SessionClaims, error) {
	if len(token) > 5 && token[:5] == "good-" {
		return &auth.SessionClaims{UserID: token[5:]}, nil
	}
	return nil, common.ErrInvalidToken
}
