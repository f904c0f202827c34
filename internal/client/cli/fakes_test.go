package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/postbox/internal/api"
	"github.com/dmitrijs2005/postbox/internal/client/client"
	"github.com/dmitrijs2005/postbox/internal/client/services"
)

// fakeClient covers the session calls the CLI makes directly. Post calls go
// through fakePosts.
type fakeClient struct {
	client.Client

	mu sync.Mutex

	token string

	regEmail, regPass, regName string
	regErr                     error

	loginEmail, loginPass string
	loginErr              error

	pingErr error
	pings   int
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeClient) Register(ctx context.Context, email, password, name string) (*api.RegisterResponse, error) {
	f.regEmail, f.regPass, f.regName = email, password, name
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &api.RegisterResponse{ID: "u1", Email: email, Name: name}, nil
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	f.loginEmail, f.loginPass = email, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.token = "tok"
	return &api.LoginResponse{Token: "tok", UserID: "u1"}, nil
}

func (f *fakeClient) Logout()        { f.token = "" }
func (f *fakeClient) LoggedIn() bool { return f.token != "" }

func (f *fakeClient) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

type fakePosts struct {
	listPage int
	view     *services.PageView

	getID      string
	getPost    *api.Post
	getOffline bool

	created api.CreatePostRequest
	updated api.UpdatePostRequest

	deletedID string

	upload *api.ImageUploadURLResponse

	downloadID  string
	downloadURL string
	downloadErr error

	uploadedPath string
	uploadedKey  string

	cleared  bool
	clearErr error

	err error
}

func (f *fakePosts) List(ctx context.Context, page int) (*services.PageView, error) {
	f.listPage = page
	if f.err != nil {
		return nil, f.err
	}
	return f.view, nil
}

func (f *fakePosts) Get(ctx context.Context, id string) (*api.Post, bool, error) {
	f.getID = id
	if f.err != nil {
		return nil, false, f.err
	}
	return f.getPost, f.getOffline, nil
}

func (f *fakePosts) Create(ctx context.Context, req api.CreatePostRequest) (*api.Post, error) {
	f.created = req
	return &api.Post{ID: "new-id", Title: req.Title}, f.err
}

func (f *fakePosts) Update(ctx context.Context, req api.UpdatePostRequest) (*api.Post, error) {
	f.updated = req
	return &api.Post{ID: req.ID}, f.err
}

func (f *fakePosts) Delete(ctx context.Context, id string) (bool, error) {
	f.deletedID = id
	return f.err == nil, f.err
}

func (f *fakePosts) ImageUploadURL(ctx context.Context) (*api.ImageUploadURLResponse, error) {
	return f.upload, f.err
}

func (f *fakePosts) ImageDownloadURL(ctx context.Context, id string) (string, error) {
	f.downloadID = id
	return f.downloadURL, f.downloadErr
}

func (f *fakePosts) UploadImage(ctx context.Context, path string) (string, error) {
	f.uploadedPath = path
	return f.uploadedKey, f.err
}

func (f *fakePosts) ClearCache(ctx context.Context) error {
	f.cleared = true
	return f.clearErr
}

func newTestApp(c *fakeClient, p *fakePosts, input string) (*App, *bytes.Buffer) {
	if p == nil {
		p = &fakePosts{}
	}
	out := &bytes.Buffer{}
	return &App{client: c, posts: p, reader: bufio.NewReader(strings.NewReader(input)), out: out}, out
}

// stubAnswers replaces the prompt helpers with canned answers, consumed in
// order across getSimpleText and getMultiline.
func stubAnswers(t *testing.T, password string, answers ...string) {
	t.Helper()
	origST, origGP, origML := getSimpleText, getPassword, getMultiline

	next := func() string {
		if len(answers) == 0 {
			t.Fatalf("unexpected prompt")
		}
		a := answers[0]
		answers = answers[1:]
		return a
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(password), nil }

	t.Cleanup(func() {
		getSimpleText, getPassword, getMultiline = origST, origGP, origML
	})
}
