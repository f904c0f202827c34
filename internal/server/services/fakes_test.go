package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/posts"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/users"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memStore backs the fake repositories. Writes inside a transaction apply
// immediately; the sqlmock DB only checks that a transaction was opened.
type memStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	posts  map[string]*models.Post
	owned  map[string][]string
	nextID int

	getUserErr    error
	createErr     error
	createPostErr error
	addPostErr    error
	removePostErr error
	listErr       error
	countErr      error
}

func newMemStore() *memStore {
	return &memStore{
		users: map[string]*models.User{},
		posts: map[string]*models.Post{},
		owned: map[string][]string{},
	}
}

func (s *memStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%02d", prefix, s.nextID)
}

func (s *memStore) addUser(email, name string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: s.id("u"), Email: email, Name: name, PasswordHash: []byte("x")}
	s.users[u.ID] = u
	return u
}

func (s *memStore) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

type fakeUsersRepo struct{ s *memStore }

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createErr != nil {
		return nil, f.s.createErr
	}
	for _, existing := range f.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	u.ID = f.s.id("u")
	cp := *u
	f.s.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.getUserErr != nil {
		return nil, f.s.getUserErr
	}
	for _, u := range f.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.getUserErr != nil {
		return nil, f.s.getUserErr
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	cp.PostIDs = []string{}
	for _, pid := range f.s.owned[id] {
		if _, ok := f.s.posts[pid]; ok {
			cp.PostIDs = append(cp.PostIDs, pid)
		}
	}
	return &cp, nil
}

func (f *fakeUsersRepo) AddPost(ctx context.Context, userID, postID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.addPostErr != nil {
		return f.s.addPostErr
	}
	f.s.owned[userID] = append(f.s.owned[userID], postID)
	return nil
}

func (f *fakeUsersRepo) RemovePost(ctx context.Context, userID, postID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.removePostErr != nil {
		return f.s.removePostErr
	}
	ids := f.s.owned[userID][:0]
	for _, id := range f.s.owned[userID] {
		if id != postID {
			ids = append(ids, id)
		}
	}
	f.s.owned[userID] = ids
	return nil
}

type fakePostsRepo struct{ s *memStore }

func (f *fakePostsRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createPostErr != nil {
		return nil, f.s.createPostErr
	}
	p.ID = f.s.id("p")
	cp := *p
	f.s.posts[p.ID] = &cp
	return p, nil
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePostsRepo) Update(ctx context.Context, p *models.Post) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.posts[p.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *p
	f.s.posts[p.ID] = &cp
	return nil
}

func (f *fakePostsRepo) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.posts, id)
	return nil
}

func (f *fakePostsRepo) List(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.listErr != nil {
		return nil, f.s.listErr
	}
	all := make([]*models.Post, 0, len(f.s.posts))
	for _, p := range f.s.posts {
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []*models.Post{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakePostsRepo) Count(ctx context.Context) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.countErr != nil {
		return 0, f.s.countErr
	}
	return len(f.s.posts), nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return &fakeUsersRepo{s: m.s} }
func (m *fakeRepoManager) Posts(db dbx.DBTX) posts.Repository          { return &fakePostsRepo{s: m.s} }

type fakeAssets struct {
	mu        sync.Mutex
	removed   []string
	removeErr error
	putErr    error
	getErr    error
}

func (f *fakeAssets) PresignPut(ctx context.Context, userID string) (string, string, error) {
	if f.putErr != nil {
		return "", "", f.putErr
	}
	key := models.ImageKeyPrefix(userID) + "2025/1/1/k"
	return key, "https://s3.local/" + key + "?sig", nil
}

func (f *fakeAssets) PresignGet(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return "https://s3.local/" + key + "?get", nil
}

func (f *fakeAssets) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	return f.removeErr
}

// recordingLogger keeps warning messages for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (l *recordingLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (l *recordingLogger) Error(ctx context.Context, msg string, args ...any) {}
func (l *recordingLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *recordingLogger) With(args ...any) logging.Logger { return l }
