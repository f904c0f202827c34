package posts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `(?s)INSERT INTO posts \(title, content, image_url, owner_id, created_at, updated_at\).*RETURNING id`
	getQ    = `(?s)SELECT p\.id, p\.title.*FROM posts p.*JOIN users u ON u\.id = p\.owner_id.*WHERE p\.id = \$1`
	updateQ = `(?s)UPDATE posts SET title = \$2, content = \$3, image_url = \$4, updated_at = \$5.*WHERE id = \$1`
	deleteQ = `DELETE FROM posts WHERE id = \$1`
	listQ   = `(?s)SELECT p\.id.*FROM posts p.*ORDER BY p\.created_at DESC, p\.id DESC.*OFFSET \$1 LIMIT \$2`
	countQ  = `SELECT COUNT\(\*\) FROM posts`
)

var postCols = []string{"id", "title", "content", "image_url", "owner_id", "name", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("Hello", "World!", "posts/a.png", "u1", now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))

	got, err := repo.Create(context.Background(), &models.Post{
		Title: "Hello", Content: "World!", ImageURL: "posts/a.png",
		Creator:   models.Creator{ID: "u1", Name: "Alice"},
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "Alice", got.Creator.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Post{Creator: models.Creator{ID: "u1"}})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*fk violation`), err.Error())
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	mock.ExpectQuery(getQ).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow("p1", "Hello", "World!", "", "u1", "Alice", created, updated))

	got, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, &models.Post{
		ID: "p1", Title: "Hello", Content: "World!",
		Creator:   models.Creator{ID: "u1", Name: "Alice"},
		CreatedAt: created, UpdatedAt: updated,
	}, got)
}

func TestGetByID_NotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "no rows", err: sql.ErrNoRows},
		{name: "malformed id", err: &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(getQ).WithArgs("nope").WillReturnError(tt.err)

			_, err := repo.GetByID(context.Background(), "nope")
			assert.ErrorIs(t, err, common.ErrorNotFound)
		})
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQ).WithArgs("p1").WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), "p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "db error")
}

func TestUpdate(t *testing.T) {
	now := time.Now().UTC()
	post := &models.Post{ID: "p1", Title: "New title", Content: "New body", ImageURL: "k", UpdatedAt: now}

	tests := []struct {
		name    string
		result  sql.Result
		execErr error
		wantErr error
	}{
		{name: "one row", result: sqlmock.NewResult(0, 1)},
		{name: "zero rows", result: sqlmock.NewResult(0, 0), wantErr: common.ErrorNotFound},
		{name: "malformed id", execErr: &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, wantErr: common.ErrorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			exp := mock.ExpectExec(updateQ).WithArgs("p1", "New title", "New body", "k", now)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Update(context.Background(), post)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUpdate_RowsAffectedError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewErrorResult(errors.New("ra")))

	err := repo.Update(context.Background(), &models.Post{ID: "p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows affected error")
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "p1"))

	mock.ExpectExec(deleteQ).WithArgs("p2").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "p2"), common.ErrorNotFound)

	mock.ExpectExec(deleteQ).WithArgs("p3").WillReturnResult(sqlmock.NewResult(0, 2))
	err := repo.Delete(context.Background(), "p3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected rows affected: 2")

	mock.ExpectExec(deleteQ).WithArgs("p4").WillReturnError(errors.New("db err"))
	err = repo.Delete(context.Background(), "p4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	t1 := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)
	mock.ExpectQuery(listQ).
		WithArgs(8, 4).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow("p2", "Second", "Body two", "", "u1", "Alice", t1, t1).
			AddRow("p1", "First", "Body one", "img", "u2", "Bob", t0, t0))

	got, err := repo.List(context.Background(), 8, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ID)
	assert.Equal(t, models.Creator{ID: "u2", Name: "Bob"}, got[1].Creator)
}

func TestList_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).WithArgs(40, 4).WillReturnRows(sqlmock.NewRows(postCols))

	got, err := repo.List(context.Background(), 40, 4)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).WithArgs(0, 4).WillReturnError(errors.New("boom"))

	_, err := repo.List(context.Background(), 0, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select posts")
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(countQ).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	mock.ExpectQuery(countQ).WillReturnError(errors.New("boom"))
	_, err = repo.Count(context.Background())
	assert.Error(t, err)
}
