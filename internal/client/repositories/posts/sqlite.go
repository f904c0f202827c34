package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postbox/internal/api"
	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

var _ Repository = (*SQLiteRepository)(nil)

const postColumns = `id, title, content, image_url, creator_id, creator_name, created_at, updated_at`

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*api.Post, error) {
	var p api.Post
	var created, updated string
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.ImageURL, &p.Creator.ID, &p.Creator.Name, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("bad updated_at %q: %w", updated, err)
	}
	return &p, nil
}

// Save upserts a post by id.
func (r *SQLiteRepository) Save(ctx context.Context, p *api.Post) error {
	query := `INSERT INTO posts (` + postColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title = excluded.title,
				content = excluded.content,
				image_url = excluded.image_url,
				creator_id = excluded.creator_id,
				creator_name = excluded.creator_name,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Content, p.ImageURL, p.Creator.ID, p.Creator.Name,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert post: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*api.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return p, nil
}

// SavePage stores the posts and their order for page. Run it inside a
// transaction to keep the page consistent.
func (r *SQLiteRepository) SavePage(ctx context.Context, page int, total int, posts []api.Post, fetchedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM page_posts WHERE page = ?`, page); err != nil {
		return fmt.Errorf("failed to reset page: %w", err)
	}

	query := `INSERT INTO pages (page, total_posts, fetched_at) VALUES (?, ?, ?)
			ON CONFLICT(page) DO UPDATE SET total_posts = excluded.total_posts, fetched_at = excluded.fetched_at`
	if _, err := r.db.ExecContext(ctx, query, page, total, formatTime(fetchedAt)); err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}

	for i := range posts {
		if err := r.Save(ctx, &posts[i]); err != nil {
			return err
		}
		_, err := r.db.ExecContext(ctx, `INSERT INTO page_posts (page, position, post_id) VALUES (?, ?, ?)`, page, i, posts[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert page slot: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetPage(ctx context.Context, page int) (*CachedPage, error) {
	cp := &CachedPage{Page: page, Posts: []api.Post{}}
	var fetched string

	row := r.db.QueryRowContext(ctx, `SELECT total_posts, fetched_at FROM pages WHERE page = ?`, page)
	if err := row.Scan(&cp.TotalPosts, &fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}

	var err error
	if cp.FetchedAt, err = parseTime(fetched); err != nil {
		return nil, fmt.Errorf("bad fetched_at %q: %w", fetched, err)
	}

	query := `SELECT p.id, p.title, p.content, p.image_url, p.creator_id, p.creator_name, p.created_at, p.updated_at
			FROM page_posts pp JOIN posts p ON p.id = pp.post_id
			WHERE pp.page = ? ORDER BY pp.position`
	rows, err := r.db.QueryContext(ctx, query, page)
	if err != nil {
		return nil, fmt.Errorf("failed to select page posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		cp.Posts = append(cp.Posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cp, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM page_posts WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete page slots: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	for _, q := range []string{`DELETE FROM page_posts`, `DELETE FROM pages`, `DELETE FROM posts`} {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	return nil
}
