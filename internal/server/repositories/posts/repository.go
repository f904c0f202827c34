// Package posts is the content store.
package posts

import (
	"context"

	"github.com/dmitrijs2005/postbox/internal/server/models"
)

// Repository persists posts. Lookups by an unknown or malformed id return
// common.ErrorNotFound.
type Repository interface {
	// Create stores post and fills its ID. Creator.ID is the owner.
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// Update rewrites title, content, image and updated_at.
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	// List returns posts newest first.
	List(ctx context.Context, offset, limit int) ([]*models.Post, error)
	Count(ctx context.Context) (int, error)
}
