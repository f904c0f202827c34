// Package users is the user directory: account records and the set of posts
// each account owns.
package users

import (
	"context"

	"github.com/dmitrijs2005/postbox/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills ID and CreatedAt. A duplicate email
	// yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByID also loads the owned post ids.
	GetByID(ctx context.Context, id string) (*models.User, error)
	AddPost(ctx context.Context, userID, postID string) error
	RemovePost(ctx context.Context, userID, postID string) error
}
