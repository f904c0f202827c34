package auth

import (
	"context"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/server/models"
)

// Identity is the per-request authentication result.
type Identity struct {
	UserID        string
	Authenticated bool
}

// Anonymous is the identity of a request without a valid token.
var Anonymous = Identity{}

func Authenticated(userID string) Identity {
	return Identity{UserID: userID, Authenticated: true}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the stored identity or Anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return Anonymous
	}
	return id
}

func RequireAuthenticated(id Identity) error {
	if !id.Authenticated || id.UserID == "" {
		return common.ErrUnauthenticated
	}
	return nil
}

// CanMutate reports whether id owns post.
func CanMutate(id Identity, post *models.Post) bool {
	if post == nil || RequireAuthenticated(id) != nil {
		return false
	}
	return post.Creator.ID == id.UserID
}
