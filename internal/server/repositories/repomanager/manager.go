package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/posts"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a connection or a
// transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
}
