package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/comments"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/posts"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/todos"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repository against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Todos(db dbx.DBTX) todos.Repository
	Posts(db dbx.DBTX) posts.Repository
	Comments(db dbx.DBTX) comments.Repository
}
