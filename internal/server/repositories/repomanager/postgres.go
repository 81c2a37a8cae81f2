// Package repomanager provides the PostgreSQL RepositoryManager, wiring the
// repository constructors together with goose schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/migrations"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/comments"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/posts"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/todos"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Todos(db dbx.DBTX) todos.Repository {
	return todos.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Posts(db dbx.DBTX) posts.Repository {
	return posts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Comments(db dbx.DBTX) comments.Repository {
	return comments.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
