// Package comments provides a PostgreSQL-backed comment repository.
package comments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
)

const postForeignKey = "comments_post_id_fkey"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	query := `
		INSERT INTO comments (user_id, post_id, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, c.UserID, c.PostID, c.Comment).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err, postForeignKey) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByPostIDs(ctx context.Context, postIDs []string) ([]*models.Comment, error) {
	if len(postIDs) == 0 {
		return []*models.Comment{}, nil
	}

	query := `
		SELECT id, user_id, post_id, comment, created_at, updated_at
		FROM comments
		WHERE post_id IN (` + dbx.Placeholders(1, len(postIDs)) + `)
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, dbx.Args(postIDs)...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Comment{}
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.PostID, &c.Comment, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
