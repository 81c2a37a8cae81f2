// Package posts provides a PostgreSQL-backed post repository.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
)

// selectPost aggregates comment ids in creation order as a comma-separated list.
const selectPost = `
	SELECT p.id, p.user_id, p.post, p.created_at, p.updated_at,
		COALESCE(string_agg(c.id::text, ',' ORDER BY c.created_at, c.id), '')
	FROM posts p
	LEFT JOIN comments c ON c.post_id = p.id`

var sortColumns = map[string]string{
	"id":         "p.id",
	"post":       "p.post",
	"user":       "p.user_id",
	"createdAt":  "p.created_at",
	"created_at": "p.created_at",
	"updatedAt":  "p.updated_at",
	"updated_at": "p.updated_at",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query := `
		INSERT INTO posts (user_id, post)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, post.UserID, post.Post).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	post.CommentIDs = []string{}
	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := selectPost + ` WHERE p.id = $1 GROUP BY p.id`

	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateText(ctx context.Context, id, userID, text string) (*models.Post, error) {
	query := `
		UPDATE posts SET post = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3
	`
	res, err := r.db.ExecContext(ctx, query, text, id, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Query(ctx context.Context, filter models.PostFilter, opts pagination.Options) (*models.Page[*models.Post], error) {
	opts = opts.Normalize()

	order, err := pagination.OrderBy(opts.SortBy, sortColumns)
	if err != nil {
		return nil, err
	}

	var where pagination.Where
	if filter.Post != nil {
		where.Eq("p.post", *filter.Post)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	n := where.Next()
	query := selectPost + where.SQL() + ` GROUP BY p.id ` + order +
		` LIMIT $` + strconv.Itoa(n) + ` OFFSET $` + strconv.Itoa(n+1)
	args := append(where.Args(), opts.Limit, opts.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	results := make([]*models.Post, 0, opts.Limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pagination.NewPage(results, total, opts), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	p := &models.Post{}
	var ids string
	if err := s.Scan(&p.ID, &p.UserID, &p.Post, &p.CreatedAt, &p.UpdatedAt, &ids); err != nil {
		return nil, err
	}
	p.CommentIDs = []string{}
	if ids != "" {
		p.CommentIDs = strings.Split(ids, ",")
	}
	return p, nil
}
