// Package todos provides a PostgreSQL-backed todo repository.
package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
)

const openTodoUniqueIndex = "todos_open_unique"

const todoColumns = `id, user_id, todo, is_completed, created_at, updated_at`

// sortColumns maps sortBy field names to columns.
var sortColumns = map[string]string{
	"id":           "id",
	"todo":         "todo",
	"is_completed": "is_completed",
	"user":         "user_id",
	"createdAt":    "created_at",
	"created_at":   "created_at",
	"updatedAt":    "updated_at",
	"updated_at":   "updated_at",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	query := `
		INSERT INTO todos (user_id, todo)
		VALUES ($1, $2)
		RETURNING id, is_completed, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, todo.UserID, todo.Todo).
		Scan(&todo.ID, &todo.IsCompleted, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, openTodoUniqueIndex) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return todo, nil
}

func (r *PostgresRepository) ExistsOpen(ctx context.Context, userID, text, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM todos WHERE user_id = $1 AND todo = $2 AND is_completed = FALSE`
	args := []any{userID, text}
	if excludeID != "" {
		query += ` AND id <> $3`
		args = append(args, excludeID)
	}
	query += `)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`

	t, err := scanTodo(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Update(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	query := `
		UPDATE todos SET todo = $1, is_completed = $2, updated_at = now()
		WHERE id = $3 AND user_id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, todo.Todo, todo.IsCompleted, todo.ID, todo.UserID).Scan(&todo.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrorNotFound
		case dbx.IsUniqueViolation(err, openTodoUniqueIndex):
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return todo, nil
}

func (r *PostgresRepository) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
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

func (r *PostgresRepository) Query(ctx context.Context, filter models.TodoFilter, opts pagination.Options) (*models.Page[*models.Todo], error) {
	opts = opts.Normalize()

	order, err := pagination.OrderBy(opts.SortBy, sortColumns)
	if err != nil {
		return nil, err
	}

	var where pagination.Where
	if filter.Todo != nil {
		where.Eq("todo", *filter.Todo)
	}
	if filter.IsCompleted != nil {
		where.Eq("is_completed", *filter.IsCompleted)
	}
	if filter.UserID != nil {
		where.Eq("user_id", *filter.UserID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	n := where.Next()
	query := `SELECT ` + todoColumns + ` FROM todos` + where.SQL() + ` ` + order +
		` LIMIT $` + strconv.Itoa(n) + ` OFFSET $` + strconv.Itoa(n+1)
	args := append(where.Args(), opts.Limit, opts.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	results := make([]*models.Todo, 0, opts.Limit)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pagination.NewPage(results, total, opts), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (*models.Todo, error) {
	t := &models.Todo{}
	if err := s.Scan(&t.ID, &t.UserID, &t.Todo, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}
