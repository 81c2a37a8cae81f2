// Package todos declares the repository contract for todo items.
package todos

import (
	"context"

	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
)

// Repository persists todos. Single-item reads and writes are always keyed
// by (id, owner) so one user can never reach another user's row.
type Repository interface {
	// Create returns common.ErrorAlreadyExists when the owner already has an
	// open todo with the same text.
	Create(ctx context.Context, todo *models.Todo) (*models.Todo, error)

	// ExistsOpen reports whether userID has a not-completed todo with text,
	// ignoring the todo excludeID (may be empty).
	ExistsOpen(ctx context.Context, userID, text, excludeID string) (bool, error)

	GetByIDAndUser(ctx context.Context, id, userID string) (*models.Todo, error)

	// Update writes Todo and IsCompleted of an owned todo.
	Update(ctx context.Context, todo *models.Todo) (*models.Todo, error)

	DeleteByIDAndUser(ctx context.Context, id, userID string) error

	Query(ctx context.Context, filter models.TodoFilter, opts pagination.Options) (*models.Page[*models.Todo], error)
}
