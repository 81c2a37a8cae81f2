// Package users declares the repository contract for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/todoapi/internal/server/models"
)

// Repository persists and looks up users.
type Repository interface {
	// Create inserts a user and fills in ID and timestamps. A duplicate email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns common.ErrorNotFound when no user has the email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns common.ErrorNotFound when the user does not exist.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByIDs returns the existing users among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}
