// Package comments declares the repository contract for post comments.
package comments

import (
	"context"

	"github.com/dmitrijs2005/todoapi/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrorNotFound when the post does not exist.
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)

	// GetByPostIDs returns the comments of the given posts in creation order.
	GetByPostIDs(ctx context.Context, postIDs []string) ([]*models.Comment, error)
}
