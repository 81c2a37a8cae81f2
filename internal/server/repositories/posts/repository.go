// Package posts declares the repository contract for posts.
package posts

import (
	"context"

	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
)

type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)

	// GetByID returns the post with its comment ids, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Post, error)

	// UpdateText changes the text of a post owned by userID.
	UpdateText(ctx context.Context, id, userID, text string) (*models.Post, error)

	// DeleteByIDAndUser removes a post owned by userID together with its comments.
	DeleteByIDAndUser(ctx context.Context, id, userID string) error

	Query(ctx context.Context, filter models.PostFilter, opts pagination.Options) (*models.Page[*models.Post], error)
}
