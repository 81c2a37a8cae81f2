// Package tokens declares the repository contract for persisted token records.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/todoapi/internal/server/models"
)

// Repository stores token records keyed by the hash of the signed token.
// All state changes are single conditional statements so concurrent callers
// cannot both observe a successful transition.
type Repository interface {
	// Create inserts a record and fills in ID and CreatedAt.
	Create(ctx context.Context, token *models.Token) (*models.Token, error)

	// FindActive returns the non-blacklisted record matching hash, type and
	// owner, or common.ErrorNotFound.
	FindActive(ctx context.Context, hash string, typ models.TokenType, userID string) (*models.Token, error)

	// Blacklist flips the record with id from active to blacklisted.
	// It returns common.ErrorNotFound when the record is missing or was
	// already blacklisted.
	Blacklist(ctx context.Context, id string) error

	// BlacklistByHash is Blacklist keyed by hash and type.
	BlacklistByHash(ctx context.Context, hash string, typ models.TokenType) error

	// DeleteExpired removes records that expired before the cutoff and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
