// Package tokens provides a PostgreSQL-backed token record repository.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
)

// PostgresRepository works over dbx.DBTX, so the same code runs inside and
// outside a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Token) (*models.Token, error) {
	query := `
		INSERT INTO tokens (token_hash, user_id, type, expires_at, blacklisted)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, t.TokenHash, t.UserID, string(t.Type), t.ExpiresAt, t.Blacklisted).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, hash string, typ models.TokenType, userID string) (*models.Token, error) {
	query := `
		SELECT id, token_hash, user_id, type, expires_at, blacklisted, created_at
		FROM tokens
		WHERE token_hash = $1 AND type = $2 AND user_id = $3 AND blacklisted = FALSE
	`
	t := &models.Token{}
	var tt string
	err := r.db.QueryRowContext(ctx, query, hash, string(typ), userID).
		Scan(&t.ID, &t.TokenHash, &t.UserID, &tt, &t.ExpiresAt, &t.Blacklisted, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Type = models.TokenType(tt)
	return t, nil
}

func (r *PostgresRepository) Blacklist(ctx context.Context, id string) error {
	query := `
		UPDATE tokens SET blacklisted = TRUE
		WHERE id = $1 AND blacklisted = FALSE
	`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) BlacklistByHash(ctx context.Context, hash string, typ models.TokenType) error {
	query := `
		UPDATE tokens SET blacklisted = TRUE
		WHERE token_hash = $1 AND type = $2 AND blacklisted = FALSE
	`
	return r.execOne(ctx, query, hash, string(typ))
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM tokens WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// execOne runs a conditional update and maps zero affected rows to
// common.ErrorNotFound.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
