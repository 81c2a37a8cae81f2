// Package services contains the server's business logic. Services depend on
// repositories through repomanager.RepositoryManager and on the database
// handle for transactions.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/auth"
	"github.com/dmitrijs2005/todoapi/internal/server/config"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/repomanager"
)

// TokenService mints, verifies and persists tokens.
//
// Access tokens are stateless: they are verified by signature and expiry
// only. Refresh tokens are additionally stored (as a hash) so they can be
// revoked and rotated.
type TokenService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// GenerateToken signs a token with the configured secret.
func (s *TokenService) GenerateToken(userID string, expiresAt time.Time, typ models.TokenType) (string, error) {
	return s.GenerateTokenWithSecret(userID, expiresAt, typ, s.jwtSecret)
}

// GenerateTokenWithSecret signs a token with an explicit secret.
func (s *TokenService) GenerateTokenWithSecret(userID string, expiresAt time.Time, typ models.TokenType, secret []byte) (string, error) {
	return auth.GenerateToken(userID, expiresAt, typ, secret)
}

// SaveToken persists a token record for token.
func (s *TokenService) SaveToken(ctx context.Context, token, userID string, expiresAt time.Time, typ models.TokenType, blacklisted bool) (*models.Token, error) {
	return s.saveToken(ctx, s.db, token, userID, expiresAt, typ, blacklisted)
}

func (s *TokenService) saveToken(ctx context.Context, db dbx.DBTX, token, userID string, expiresAt time.Time, typ models.TokenType, blacklisted bool) (*models.Token, error) {
	rec := &models.Token{
		TokenHash:   auth.HashToken(token),
		UserID:      userID,
		Type:        typ,
		ExpiresAt:   expiresAt,
		Blacklisted: blacklisted,
	}
	out, err := s.repomanager.Tokens(db).Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("error saving token: %w", err)
	}
	return out, nil
}

// VerifyToken checks signature, expiry and type of token. For refresh
// tokens the active stored record is returned; for access tokens a record
// is synthesised from the claims without touching the store.
//
// Errors: common.ErrInvalidToken, common.ErrTokenExpired, common.ErrTokenNotFound.
func (s *TokenService) VerifyToken(ctx context.Context, token string, typ models.TokenType) (*models.Token, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, common.ErrInvalidToken
	}

	if typ == models.TokenTypeAccess {
		return &models.Token{
			UserID:    claims.Subject,
			Type:      typ,
			ExpiresAt: claims.ExpiresAt.Time,
		}, nil
	}

	rec, err := s.repomanager.Tokens(s.db).FindActive(ctx, auth.HashToken(token), typ, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error searching token: %w", err)
	}
	if !rec.ExpiresAt.After(s.now()) {
		return nil, common.ErrTokenExpired
	}
	return rec, nil
}

// GenerateAuthTokens issues an access/refresh pair for user. Only the
// refresh token is persisted.
func (s *TokenService) GenerateAuthTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	return s.generateAuthTokens(ctx, s.db, user)
}

func (s *TokenService) generateAuthTokens(ctx context.Context, db dbx.DBTX, user *models.User) (*models.AuthTokens, error) {
	now := s.now()
	accessExpires := now.Add(s.accessTokenValidityDuration)
	refreshExpires := now.Add(s.refreshTokenValidityDuration)

	access, err := s.GenerateToken(user.ID, accessExpires, models.TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}
	refresh, err := s.GenerateToken(user.ID, refreshExpires, models.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("error signing refresh token: %w", err)
	}
	if _, err := s.saveToken(ctx, db, refresh, user.ID, refreshExpires, models.TokenTypeRefresh, false); err != nil {
		return nil, err
	}

	return &models.AuthTokens{
		Access:  models.IssuedToken{Token: access, Expires: accessExpires},
		Refresh: models.IssuedToken{Token: refresh, Expires: refreshExpires},
	}, nil
}

// PurgeExpired deletes token records whose expiry has passed.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repomanager.Tokens(s.db).DeleteExpired(ctx, s.now())
}
