package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/auth"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/repomanager"
)

const (
	msgIncorrectCredentials = "Incorrect email or password"
	msgPleaseAuthenticate   = "Please authenticate"
)

// AuthService drives a session's refresh token through login, rotation
// and logout. A refresh token string succeeds at most once, either in
// RefreshAuth or in Logout.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService) *AuthService {
	return &AuthService{db: db, repomanager: m, tokens: tokens}
}

// LoginUserWithEmailAndPassword returns the user owning the credentials.
// Unknown email and wrong password fail identically.
func (s *AuthService) LoginUserWithEmailAndPassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash := ""
	if user != nil {
		hash = user.Password
	}
	if !auth.CheckPassword(hash, password) {
		return nil, common.NewError(common.ErrInvalidCredentials, msgIncorrectCredentials)
	}
	return user, nil
}

// Logout blacklists the refresh token. Unknown and already blacklisted
// tokens yield common.ErrorNotFound.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.repomanager.Tokens(s.db).BlacklistByHash(ctx, auth.HashToken(refreshToken), models.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, "Not found")
		}
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

// RefreshAuth rotates refreshToken: the old record is blacklisted and a new
// pair is issued in the same transaction. Every failure is reported as
// common.ErrorUnauthorized so callers cannot tell the cases apart.
func (s *AuthService) RefreshAuth(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	rec, err := s.tokens.VerifyToken(ctx, refreshToken, models.TokenTypeRefresh)
	if err != nil {
		return nil, common.NewError(common.ErrorUnauthorized, msgPleaseAuthenticate)
	}

	var out *models.AuthTokens
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// Losing racers see zero affected rows here.
		if err := s.repomanager.Tokens(tx).Blacklist(ctx, rec.ID); err != nil {
			return err
		}
		user, err := s.repomanager.Users(tx).GetByID(ctx, rec.UserID)
		if err != nil {
			return err
		}
		out, err = s.tokens.generateAuthTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, common.NewError(common.ErrorUnauthorized, msgPleaseAuthenticate)
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
