package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/server/auth"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/repomanager"
)

// AccessControl is the per-request gate shared by the REST middleware and
// the gRPC interceptor.
//
// A request moves Unauthenticated -> TokenVerified -> IdentityResolved;
// ownership is then enforced by the resource services. Any failed step is
// final for the request.
type AccessControl struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
}

func NewAccessControl(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService) *AccessControl {
	return &AccessControl{db: db, repomanager: m, tokens: tokens}
}

// Authenticate resolves the user behind an "Authorization: Bearer <token>"
// value. Token failures and a missing user are common.ErrorUnauthorized;
// store failures are returned wrapped.
func (a *AccessControl) Authenticate(ctx context.Context, header string) (*models.User, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, unauthenticated()
	}

	rec, err := a.tokens.VerifyToken(ctx, token, models.TokenTypeAccess)
	if err != nil {
		return nil, unauthenticated()
	}

	user, err := a.repomanager.Users(a.db).GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, unauthenticated()
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// Authorize checks the role-to-rights table. A missing right is
// common.ErrorForbidden.
func (a *AccessControl) Authorize(user *models.User, rights ...auth.Right) error {
	if user == nil {
		return unauthenticated()
	}
	if !auth.HasRights(user.Role, rights...) {
		return common.NewError(common.ErrorForbidden, "Forbidden")
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < len(common.BearerPrefix) || !strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(common.BearerPrefix):])
	return token, token != ""
}

func unauthenticated() error {
	return common.NewError(common.ErrorUnauthorized, msgPleaseAuthenticate)
}
