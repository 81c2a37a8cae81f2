package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/server/auth"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles registration and identity lookup.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// CreateUser registers a regular user. The email is stored lower-cased and
// must be unused.
func (s *UserService) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, common.NewError(common.ErrorValidation,
				fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Email:    normalizeEmail(email),
		Password: hash,
		Role:     models.RoleUser,
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewError(common.ErrorAlreadyExists, "Email already taken")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// GetUserByID returns common.ErrorNotFound for unknown ids.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, "User not found")
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return u, nil
}
