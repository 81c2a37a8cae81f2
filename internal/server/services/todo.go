package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/repomanager"
)

const (
	msgTodoNotFound = "Todo not found"
	msgTodoExists   = "Todo item already exists"
)

// TodoService manages todos. Every single-item operation is scoped to the
// owner, so a foreign todo looks exactly like a missing one.
type TodoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTodoService(db *sql.DB, m repomanager.RepositoryManager) *TodoService {
	return &TodoService{db: db, repomanager: m}
}

// CreateTodo rejects text that duplicates one of the owner's open todos.
func (s *TodoService) CreateTodo(ctx context.Context, userID, text string) (*models.Todo, error) {
	repo := s.repomanager.Todos(s.db)

	exists, err := repo.ExistsOpen(ctx, userID, text, "")
	if err != nil {
		return nil, fmt.Errorf("error checking todo: %w", err)
	}
	if exists {
		return nil, common.NewError(common.ErrorValidation, msgTodoExists)
	}

	t, err := repo.Create(ctx, &models.Todo{UserID: userID, Todo: text})
	if err != nil {
		return nil, s.mapWriteError(err)
	}
	return t, nil
}

func (s *TodoService) QueryTodos(ctx context.Context, filter models.TodoFilter, opts pagination.Options) (*models.Page[*models.Todo], error) {
	page, err := s.repomanager.Todos(s.db).Query(ctx, filter, opts)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("error listing todos: %w", err)
	}
	return page, nil
}

func (s *TodoService) GetTodoByIDAndUser(ctx context.Context, id, userID string) (*models.Todo, error) {
	t, err := s.repomanager.Todos(s.db).GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, s.mapReadError(err)
	}
	return t, nil
}

// UpdateTodoByID applies patch to an owned todo. A text change re-runs the
// duplicate check excluding the todo itself.
func (s *TodoService) UpdateTodoByID(ctx context.Context, id, userID string, patch models.TodoPatch) (*models.Todo, error) {
	var out *models.Todo
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Todos(tx)

		t, err := repo.GetByIDAndUser(ctx, id, userID)
		if err != nil {
			return s.mapReadError(err)
		}

		if patch.Todo != nil {
			exists, err := repo.ExistsOpen(ctx, userID, *patch.Todo, id)
			if err != nil {
				return fmt.Errorf("error checking todo: %w", err)
			}
			if exists {
				return common.NewError(common.ErrorValidation, msgTodoExists)
			}
			t.Todo = *patch.Todo
		}
		if patch.IsCompleted != nil {
			t.IsCompleted = *patch.IsCompleted
		}

		out, err = repo.Update(ctx, t)
		if err != nil {
			return s.mapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TodoService) DeleteTodoByID(ctx context.Context, id, userID string) error {
	if err := s.repomanager.Todos(s.db).DeleteByIDAndUser(ctx, id, userID); err != nil {
		return s.mapReadError(err)
	}
	return nil
}

func (s *TodoService) mapReadError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NewError(common.ErrorNotFound, msgTodoNotFound)
	}
	return fmt.Errorf("error accessing todo: %w", err)
}

// mapWriteError also covers the unique index that backs the duplicate
// check when two requests race.
func (s *TodoService) mapWriteError(err error) error {
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		return common.NewError(common.ErrorValidation, msgTodoExists)
	case errors.Is(err, common.ErrorNotFound):
		return common.NewError(common.ErrorNotFound, msgTodoNotFound)
	}
	return fmt.Errorf("error saving todo: %w", err)
}
