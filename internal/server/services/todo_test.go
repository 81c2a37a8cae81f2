package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/todos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreateTodo_DuplicateOpenText(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s := NewTodoService(db, &fakeRepoManager{s: newMemStore()})
	ctx := context.Background()

	first, err := s.CreateTodo(ctx, "u1", "buy milk")
	require.NoError(t, err)
	assert.False(t, first.IsCompleted)

	_, err = s.CreateTodo(ctx, "u1", "buy milk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorValidation))
	assert.Equal(t, "Todo item already exists", err.Error())

	_, err = s.CreateTodo(ctx, "u2", "buy milk")
	assert.NoError(t, err, "other owners may reuse the text")
}

func TestCreateTodo_CompletedTextCanBeReused(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	s := NewTodoService(db, &fakeRepoManager{s: newMemStore()})
	ctx := context.Background()

	first, err := s.CreateTodo(ctx, "u1", "buy milk")
	require.NoError(t, err)
	_, err = s.UpdateTodoByID(ctx, first.ID, "u1", models.TodoPatch{IsCompleted: ptr(true)})
	require.NoError(t, err)

	_, err = s.CreateTodo(ctx, "u1", "buy milk")
	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTodo_LostRaceMapsToValidation(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	store := newMemStore()
	s := NewTodoService(db, &racyRepoManager{fakeRepoManager{s: store}})

	_, err := s.CreateTodo(context.Background(), "u1", "buy milk")
	assert.True(t, errors.Is(err, common.ErrorValidation))
	assert.Equal(t, "Todo item already exists", err.Error())
}

func TestCreateTodo_StoreError(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	store := newMemStore()
	store.todosErr = errBoom{}
	s := NewTodoService(db, &fakeRepoManager{s: store})

	_, err := s.CreateTodo(context.Background(), "u1", "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorValidation))
}

func TestGetTodoByIDAndUser_ForeignLooksMissing(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s := NewTodoService(db, &fakeRepoManager{s: newMemStore()})
	ctx := context.Background()

	todo, err := s.CreateTodo(ctx, "u1", "secret")
	require.NoError(t, err)

	got, err := s.GetTodoByIDAndUser(ctx, todo.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Todo)

	_, errForeign := s.GetTodoByIDAndUser(ctx, todo.ID, "u2")
	_, errMissing := s.GetTodoByIDAndUser(ctx, "nope", "u2")
	require.True(t, errors.Is(errForeign, common.ErrorNotFound))
	assert.Equal(t, errMissing.Error(), errForeign.Error())
	assert.Equal(t, "Todo not found", errForeign.Error())
}

func TestUpdateTodoByID(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMockDB(t)
	s := NewTodoService(db, &fakeRepoManager{s: newMemStore()})
	ctx := context.Background()

	a, err := s.CreateTodo(ctx, "u1", "a")
	require.NoError(t, err)
	_, err = s.CreateTodo(ctx, "u1", "b")
	require.NoError(t, err)

	// rename keeping own text is not a duplicate
	mock.ExpectBegin()
	mock.ExpectCommit()
	got, err := s.UpdateTodoByID(ctx, a.ID, "u1", models.TodoPatch{Todo: ptr("a")})
	require.NoError(t, err)
	assert.Equal(t, "a", got.Todo)

	// rename onto another open todo
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = s.UpdateTodoByID(ctx, a.ID, "u1", models.TodoPatch{Todo: ptr("b")})
	assert.True(t, errors.Is(err, common.ErrorValidation))

	// foreign owner
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = s.UpdateTodoByID(ctx, a.ID, "u2", models.TodoPatch{IsCompleted: ptr(true)})
	assert.True(t, errors.Is(err, common.ErrorNotFound))
	assert.Equal(t, "Todo not found", err.Error())

	// both fields
	mock.ExpectBegin()
	mock.ExpectCommit()
	got, err = s.UpdateTodoByID(ctx, a.ID, "u1", models.TodoPatch{Todo: ptr("c"), IsCompleted: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "c", got.Todo)
	assert.True(t, got.IsCompleted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTodoByID(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s := NewTodoService(db, &fakeRepoManager{s: newMemStore()})
	ctx := context.Background()

	todo, err := s.CreateTodo(ctx, "u1", "x")
	require.NoError(t, err)

	err = s.DeleteTodoByID(ctx, todo.ID, "u2")
	assert.True(t, errors.Is(err, common.ErrorNotFound))

	require.NoError(t, s.DeleteTodoByID(ctx, todo.ID, "u1"))

	err = s.DeleteTodoByID(ctx, todo.ID, "u1")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestQueryTodos(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s := NewTodoService(db, &fakeRepoManager{s: newMemStore()})
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		_, err := s.CreateTodo(ctx, "u1", text)
		require.NoError(t, err)
	}
	_, err := s.CreateTodo(ctx, "u2", "d")
	require.NoError(t, err)

	page, err := s.QueryTodos(ctx, models.TodoFilter{}, pagination.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalResults)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 1, page.Page)

	page, err = s.QueryTodos(ctx, models.TodoFilter{UserID: ptr("u2")}, pagination.Options{})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "d", page.Results[0].Todo)

	_, err = s.QueryTodos(ctx, models.TodoFilter{}, pagination.Options{SortBy: "bogus:asc"})
	assert.True(t, errors.Is(err, common.ErrorValidation))
}

// racyRepoManager simulates a concurrent insert landing between the
// duplicate check and the insert.
type racyRepoManager struct{ fakeRepoManager }

func (m *racyRepoManager) Todos(dbx.DBTX) todos.Repository {
	return &racyTodos{fakeTodos{m.s}}
}

type racyTodos struct{ fakeTodos }

func (r *racyTodos) ExistsOpen(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (r *racyTodos) Create(context.Context, *models.Todo) (*models.Todo, error) {
	return nil, common.ErrorAlreadyExists
}
