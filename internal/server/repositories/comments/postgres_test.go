package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+comments\s*\(user_id,\s*post_id,\s*comment\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)`).
		WithArgs("u1", "p1", "nice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("c1", now, now))

	got, err := repo.Create(context.Background(), &models.Comment{UserID: "u1", PostID: "p1", Comment: "nice"})
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
}

func TestCreate_MissingPost(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+comments`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "comments_post_id_fkey"})

	_, err := repo.Create(context.Background(), &models.Comment{UserID: "u1", PostID: "gone", Comment: "x"})
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestGetByPostIDs(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(`(?s)FROM\s+comments\s+WHERE\s+post_id\s+IN\s+\(\$1,\s*\$2\)\s+ORDER\s+BY\s+created_at,\s*id`).
		WithArgs("p1", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "post_id", "comment", "created_at", "updated_at"}).
			AddRow("c1", "u1", "p1", "a", now, now).
			AddRow("c2", "u2", "p2", "b", now, now))

	got, err := repo.GetByPostIDs(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[1].PostID)
}

func TestGetByPostIDs_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	got, err := repo.GetByPostIDs(context.Background(), []string{})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
