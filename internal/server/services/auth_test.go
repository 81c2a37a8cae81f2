package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/server/auth"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newAuthService(t *testing.T, db *sql.DB) (*AuthService, *TokenService, *memStore) {
	t.Helper()
	store := newMemStore()
	rm := &fakeRepoManager{s: store}
	tokens := NewTokenService(db, rm, testConfig())
	return NewAuthService(db, rm, tokens), tokens, store
}

func addUserWithPassword(t *testing.T, store *memStore, email, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return store.addUser(models.User{Name: "A", Email: email, Password: hash})
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s, _, store := newAuthService(t, db)
	u := addUserWithPassword(t, store, "a@x.com", "Passw0rd")

	got, err := s.LoginUserWithEmailAndPassword(context.Background(), " A@X.com ", "Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestLogin_WrongPasswordAndUnknownEmailFailIdentically(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s, _, store := newAuthService(t, db)
	addUserWithPassword(t, store, "a@x.com", "Passw0rd")

	_, errWrong := s.LoginUserWithEmailAndPassword(context.Background(), "a@x.com", "nope1234")
	_, errUnknown := s.LoginUserWithEmailAndPassword(context.Background(), "ghost@x.com", "Passw0rd")

	require.True(t, errors.Is(errWrong, common.ErrInvalidCredentials))
	require.True(t, errors.Is(errUnknown, common.ErrInvalidCredentials))
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
	assert.Equal(t, "Incorrect email or password", errWrong.Error())
}

func TestLogin_StoreError(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s, _, store := newAuthService(t, db)
	store.usersErr = errBoom{}

	_, err := s.LoginUserWithEmailAndPassword(context.Background(), "a@x.com", "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrInvalidCredentials))
}

func TestLogout(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s, tokens, store := newAuthService(t, db)
	u := store.addUser(models.User{Email: "a@x.com"})

	pair, err := tokens.GenerateAuthTokens(context.Background(), u)
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background(), pair.Refresh.Token))

	err = s.Logout(context.Background(), pair.Refresh.Token)
	assert.True(t, errors.Is(err, common.ErrorNotFound), "second logout: %v", err)

	err = s.Logout(context.Background(), "never-issued")
	assert.True(t, errors.Is(err, common.ErrorNotFound))

	_, err = s.RefreshAuth(context.Background(), pair.Refresh.Token)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized), "logged-out token must not rotate")
}

func TestLogout_StoreError(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s, _, store := newAuthService(t, db)
	store.tokensErr = errBoom{}

	err := s.Logout(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorNotFound))
}

func TestRefreshAuth_RotatesOnce(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	s, tokens, store := newAuthService(t, db)
	u := store.addUser(models.User{Email: "a@x.com"})
	pair, err := tokens.GenerateAuthTokens(context.Background(), u)
	require.NoError(t, err)

	next, err := s.RefreshAuth(context.Background(), pair.Refresh.Token)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh.Token, next.Refresh.Token)
	assert.Equal(t, 2, store.tokenCount())

	_, err = tokens.VerifyToken(context.Background(), next.Refresh.Token, models.TokenTypeRefresh)
	require.NoError(t, err, "the new refresh token is usable")

	_, err = s.RefreshAuth(context.Background(), pair.Refresh.Token)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))
	assert.Equal(t, "Please authenticate", err.Error())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshAuth_AccessTokenRejected(t *testing.T) {
	t.Parallel()
	db, _ := newSQLMockDB(t)
	s, tokens, store := newAuthService(t, db)
	u := store.addUser(models.User{Email: "a@x.com"})
	pair, err := tokens.GenerateAuthTokens(context.Background(), u)
	require.NoError(t, err)

	_, err = s.RefreshAuth(context.Background(), pair.Access.Token)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))
}

func TestRefreshAuth_UserGoneRollsBack(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	s, tokens, store := newAuthService(t, db)
	u := store.addUser(models.User{Email: "a@x.com"})
	pair, err := tokens.GenerateAuthTokens(context.Background(), u)
	require.NoError(t, err)
	delete(store.users, u.ID)

	_, err = s.RefreshAuth(context.Background(), pair.Refresh.Token)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshAuth_BeginError(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin().WillReturnError(errBoom{})

	s, tokens, store := newAuthService(t, db)
	u := store.addUser(models.User{Email: "a@x.com"})
	pair, err := tokens.GenerateAuthTokens(context.Background(), u)
	require.NoError(t, err)

	_, err = s.RefreshAuth(context.Background(), pair.Refresh.Token)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))
}

func TestRefreshAuth_ConcurrentCallersSingleWinner(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", "file:refresh_race?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, tokens, store := newAuthService(t, db)
	u := store.addUser(models.User{Email: "a@x.com"})
	pair, err := tokens.GenerateAuthTokens(context.Background(), u)
	require.NoError(t, err)

	const racers = 8
	var wins, losses atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RefreshAuth(context.Background(), pair.Refresh.Token)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, common.ErrorUnauthorized):
				losses.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, racers-1, losses.Load())
}
