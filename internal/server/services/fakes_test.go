package services

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/config"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/comments"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/posts"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/todos"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 24 * time.Hour,
	}
}

// memStore is an in-memory stand-in for the database shared by the fake
// repositories. Conditional updates happen under the mutex, so the fakes
// keep the single-winner guarantee of the SQL statements.
type memStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*models.User
	tokens   map[string]*models.Token
	todos    map[string]*models.Todo
	posts    map[string]*models.Post
	comments []*models.Comment

	usersErr    error
	tokensErr   error
	todosErr    error
	postsErr    error
	commentsErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]*models.User{},
		tokens: map[string]*models.Token{},
		todos:  map[string]*models.Todo{},
		posts:  map[string]*models.Post{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return prefix + strconv.Itoa(s.seq)
}

func (s *memStore) addUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.nextID("u")
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	s.users[u.ID] = &u
	cp := u
	return &cp
}

func (s *memStore) tokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository            { return &fakeUsers{m.s} }
func (m *fakeRepoManager) Tokens(dbx.DBTX) tokens.Repository          { return &fakeTokens{m.s} }
func (m *fakeRepoManager) Todos(dbx.DBTX) todos.Repository            { return &fakeTodos{m.s} }
func (m *fakeRepoManager) Posts(dbx.DBTX) posts.Repository            { return &fakePosts{m.s} }
func (m *fakeRepoManager) Comments(dbx.DBTX) comments.Repository      { return &fakeComments{m.s} }

// --- users ---

type fakeUsers struct{ s *memStore }

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	for _, existing := range f.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = f.s.nextID("u")
	cp := *u
	f.s.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	for _, u := range f.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	out := []*models.User{}
	for _, id := range ids {
		if u, ok := f.s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- tokens ---

type fakeTokens struct{ s *memStore }

func (f *fakeTokens) Create(_ context.Context, t *models.Token) (*models.Token, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.tokensErr != nil {
		return nil, f.s.tokensErr
	}
	t.ID = f.s.nextID("t")
	t.CreatedAt = time.Now()
	cp := *t
	f.s.tokens[t.ID] = &cp
	return t, nil
}

func (f *fakeTokens) FindActive(_ context.Context, hash string, typ models.TokenType, userID string) (*models.Token, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.tokensErr != nil {
		return nil, f.s.tokensErr
	}
	for _, t := range f.s.tokens {
		if t.TokenHash == hash && t.Type == typ && t.UserID == userID && !t.Blacklisted {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTokens) Blacklist(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.tokensErr != nil {
		return f.s.tokensErr
	}
	t, ok := f.s.tokens[id]
	if !ok || t.Blacklisted {
		return common.ErrorNotFound
	}
	t.Blacklisted = true
	return nil
}

func (f *fakeTokens) BlacklistByHash(_ context.Context, hash string, typ models.TokenType) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.tokensErr != nil {
		return f.s.tokensErr
	}
	for _, t := range f.s.tokens {
		if t.TokenHash == hash && t.Type == typ && !t.Blacklisted {
			t.Blacklisted = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeTokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for id, t := range f.s.tokens {
		if t.ExpiresAt.Before(before) {
			delete(f.s.tokens, id)
			n++
		}
	}
	return n, nil
}

// --- todos ---

type fakeTodos struct{ s *memStore }

func (f *fakeTodos) openDuplicate(userID, text, excludeID string) bool {
	for _, t := range f.s.todos {
		if t.UserID == userID && t.Todo == text && !t.IsCompleted && t.ID != excludeID {
			return true
		}
	}
	return false
}

func (f *fakeTodos) Create(_ context.Context, t *models.Todo) (*models.Todo, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.todosErr != nil {
		return nil, f.s.todosErr
	}
	if f.openDuplicate(t.UserID, t.Todo, "") {
		return nil, common.ErrorAlreadyExists
	}
	t.ID = f.s.nextID("todo")
	cp := *t
	f.s.todos[t.ID] = &cp
	return t, nil
}

func (f *fakeTodos) ExistsOpen(_ context.Context, userID, text, excludeID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.todosErr != nil {
		return false, f.s.todosErr
	}
	return f.openDuplicate(userID, text, excludeID), nil
}

func (f *fakeTodos) GetByIDAndUser(_ context.Context, id, userID string) (*models.Todo, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.todosErr != nil {
		return nil, f.s.todosErr
	}
	t, ok := f.s.todos[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTodos) Update(_ context.Context, t *models.Todo) (*models.Todo, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.todos[t.ID]
	if !ok || cur.UserID != t.UserID {
		return nil, common.ErrorNotFound
	}
	if !t.IsCompleted && f.openDuplicate(t.UserID, t.Todo, t.ID) {
		return nil, common.ErrorAlreadyExists
	}
	cp := *t
	f.s.todos[t.ID] = &cp
	return t, nil
}

func (f *fakeTodos) DeleteByIDAndUser(_ context.Context, id, userID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.todos[id]
	if !ok || t.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.s.todos, id)
	return nil
}

func (f *fakeTodos) Query(_ context.Context, filter models.TodoFilter, opts pagination.Options) (*models.Page[*models.Todo], error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.todosErr != nil {
		return nil, f.s.todosErr
	}
	if _, err := pagination.OrderBy(opts.SortBy, map[string]string{"todo": "todo"}); err != nil {
		return nil, err
	}
	opts = opts.Normalize()
	var out []*models.Todo
	for _, t := range f.s.todos {
		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}
		if filter.Todo != nil && t.Todo != *filter.Todo {
			continue
		}
		if filter.IsCompleted != nil && t.IsCompleted != *filter.IsCompleted {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return pagination.NewPage(out, len(out), opts), nil
}

// --- posts & comments ---

type fakePosts struct{ s *memStore }

func (f *fakePosts) commentIDs(postID string) []string {
	ids := []string{}
	for _, c := range f.s.comments {
		if c.PostID == postID {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (f *fakePosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.postsErr != nil {
		return nil, f.s.postsErr
	}
	p.ID = f.s.nextID("p")
	p.CommentIDs = []string{}
	cp := *p
	f.s.posts[p.ID] = &cp
	return p, nil
}

func (f *fakePosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.postsErr != nil {
		return nil, f.s.postsErr
	}
	p, ok := f.s.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	cp.CommentIDs = f.commentIDs(id)
	return &cp, nil
}

func (f *fakePosts) UpdateText(_ context.Context, id, userID, text string) (*models.Post, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.posts[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	p.Post = text
	cp := *p
	cp.CommentIDs = f.commentIDs(id)
	return &cp, nil
}

func (f *fakePosts) DeleteByIDAndUser(_ context.Context, id, userID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.posts[id]
	if !ok || p.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.s.posts, id)
	kept := f.s.comments[:0]
	for _, c := range f.s.comments {
		if c.PostID != id {
			kept = append(kept, c)
		}
	}
	f.s.comments = kept
	return nil
}

func (f *fakePosts) Query(_ context.Context, filter models.PostFilter, opts pagination.Options) (*models.Page[*models.Post], error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.postsErr != nil {
		return nil, f.s.postsErr
	}
	opts = opts.Normalize()
	var out []*models.Post
	for _, p := range f.s.posts {
		if filter.Post != nil && p.Post != *filter.Post {
			continue
		}
		cp := *p
		cp.CommentIDs = f.commentIDs(p.ID)
		out = append(out, &cp)
	}
	return pagination.NewPage(out, len(out), opts), nil
}

type fakeComments struct{ s *memStore }

func (f *fakeComments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.commentsErr != nil {
		return nil, f.s.commentsErr
	}
	if _, ok := f.s.posts[c.PostID]; !ok {
		return nil, common.ErrorNotFound
	}
	c.ID = f.s.nextID("c")
	cp := *c
	f.s.comments = append(f.s.comments, &cp)
	return c, nil
}

func (f *fakeComments) GetByPostIDs(_ context.Context, postIDs []string) ([]*models.Comment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.commentsErr != nil {
		return nil, f.s.commentsErr
	}
	want := map[string]bool{}
	for _, id := range postIDs {
		want[id] = true
	}
	out := []*models.Comment{}
	for _, c := range f.s.comments {
		if want[c.PostID] {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}
