package repomanager

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/dbx"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/comments"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/posts"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/todos"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/users"
	"github.com/google/uuid"
)

// InMemoryRepositoryManager keeps all data in process memory. The DBTX
// handles passed to it are ignored, so transactions do not roll back its
// state. Listing accepts the same sortBy fields as PostgreSQL but always
// returns rows in creation order.
type InMemoryRepositoryManager struct {
	mu       sync.Mutex
	users    map[string]*models.User
	tokens   map[string]*models.Token
	todos    map[string]*models.Todo
	posts    map[string]*models.Post
	comments []*models.Comment
	now      func() time.Time
	last     time.Time
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:  map[string]*models.User{},
		tokens: map[string]*models.Token{},
		todos:  map[string]*models.Todo{},
		posts:  map[string]*models.Post{},
		now:    time.Now,
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository       { return memUsers{m} }
func (m *InMemoryRepositoryManager) Tokens(dbx.DBTX) tokens.Repository     { return memTokens{m} }
func (m *InMemoryRepositoryManager) Todos(dbx.DBTX) todos.Repository       { return memTodos{m} }
func (m *InMemoryRepositoryManager) Posts(dbx.DBTX) posts.Repository       { return memPosts{m} }
func (m *InMemoryRepositoryManager) Comments(dbx.DBTX) comments.Repository { return memComments{m} }

// stamp returns a strictly increasing timestamp so creation order is total.
// Callers hold mu.
func (m *InMemoryRepositoryManager) stamp() time.Time {
	t := m.now()
	if !t.After(m.last) {
		t = m.last.Add(time.Nanosecond)
	}
	m.last = t
	return t
}

var (
	todoSortFields = map[string]string{
		"id": "", "todo": "", "is_completed": "", "user": "",
		"createdAt": "", "created_at": "", "updatedAt": "", "updated_at": "",
	}
	postSortFields = map[string]string{
		"id": "", "post": "", "user": "",
		"createdAt": "", "created_at": "", "updatedAt": "", "updated_at": "",
	}
)

func window[T any](rows []T, opts pagination.Options) *models.Page[T] {
	total := len(rows)
	start := min(opts.Offset(), total)
	end := min(start+opts.Limit, total)
	return pagination.NewPage(rows[start:end], total, opts)
}

type memUsers struct{ m *InMemoryRepositoryManager }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = r.m.stamp()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.m.users[u.ID] = &cp
	return u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memTokens struct{ m *InMemoryRepositoryManager }

func (r memTokens) Create(_ context.Context, t *models.Token) (*models.Token, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = r.m.stamp()
	cp := *t
	r.m.tokens[t.ID] = &cp
	return t, nil
}

func (r memTokens) FindActive(_ context.Context, hash string, typ models.TokenType, userID string) (*models.Token, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.tokens {
		if t.TokenHash == hash && t.Type == typ && t.UserID == userID && !t.Blacklisted {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memTokens) Blacklist(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tokens[id]
	if !ok || t.Blacklisted {
		return common.ErrorNotFound
	}
	t.Blacklisted = true
	return nil
}

func (r memTokens) BlacklistByHash(_ context.Context, hash string, typ models.TokenType) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.tokens {
		if t.TokenHash == hash && t.Type == typ && !t.Blacklisted {
			t.Blacklisted = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r memTokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, t := range r.m.tokens {
		if t.ExpiresAt.Before(before) {
			delete(r.m.tokens, id)
			n++
		}
	}
	return n, nil
}

type memTodos struct{ m *InMemoryRepositoryManager }

func (r memTodos) openDuplicate(userID, text, excludeID string) bool {
	for _, t := range r.m.todos {
		if t.UserID == userID && t.Todo == text && !t.IsCompleted && t.ID != excludeID {
			return true
		}
	}
	return false
}

func (r memTodos) Create(_ context.Context, t *models.Todo) (*models.Todo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if !t.IsCompleted && r.openDuplicate(t.UserID, t.Todo, "") {
		return nil, common.ErrorAlreadyExists
	}
	t.ID = uuid.NewString()
	t.CreatedAt = r.m.stamp()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	r.m.todos[t.ID] = &cp
	return t, nil
}

func (r memTodos) ExistsOpen(_ context.Context, userID, text, excludeID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.openDuplicate(userID, text, excludeID), nil
}

func (r memTodos) GetByIDAndUser(_ context.Context, id, userID string) (*models.Todo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.todos[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memTodos) Update(_ context.Context, t *models.Todo) (*models.Todo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.todos[t.ID]
	if !ok || cur.UserID != t.UserID {
		return nil, common.ErrorNotFound
	}
	if !t.IsCompleted && r.openDuplicate(t.UserID, t.Todo, t.ID) {
		return nil, common.ErrorAlreadyExists
	}
	cur.Todo = t.Todo
	cur.IsCompleted = t.IsCompleted
	cur.UpdatedAt = r.m.stamp()
	cp := *cur
	return &cp, nil
}

func (r memTodos) DeleteByIDAndUser(_ context.Context, id, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.todos[id]
	if !ok || t.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.m.todos, id)
	return nil
}

func (r memTodos) Query(_ context.Context, filter models.TodoFilter, opts pagination.Options) (*models.Page[*models.Todo], error) {
	if _, err := pagination.OrderBy(opts.SortBy, todoSortFields); err != nil {
		return nil, err
	}
	opts = opts.Normalize()

	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rows := []*models.Todo{}
	for _, t := range r.m.todos {
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
		rows = append(rows, &cp)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return window(rows, opts), nil
}

type memPosts struct{ m *InMemoryRepositoryManager }

func (r memPosts) commentIDs(postID string) []string {
	ids := []string{}
	for _, c := range r.m.comments {
		if c.PostID == postID {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (r memPosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = r.m.stamp()
	p.UpdatedAt = p.CreatedAt
	p.CommentIDs = []string{}
	cp := *p
	r.m.posts[p.ID] = &cp
	return p, nil
}

func (r memPosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	cp.CommentIDs = r.commentIDs(id)
	return &cp, nil
}

func (r memPosts) UpdateText(_ context.Context, id, userID, text string) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.posts[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	p.Post = text
	p.UpdatedAt = r.m.stamp()
	cp := *p
	cp.CommentIDs = r.commentIDs(id)
	return &cp, nil
}

func (r memPosts) DeleteByIDAndUser(_ context.Context, id, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.posts[id]
	if !ok || p.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.m.posts, id)
	kept := r.m.comments[:0]
	for _, c := range r.m.comments {
		if c.PostID != id {
			kept = append(kept, c)
		}
	}
	r.m.comments = kept
	return nil
}

func (r memPosts) Query(_ context.Context, filter models.PostFilter, opts pagination.Options) (*models.Page[*models.Post], error) {
	if _, err := pagination.OrderBy(opts.SortBy, postSortFields); err != nil {
		return nil, err
	}
	opts = opts.Normalize()

	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rows := []*models.Post{}
	for _, p := range r.m.posts {
		if filter.Post != nil && p.Post != *filter.Post {
			continue
		}
		cp := *p
		cp.CommentIDs = r.commentIDs(p.ID)
		rows = append(rows, &cp)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return window(rows, opts), nil
}

type memComments struct{ m *InMemoryRepositoryManager }

func (r memComments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.posts[c.PostID]; !ok {
		return nil, common.ErrorNotFound
	}
	c.ID = uuid.NewString()
	c.CreatedAt = r.m.stamp()
	cp := *c
	r.m.comments = append(r.m.comments, &cp)
	return c, nil
}

func (r memComments) GetByPostIDs(_ context.Context, postIDs []string) ([]*models.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	want := make(map[string]struct{}, len(postIDs))
	for _, id := range postIDs {
		want[id] = struct{}{}
	}
	out := []*models.Comment{}
	for _, c := range r.m.comments {
		if _, ok := want[c.PostID]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}
