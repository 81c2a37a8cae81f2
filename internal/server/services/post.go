package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/pagination"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/repomanager"
)

const msgPostNotFound = "Post not found"

// PostService manages posts and their comments. Any authenticated user may
// read posts; only the author may change or delete one.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager) *PostService {
	return &PostService{db: db, repomanager: m}
}

func (s *PostService) CreatePost(ctx context.Context, userID, text string) (*models.Post, error) {
	p, err := s.repomanager.Posts(s.db).Create(ctx, &models.Post{UserID: userID, Post: text})
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	return p, nil
}

func (s *PostService) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	p, err := s.repomanager.Posts(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, mapPostError(err)
	}
	return p, nil
}

// QueryPosts lists posts with their authors and comments populated.
func (s *PostService) QueryPosts(ctx context.Context, filter models.PostFilter, opts pagination.Options) (*models.Page[*models.PostView], error) {
	page, err := s.repomanager.Posts(s.db).Query(ctx, filter, opts)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	postIDs := make([]string, 0, len(page.Results))
	userIDs := make([]string, 0, len(page.Results))
	seen := make(map[string]struct{}, len(page.Results))
	for _, p := range page.Results {
		postIDs = append(postIDs, p.ID)
		if _, ok := seen[p.UserID]; !ok {
			seen[p.UserID] = struct{}{}
			userIDs = append(userIDs, p.UserID)
		}
	}

	authors, err := s.repomanager.Users(s.db).GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading authors: %w", err)
	}
	byID := make(map[string]*models.User, len(authors))
	for _, u := range authors {
		byID[u.ID] = u
	}

	comments, err := s.GetCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	byPost := make(map[string][]*models.Comment, len(postIDs))
	for _, c := range comments {
		byPost[c.PostID] = append(byPost[c.PostID], c)
	}

	views := make([]*models.PostView, 0, len(page.Results))
	for _, p := range page.Results {
		cs := byPost[p.ID]
		if cs == nil {
			cs = []*models.Comment{}
		}
		views = append(views, &models.PostView{
			ID:       p.ID,
			User:     byID[p.UserID],
			Post:     p.Post,
			Comments: cs,
		})
	}

	return &models.Page[*models.PostView]{
		Results:      views,
		Page:         page.Page,
		Limit:        page.Limit,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}, nil
}

// UpdatePostByID changes the text of a post owned by userID. Foreign posts
// are reported as missing.
func (s *PostService) UpdatePostByID(ctx context.Context, id, userID, text string) (*models.Post, error) {
	p, err := s.repomanager.Posts(s.db).UpdateText(ctx, id, userID, text)
	if err != nil {
		return nil, mapPostError(err)
	}
	return p, nil
}

// DeletePostByID removes an owned post; its comments go with it.
func (s *PostService) DeletePostByID(ctx context.Context, id, userID string) error {
	if err := s.repomanager.Posts(s.db).DeleteByIDAndUser(ctx, id, userID); err != nil {
		return mapPostError(err)
	}
	return nil
}

// CreateComment adds a comment to an existing post.
func (s *PostService) CreateComment(ctx context.Context, userID, postID, text string) (*models.Comment, error) {
	c, err := s.repomanager.Comments(s.db).Create(ctx, &models.Comment{UserID: userID, PostID: postID, Comment: text})
	if err != nil {
		return nil, mapPostError(err)
	}
	return c, nil
}

func (s *PostService) GetCommentsByPostIDs(ctx context.Context, postIDs []string) ([]*models.Comment, error) {
	cs, err := s.repomanager.Comments(s.db).GetByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading comments: %w", err)
	}
	return cs, nil
}

func mapPostError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NewError(common.ErrorNotFound, msgPostNotFound)
	}
	return fmt.Errorf("error accessing post: %w", err)
}
