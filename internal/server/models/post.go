package models

import "time"

// Post is a text post. CommentIDs lists its comments in creation order.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user"`
	Post       string    `json:"post"`
	CommentIDs []string  `json:"comment"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	PostID    string    `json:"post"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// PostView is a post with its author and comments populated, as returned
// by post listings.
type PostView struct {
	ID       string     `json:"id"`
	User     *User      `json:"user"`
	Post     string     `json:"post"`
	Comments []*Comment `json:"comment"`
}

// PostFilter holds exact-match filters for listing posts.
type PostFilter struct {
	Post *string
}
