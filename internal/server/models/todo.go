package models

import "time"

type Todo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user"`
	Todo        string    `json:"todo"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// TodoFilter holds exact-match filters for listing todos. Nil fields are ignored.
type TodoFilter struct {
	Todo        *string
	IsCompleted *bool
	UserID      *string
}

// TodoPatch is a partial update; nil fields are left unchanged.
type TodoPatch struct {
	Todo        *string
	IsCompleted *bool
}
