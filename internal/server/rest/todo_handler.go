package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todoapi/internal/server/models"
)

type createTodoRequest struct {
	Todo string `json:"todo" validate:"required"`
}

type updateTodoRequest struct {
	Todo        *string `json:"todo"`
	IsCompleted *bool   `json:"is_completed"`
}

type todoQuery struct {
	listOptions
	IsCompleted string `json:"is_completed" validate:"omitempty,boolean"`
	User        string `json:"user" validate:"omitempty,uuid"`
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	todo, err := s.todos.CreateTodo(r.Context(), currentUser(r.Context()).ID, req.Todo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, todo, "New Todo item created successfully!")
}

func (s *Server) getTodos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := checkQuery(q, "todo", "is_completed", "user", "sortBy", "limit", "page"); err != nil {
		s.writeError(w, r, err)
		return
	}

	query := todoQuery{
		listOptions: listOptions{SortBy: q.Get("sortBy"), Limit: q.Get("limit"), Page: q.Get("page")},
		IsCompleted: q.Get("is_completed"),
		User:        q.Get("user"),
	}
	if err := s.validate.Struct(query); err != nil {
		s.writeError(w, r, validationError(err))
		return
	}

	opts, err := query.options()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filter := models.TodoFilter{Todo: optional(q, "todo"), UserID: optional(q, "user")}
	if query.IsCompleted != "" {
		done, _ := strconv.ParseBool(query.IsCompleted)
		filter.IsCompleted = &done
	}

	page, err := s.todos.QueryTodos(r.Context(), filter, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page, "")
}

func (s *Server) getTodo(w http.ResponseWriter, r *http.Request) {
	id, err := s.pathID(r, "todoId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	todo, err := s.todos.GetTodoByIDAndUser(r.Context(), id, currentUser(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo, "")
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := s.pathID(r, "todoId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateTodoRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Todo == nil && req.IsCompleted == nil {
		s.writeError(w, r, invalid(`"value" must have at least 1 key`))
		return
	}
	if req.Todo != nil && *req.Todo == "" {
		s.writeError(w, r, invalid(`"todo" is not allowed to be empty`))
		return
	}

	todo, err := s.todos.UpdateTodoByID(r.Context(), id, currentUser(r.Context()).ID,
		models.TodoPatch{Todo: req.Todo, IsCompleted: req.IsCompleted})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo, "Todo item updated successfully!")
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := s.pathID(r, "todoId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.todos.DeleteTodoByID(r.Context(), id, currentUser(r.Context()).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil, "")
}
