package rest

import (
	"net/http"

	"github.com/dmitrijs2005/todoapi/internal/server/models"
)

type postRequest struct {
	Post string `json:"post" validate:"required"`
}

type commentRequest struct {
	PostID  string `json:"postId" validate:"required,uuid"`
	Comment string `json:"comment" validate:"required"`
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	post, err := s.posts.CreatePost(r.Context(), currentUser(r.Context()).ID, req.Post)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post, "New Post created successfully!")
}

func (s *Server) getPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := checkQuery(q, "post", "sortBy", "limit", "page"); err != nil {
		s.writeError(w, r, err)
		return
	}
	query := listOptions{SortBy: q.Get("sortBy"), Limit: q.Get("limit"), Page: q.Get("page")}
	if err := s.validate.Struct(query); err != nil {
		s.writeError(w, r, validationError(err))
		return
	}
	opts, err := query.options()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.posts.QueryPosts(r.Context(), models.PostFilter{Post: optional(q, "post")}, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page, "")
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := s.pathID(r, "postId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	post, err := s.posts.GetPostByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post, "")
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := s.pathID(r, "postId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req postRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	post, err := s.posts.UpdatePostByID(r.Context(), id, currentUser(r.Context()).ID, req.Post)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post, "Post updated successfully!")
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := s.pathID(r, "postId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.posts.DeletePostByID(r.Context(), id, currentUser(r.Context()).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil, "")
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.posts.CreateComment(r.Context(), currentUser(r.Context()).ID, req.PostID, req.Comment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c, "New comment added successfully!")
}
