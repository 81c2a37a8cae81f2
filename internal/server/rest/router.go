package rest

import (
	"net/http"

	"github.com/dmitrijs2005/todoapi/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler builds the router. API routes are served both under /v1 and at
// the root.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.notFound)

	r.Get("/healthz", s.healthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", s.routes)
	s.routes(r)

	return r
}

func (s *Server) routes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Post("/refresh-tokens", s.refreshTokens)
	})

	r.Route("/todos", func(r chi.Router) {
		r.With(s.authorize(auth.RightManageTodos)).Post("/", s.createTodo)
		r.With(s.authorize(auth.RightGetTodos)).Get("/", s.getTodos)
		r.With(s.authorize(auth.RightGetTodos)).Get("/{todoId}", s.getTodo)
		r.With(s.authorize(auth.RightManageTodos)).Patch("/{todoId}", s.updateTodo)
		r.With(s.authorize(auth.RightManageTodos)).Delete("/{todoId}", s.deleteTodo)
	})

	r.Route("/posts", func(r chi.Router) {
		r.With(s.authorize(auth.RightManagePosts)).Post("/", s.createPost)
		r.With(s.authorize(auth.RightGetPosts)).Get("/", s.getPosts)
		r.With(s.authorize(auth.RightManageComments)).Post("/comment", s.createComment)
		r.With(s.authorize(auth.RightGetPosts)).Get("/{postId}", s.getPost)
		r.With(s.authorize(auth.RightManagePosts)).Patch("/{postId}", s.updatePost)
		r.With(s.authorize(auth.RightManagePosts)).Delete("/{postId}", s.deletePost)
	})
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, nil, http.StatusText(http.StatusServiceUnavailable))
			return
		}
	}
	writeJSON(w, http.StatusOK, nil, "OK")
}
