package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/server/auth"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const userKey ctxKey = "user"

func withUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// currentUser returns the user stored by the authorize middleware.
func currentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// authorize resolves the bearer token to a user and checks rights before
// calling next with the user in the request context.
func (s *Server) authorize(rights ...auth.Right) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := s.access.Authenticate(r.Context(), r.Header.Get(common.AuthorizationHeaderName))
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			if err := s.access.Authorize(user, rights...); err != nil {
				s.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// instrument writes the access log line and request metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.observe(r.Method, route, status, elapsed)
		}
		s.logger.Info(r.Context(), "http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// recoverer turns a handler panic into a 500 envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				s.writeError(w, r, fmt.Errorf("panic: %v", p))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
