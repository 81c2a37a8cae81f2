// Package rest exposes the services over HTTP with a chi router. Every
// response body is a JSON envelope {code, data, message}.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todoapi/internal/logging"
	"github.com/dmitrijs2005/todoapi/internal/server/config"
	"github.com/dmitrijs2005/todoapi/internal/server/services"
	"github.com/go-playground/validator/v10"
)

const (
	requestTimeout    = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Pinger reports database reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services groups the business services the handlers call.
type Services struct {
	Users  *services.UserService
	Auth   *services.AuthService
	Tokens *services.TokenService
	Access *services.AccessControl
	Todos  *services.TodoService
	Posts  *services.PostService
}

type Server struct {
	config   *config.Config
	logger   logging.Logger
	db       Pinger
	metrics  *Metrics
	validate *validator.Validate

	users  *services.UserService
	auth   *services.AuthService
	tokens *services.TokenService
	access *services.AccessControl
	todos  *services.TodoService
	posts  *services.PostService
}

func NewServer(c *config.Config, l logging.Logger, db Pinger, m *Metrics, svc Services) *Server {
	return &Server{
		config:   c,
		logger:   l.With("module", "http_server"),
		db:       db,
		metrics:  m,
		validate: newValidator(),
		users:    svc.Users,
		auth:     svc.Auth,
		tokens:   svc.Tokens,
		access:   svc.Access,
		todos:    svc.Todos,
		posts:    svc.Posts,
	}
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.config.EndpointAddrHTTP)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
