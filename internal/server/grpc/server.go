// Package grpc exposes authentication over gRPC. Messages are protobuf
// well-known types, so the service is registered from a hand-written
// descriptor instead of generated code.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/todoapi/internal/logging"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"google.golang.org/grpc"
)

type authService interface {
	LoginUserWithEmailAndPassword(ctx context.Context, email, password string) (*models.User, error)
	RefreshAuth(ctx context.Context, refreshToken string) (*models.AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
}

type tokenIssuer interface {
	GenerateAuthTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error)
}

type authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.User, error)
}

type GRPCServer struct {
	address string
	auth    authService
	tokens  tokenIssuer
	access  authenticator
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, as authService, ts tokenIssuer, ac authenticator) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
		tokens:  ts,
		access:  ac,
	}
}

// NewServer returns a grpc.Server with the interceptors installed and the
// service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&serviceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
