// Package server wires configuration, storage, services and transports
// together and runs them until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/todoapi/internal/logging"
	"github.com/dmitrijs2005/todoapi/internal/server/config"
	"github.com/dmitrijs2005/todoapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todoapi/internal/server/rest"
	"github.com/dmitrijs2005/todoapi/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/todoapi/internal/server/grpc"
)

// tokenPurgeInterval is how often expired token records are deleted.
const tokenPurgeInterval = time.Hour

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	tokens *services.TokenService
	http   *rest.Server
	grpc   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.Env, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return newApp(c, logger, db, rm), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	tokens := services.NewTokenService(db, rm, c)
	authService := services.NewAuthService(db, rm, tokens)
	access := services.NewAccessControl(db, rm, tokens)

	httpServer := rest.NewServer(c, logger, db, rest.NewMetrics(db), rest.Services{
		Users:  services.NewUserService(db, rm),
		Auth:   authService,
		Tokens: tokens,
		Access: access,
		Todos:  services.NewTodoService(db, rm),
		Posts:  services.NewPostService(db, rm),
	})
	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, authService, tokens, access)

	return &App{config: c, logger: logger, db: db, tokens: tokens, http: httpServer, grpc: grpcServer}
}

// Run serves HTTP and gRPC and purges expired tokens until ctx is done or
// one of them fails.
func (app *App) Run(ctx context.Context) error {
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Env)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(ctx) })
	g.Go(func() error { return app.grpc.Run(ctx) })
	g.Go(func() error { return app.purgeTokens(ctx, tokenPurgeInterval) })

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) purgeTokens(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := app.tokens.PurgeExpired(ctx)
			if err != nil {
				app.logger.Warn(ctx, "token purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "purged expired tokens", "count", n)
			}
		}
	}
}
