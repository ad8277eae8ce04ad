// Package server wires storage, the trust services and both transports into
// one application and runs it until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/farmkeeper/internal/logging"
	"github.com/dmitrijs2005/farmkeeper/internal/server/access"
	"github.com/dmitrijs2005/farmkeeper/internal/server/auth"
	"github.com/dmitrijs2005/farmkeeper/internal/server/config"
	"github.com/dmitrijs2005/farmkeeper/internal/server/encryption"
	"github.com/dmitrijs2005/farmkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/farmkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/farmkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/farmkeeper/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	encryption *encryption.Service
	tokens     *auth.TokenService
	router     http.Handler
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

// NewApp connects to the database, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	app, err := newApp(c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if c.DevMode && c.SecretKey == config.DefaultSecretKey {
		logger.Warn(context.Background(), "running with the built-in development secret; tokens and encrypted fields are not protected")
	}

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), rm.Users(db), logger)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	hasher := auth.NewPasswordHasher(c.Argon2Params())
	us, err := services.NewUserService(db, rm, hasher, tokens, logger)
	if err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}

	ac := access.NewService(rm.Memberships(db), logger)
	fs := services.NewFarmService(db, rm, ac, logger)

	m := metrics.New()
	handler := httpapi.NewHandler(us, fs, ac, m, logger)
	router := httpapi.NewRouter(handler, tokens)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		encryption: encryption.NewService([]byte(c.SecretKey)),
		tokens:     tokens,
		router:     router,
		httpServer: httpapi.NewServer(c.EndpointAddrHTTP, router, logger, c.ShutdownTimeout),
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, tokens, m),
	}, nil
}

// Encryption is the field encryption service for components storing
// sensitive farm data.
func (app *App) Encryption() *encryption.Service {
	return app.encryption
}

// GRPC exposes the gRPC server so domain services can Register before Run.
func (app *App) GRPC() *gs.GRPCServer {
	return app.grpcServer
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or either server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "http", app.httpServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "grpc", app.grpcServer.Run)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
