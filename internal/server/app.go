// Package server wires the postbox server: it opens the database, applies
// migrations, builds the services and runs the gRPC and metrics endpoints
// until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/server/auth"
	"github.com/dmitrijs2005/postbox/internal/server/config"
	"github.com/dmitrijs2005/postbox/internal/server/metrics"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/postbox/internal/server/services"
	"github.com/dmitrijs2005/postbox/internal/server/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/postbox/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	grpc    *gs.GRPCServer
	metrics *metrics.Server
}

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// ErrNoSecretKey is returned by NewApp when no token signing secret is
// configured.
var ErrNoSecretKey = errors.New("secret key is not configured (-s, secret_key or POSTBOX_SECRET_KEY)")

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if c.SecretKey == "" {
		return nil, ErrNoSecretKey
	}

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	hasher := auth.NewBcryptHasher(c.PasswordHashCost)
	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	assets := storage.NewS3Store(storage.Config{
		Region:       c.S3Region,
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
	})

	us := services.NewUserService(db, rm, hasher, tokens)
	ps := services.NewPostService(db, rm, assets, logger)

	m := metrics.New()

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		grpc:    gs.NewGRPCServer(c.EndpointAddrGRPC, logger, us, ps, tokens, m),
		metrics: metrics.NewServer(c.MetricsAddr, m, logger),
	}, nil
}

// Run blocks until SIGINT, SIGTERM or SIGQUIT arrives, or until one of the
// servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpc.Run(ctx) })
	g.Go(func() error { return app.metrics.Run(ctx) })

	if err := g.Wait(); err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
