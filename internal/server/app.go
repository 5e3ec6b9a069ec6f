// Package server initializes and runs the DevHabit identity API: it opens
// the database, applies migrations, chooses the identity cache backend,
// wires services into the HTTP server and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/logging"
	"github.com/dmitrijs2005/devhabit/internal/server/auth"
	"github.com/dmitrijs2005/devhabit/internal/server/cache"
	"github.com/dmitrijs2005/devhabit/internal/server/config"
	"github.com/dmitrijs2005/devhabit/internal/server/identity"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/devhabit/internal/server/rest"
	"github.com/dmitrijs2005/devhabit/internal/server/services"
)

const cacheSweepInterval = time.Minute

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	server  *rest.Server
	memory  *cache.Memory
	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, closers: []func() error{db.Close}}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.RunMigrations {
		if err := rm.RunMigrations(ctx, db); err != nil {
			app.close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	userCache, err := app.newCache(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	issuer := auth.NewTokenIssuer(c)
	resolver := identity.NewResolver(userCache, rm.Users(db), logger)

	app.server = rest.NewServer(c.EndpointAddrHTTP, logger, rest.Deps{
		Auth:     services.NewAuthService(db, rm, issuer, c, logger),
		Users:    services.NewUserService(db, rm),
		Tokens:   issuer,
		Identity: resolver,
		DB:       db,
	})

	return app, nil
}

// newCache returns a Redis-backed cache when an address is configured and a
// process-local one otherwise.
func (app *App) newCache(ctx context.Context) (cache.Cache, error) {
	if app.config.RedisAddr == "" {
		app.memory = cache.NewMemory(app.config.UserCacheDuration)
		return app.memory, nil
	}

	client, err := cache.NewRedisClient(ctx, app.config.RedisAddr, app.config.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, client.Close)

	return cache.NewRedis(client, app.config.UserCacheDuration), nil
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

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error(context.Background(), "close error", "error", err)
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	if app.memory != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.memory.Run(ctx, cacheSweepInterval)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
}
