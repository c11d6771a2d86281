// Package server initializes and runs the one-time secret application: it
// wires the storage backend, the secret service and the HTTP transport,
// handles graceful shutdown, and runs the expired-record reaper.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/onetimesecret/internal/logging"
	"github.com/dmitrijs2005/onetimesecret/internal/server/config"
	"github.com/dmitrijs2005/onetimesecret/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/onetimesecret/internal/server/rest"
	"github.com/dmitrijs2005/onetimesecret/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager repomanager.RepositoryManager
	secrets *services.SecretService
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	manager, err := repomanager.New(context.Background(), cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	secrets := services.NewSecretService(manager.Secrets(), cfg, logger)

	return &App{config: cfg, logger: logger, manager: manager, secrets: secrets}, nil
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

func (app *App) startRESTServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := rest.NewServer(app.config.EndpointAddr, app.secrets, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runReaper periodically reclaims expired records. The store filters expired
// rows at read time, so the sweep only frees storage.
func (app *App) runReaper(ctx context.Context) {

	if app.config.ReaperInterval <= 0 {
		return
	}

	logger := app.logger.With("module", "reaper")

	ticker := time.NewTicker(app.config.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.manager.Secrets().DeleteExpired(ctx, time.Now())
			if err != nil {
				logger.Error(ctx, "expired-record sweep failed", "error", err.Error())
				continue
			}
			if n > 0 {
				logger.Info(ctx, "reaped expired secrets", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.DatabaseDSN)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startRESTServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runReaper(ctx)
	}()

	wg.Wait()

	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "error closing storage", "error", err.Error())
	}
}
