// Package server wires configuration, storage and the HTTP surface into a
// runnable application with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophfiles/internal/cryptox"
	"github.com/dmitrijs2005/gophfiles/internal/logging"
	"github.com/dmitrijs2005/gophfiles/internal/server/config"
	"github.com/dmitrijs2005/gophfiles/internal/server/metrics"
	"github.com/dmitrijs2005/gophfiles/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophfiles/internal/server/rest"
	"github.com/dmitrijs2005/gophfiles/internal/server/services"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	server *rest.Server
}

// NewApp opens storage and builds the HTTP server. The caller must Run the
// app (which releases storage on exit) or Close it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := repomanager.New(ctx, c, logger.With("module", "storage"))
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	fs := services.NewFileService(repos, cryptox.NewPasswordHasher(c.BcryptCost), logger.With("module", "file_service"))
	srv := rest.NewServer(c, fs, repos.RequestLog(), metrics.New(), logger)

	return &App{config: c, logger: logger, repos: repos, server: srv}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// shuts the HTTP server down and closes storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(gctx)
	})

	err := g.Wait()
	if cerr := app.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) Close() error {
	return app.repos.Close()
}
