package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finwell/internal/platform/config"
	"finwell/internal/platform/httpserver"
	"finwell/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadEnvFile(os.Getenv("FINWELL_ENV_FILE")); err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(1)
	}
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// run builds the application and blocks until ctx is cancelled or a
// background component fails.
func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	srv := httpserver.New(cfg.Addr, app.router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.bus.Run(gctx) })
	g.Go(func() error { return app.oracle.Run(gctx) })
	g.Go(func() error { return app.sweeper.Run(gctx) })
	if app.badger != nil {
		g.Go(func() error { return runBadgerGC(gctx, app, log) })
	}
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runBadgerGC(ctx context.Context, app *application, log *slog.Logger) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := app.badger.RunGC(); err != nil {
				log.WarnContext(ctx, "badger value log gc failed", "error", err)
			}
		}
	}
}
