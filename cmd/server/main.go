package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"curius-feed/internal/app"
	"curius-feed/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("failed to initialize service: %v", err)
	}
	defer a.Close()

	// Hot reload of the YAML overlay in development only; production
	// config is immutable.
	if a.Config.IsDevelopment() {
		if overlay := os.Getenv("CONFIG_FILE"); overlay != "" {
			watcher, err := config.NewWatcher(a.Config, overlay, a.Logger)
			if err != nil {
				a.Logger.Warn("config watcher unavailable", zap.Error(err))
			} else {
				watcher.OnReload(func(cfg *config.Config) {
					a.Logger.Info("configuration changed; restart to apply wiring changes")
				})
				defer watcher.Stop()
			}
		}
	}

	server := &http.Server{
		Addr:              a.Config.ListenAddr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.Logger.Info("server listening", zap.String("addr", a.Config.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	a.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
