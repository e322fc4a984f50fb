// Package app wires the service's dependency graph by hand, shared by the
// server and lambda entrypoints.
package app

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"curius-feed/internal/cache"
	"curius-feed/internal/config"
	"curius-feed/internal/curius"
	"curius-feed/internal/feed"
	"curius-feed/internal/follow"
	httpiface "curius-feed/internal/interfaces/http"
	"curius-feed/internal/interfaces/http/handlers"
	"curius-feed/internal/transport"
)

// App holds the assembled service.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Store  cache.Store
	Router *chi.Mux
}

// New loads configuration and builds the dependency graph bottom-up:
// store, gateway, transport, client, resolver, aggregator, router.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gateway := cache.NewGateway(store, logger,
		cache.WithChunkSize(cfg.Cache.ChunkSize),
		cache.WithMetrics(cache.NewMetrics(registry)))

	httpClient := transport.NewHTTPClient(cfg.Upstream, logger)
	client := curius.NewClient(httpClient, cfg.Upstream.BaseURL, gateway, cfg.Cache.TTL(), logger)
	resolver := follow.NewResolver(client, gateway, cfg.Cache.TTL(), logger)
	aggregator := feed.NewAggregator(client, gateway, logger)

	h := handlers.New(client, resolver, aggregator, cfg.Feed, logger)
	router := httpiface.NewRouter(h, store, registry, logger)

	return &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Router: router,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("closing cache store", zap.Error(err))
	}
	a.Logger.Sync()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
