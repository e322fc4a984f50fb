// Package http wires the chi router for both the server and lambda
// entrypoints.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"curius-feed/internal/cache"
	"curius-feed/internal/interfaces/http/handlers"
	"curius-feed/internal/interfaces/http/middleware"
	"curius-feed/pkg/api"
)

// NewRouter assembles the full HTTP surface. It returns the concrete mux
// because the lambda adapter needs it.
func NewRouter(h *handlers.Handler, store cache.Store, registry *prometheus.Registry, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/follow-list", h.FollowList)
	r.Get("/feed", h.Feed)
	r.Get("/all-users", h.AllUsers)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			api.Error(w, http.StatusServiceUnavailable, "cache store unreachable")
			return
		}
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
