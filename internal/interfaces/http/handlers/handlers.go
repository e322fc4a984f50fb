// Package handlers maps query parameters onto the core components and
// serializes their results.
package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"curius-feed/internal/config"
	"curius-feed/internal/curius"
	"curius-feed/internal/feed"
	"curius-feed/internal/follow"
	"curius-feed/pkg/api"
	apperrors "curius-feed/pkg/errors"
)

// Handler serves the public endpoints.
type Handler struct {
	client     *curius.Client
	resolver   *follow.Resolver
	aggregator *feed.Aggregator
	feedCfg    config.FeedConfig
	logger     *zap.Logger
}

// New builds the handler set.
func New(client *curius.Client, resolver *follow.Resolver, aggregator *feed.Aggregator, feedCfg config.FeedConfig, logger *zap.Logger) *Handler {
	return &Handler{
		client:     client,
		resolver:   resolver,
		aggregator: aggregator,
		feedCfg:    feedCfg,
		logger:     logger.Named("handlers"),
	}
}

// FollowList handles GET /follow-list?user_handle=&order=.
func (h *Handler) FollowList(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("user_handle")
	if handle == "" {
		api.Error(w, http.StatusBadRequest, "user_handle is required")
		return
	}
	order, err := h.parseOrder(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.client.GetUserProfile(r.Context(), handle)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	edges, err := h.resolver.Resolve(r.Context(), profile, order)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, edges)
}

// Feed handles GET /feed?user_handle=&order=&limit=&format=.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("user_handle")
	if handle == "" {
		api.Error(w, http.StatusBadRequest, "user_handle is required")
		return
	}
	order, err := h.parseOrder(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := h.parseLimit(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "rss" {
		api.Error(w, http.StatusBadRequest, "format must be json or rss")
		return
	}

	profile, err := h.client.GetUserProfile(r.Context(), handle)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	edges, err := h.resolver.Resolve(r.Context(), profile, order)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.aggregator.Build(r.Context(), edges, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if format == "rss" {
		rss, err := feed.RenderRSS(handle, order, items)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		w.Write([]byte(rss))
		return
	}
	api.Success(w, http.StatusOK, items)
}

// AllUsers handles GET /all-users.
func (h *Handler) AllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.client.GetAllUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, users)
}

// parseOrder reads the hop bound, defaulting to 1 and clamping to the
// configured cap; each extra hop multiplies upstream fan-out.
func (h *Handler) parseOrder(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("order")
	if raw == "" {
		return 1, nil
	}
	order, err := strconv.Atoi(raw)
	if err != nil || order < 0 {
		return 0, apperrors.Validation("order must be a non-negative integer")
	}
	if order > h.feedCfg.MaxOrder {
		order = h.feedCfg.MaxOrder
	}
	return order, nil
}

// parseLimit reads the item limit, defaulting and clamping server-side
// regardless of what the caller requested.
func (h *Handler) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.feedCfg.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, apperrors.Validation("limit must be a positive integer")
	}
	if limit > h.feedCfg.MaxLimit {
		limit = h.feedCfg.MaxLimit
	}
	return limit, nil
}

// writeError maps the tagged error taxonomy onto HTTP statuses. Callers see
// a single aggregate failure; there is no partial-failure reporting.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperrors.IsValidation(err):
		api.Error(w, http.StatusBadRequest, err.Error())
	case apperrors.IsNotFound(err):
		api.Error(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(apperrors.KindOf(err))),
			zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "something went wrong")
	}
}
