package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"curius-feed/internal/cache"
	"curius-feed/internal/config"
	"curius-feed/internal/curius"
	"curius-feed/internal/feed"
	"curius-feed/internal/follow"
	"curius-feed/internal/interfaces/http/handlers"
)

// fakeUpstream mimics the curius API: profiles by handle, first-page links
// by user id, and the all-users directory.
func fakeUpstream() http.Handler {
	profiles := map[string]string{
		"alice": `{"user": {"id": 1, "firstName": "Alice", "lastName": "A", "userLink": "alice",
			"followingUsers": [{"id": 2, "firstName": "Bob", "lastName": "B", "userLink": "bob"}]}}`,
		"bob": `{"user": {"id": 2, "firstName": "Bob", "lastName": "B", "userLink": "bob",
			"followingUsers": []}}`,
	}
	links := map[string]string{
		"1": `{"userSaved": [{"id": 10, "link": "https://example.com/x", "title": "X",
			"favorite": false, "createdDate": "2024-05-01T10:00:00.000Z",
			"modifiedDate": "2024-05-01T10:00:00.000Z", "highlights": []}]}`,
		"2": `{"userSaved": [{"id": 20, "link": "https://example.com/y", "title": "Y",
			"favorite": false, "createdDate": "2024-05-02T10:00:00.000Z",
			"modifiedDate": "2024-05-02T10:00:00.000Z", "highlights": []}]}`,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/all":
			fmt.Fprint(w, `{"users": [{"id": 1, "firstName": "Alice", "lastName": "A", "userLink": "alice"}]}`)
		case strings.HasSuffix(r.URL.Path, "/links"):
			id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/users/"), "/links")
			if body, ok := links[id]; ok {
				fmt.Fprint(w, body)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		default:
			handle := strings.TrimPrefix(r.URL.Path, "/users/")
			if body, ok := profiles[handle]; ok {
				fmt.Fprint(w, body)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	upstream := httptest.NewServer(fakeUpstream())
	t.Cleanup(upstream.Close)

	logger := zap.NewNop()
	store := cache.NewMemoryStore(1000)
	gateway := cache.NewGateway(store, logger)
	client := curius.NewClient(upstream.Client(), upstream.URL, gateway, time.Minute, logger)
	resolver := follow.NewResolver(client, gateway, time.Minute, logger)
	aggregator := feed.NewAggregator(client, gateway, logger)

	feedCfg := config.FeedConfig{DefaultLimit: 100, MaxLimit: 500, MaxOrder: 3}
	h := handlers.New(client, resolver, aggregator, feedCfg, logger)
	return NewRouter(h, store, prometheus.NewRegistry(), logger)
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestFollowList_RequiresUserHandle(t *testing.T) {
	rec := get(t, newTestRouter(t), "/follow-list")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_handle is required")
}

func TestFollowList_RejectsNegativeOrder(t *testing.T) {
	rec := get(t, newTestRouter(t), "/follow-list?user_handle=alice&order=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFollowList_ReturnsResolvedEdges(t *testing.T) {
	rec := get(t, newTestRouter(t), "/follow-list?user_handle=alice&order=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var edges []curius.FollowWithOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edges))
	require.Len(t, edges, 2)

	orders := map[int64]int{}
	for _, e := range edges {
		orders[e.FollowingUser.ID] = e.Order
	}
	assert.Equal(t, 0, orders[1])
	assert.Equal(t, 1, orders[2])
}

func TestFollowList_UnknownUserIs404(t *testing.T) {
	rec := get(t, newTestRouter(t), "/follow-list?user_handle=ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeed_ReturnsMergedItemsNewestFirst(t *testing.T) {
	rec := get(t, newTestRouter(t), "/feed?user_handle=alice&order=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []curius.Content
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, int64(20), items[0].ID, "bob's newer item ranks first")
	assert.Equal(t, int64(10), items[1].ID)
	require.Len(t, items[0].SavedBy, 1)
	assert.Equal(t, "bob", items[0].SavedBy[0].FollowingUser.UserLink)
}

func TestFeed_HonorsLimit(t *testing.T) {
	rec := get(t, newTestRouter(t), "/feed?user_handle=alice&order=1&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []curius.Content
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 1)
}

func TestFeed_RejectsUnknownFormat(t *testing.T) {
	rec := get(t, newTestRouter(t), "/feed?user_handle=alice&format=atom")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeed_RSSFormat(t *testing.T) {
	rec := get(t, newTestRouter(t), "/feed?user_handle=alice&order=1&format=rss")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "Curius - alice - 1 order feed")
}

func TestAllUsers_ReturnsDirectory(t *testing.T) {
	rec := get(t, newTestRouter(t), "/all-users")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp curius.AllUsersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "alice", resp.Users[0].UserLink)
}

func TestHealthz_ReportsStoreHealth(t *testing.T) {
	rec := get(t, newTestRouter(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetrics_Exposed(t *testing.T) {
	rec := get(t, newTestRouter(t), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestID_EchoedOnResponsePath(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-Id"))
}
