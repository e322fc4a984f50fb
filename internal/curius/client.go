package curius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"curius-feed/internal/cache"
	apperrors "curius-feed/pkg/errors"
)

// Client fetches profiles and saved-content pages from the curius API.
// The client itself never retries; retry/backoff and circuit breaking live
// in the http.Client's transport.
type Client struct {
	httpClient *http.Client
	baseURL    string
	gateway    *cache.Gateway
	ttl        time.Duration
	logger     *zap.Logger
}

// NewClient builds a client over the given HTTP client and cache gateway.
func NewClient(httpClient *http.Client, baseURL string, gateway *cache.Gateway, ttl time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		gateway:    gateway,
		ttl:        ttl,
		logger:     logger.Named("curius"),
	}
}

// GetUserProfile returns the profile for a user-link slug, cache-aside
// under profile:{handle}.
func (c *Client) GetUserProfile(ctx context.Context, handle string) (UserProfile, error) {
	resp, err := cache.Fetch(ctx, c.gateway, ProfileKey(handle), c.ttl,
		func(ctx context.Context) (UserResponse, error) {
			return getJSON[UserResponse](ctx, c, "/users/"+url.PathEscape(handle))
		})
	if err != nil {
		return UserProfile{}, err
	}
	return resp.User, nil
}

// GetContent returns the first page of a user's saved links, cache-aside
// under content:{userId}. Pages beyond 0 are out of scope.
func (c *Client) GetContent(ctx context.Context, userID int64) (LinkResponse, error) {
	return cache.Fetch(ctx, c.gateway, ContentKey(userID), c.ttl,
		func(ctx context.Context) (LinkResponse, error) {
			return getJSON[LinkResponse](ctx, c, fmt.Sprintf("/users/%d/links?page=0", userID))
		})
}

// GetAllUsers returns the network-wide user directory, cache-aside under
// all_users.
func (c *Client) GetAllUsers(ctx context.Context) (AllUsersResponse, error) {
	return cache.Fetch(ctx, c.gateway, AllUsersKey(), c.ttl,
		func(ctx context.Context) (AllUsersResponse, error) {
			return getJSON[AllUsersResponse](ctx, c, "/users/all")
		})
}

// getJSON performs a GET against the API and decodes the body. Decode
// failures report the field path of the structural mismatch, which is what
// makes upstream schema drift diagnosable from logs alone.
func getJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var zero T
	op := "curius.GET " + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return zero, apperrors.Internal("building upstream request", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("upstream request", zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, apperrors.Transport(op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return zero, apperrors.NotFound("upstream resource not found: " + path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, apperrors.Transport(op,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, apperrors.Transport(op, "reading response body", err)
	}

	var value T
	if err := json.Unmarshal(body, &value); err != nil {
		return zero, apperrors.Decode(op, decodePath(err), err)
	}
	return value, nil
}

// decodePath extracts the most precise location the decoder can give.
func decodePath(err error) string {
	switch e := err.(type) {
	case *json.UnmarshalTypeError:
		if e.Field != "" {
			return fmt.Sprintf("decoding failed at field path %q (got JSON %s, want %s)",
				e.Field, e.Value, e.Type)
		}
		return fmt.Sprintf("decoding failed at offset %d (got JSON %s, want %s)",
			e.Offset, e.Value, e.Type)
	case *json.SyntaxError:
		return fmt.Sprintf("malformed JSON at offset %d", e.Offset)
	default:
		return "decoding failed"
	}
}
