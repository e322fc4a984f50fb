package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"curius-feed/internal/config"
)

func testConfig(maxRetries int, breaker bool) config.UpstreamConfig {
	return config.UpstreamConfig{
		BaseURL:        "http://unused",
		RequestTimeout: 5 * time.Second,
		MaxRetries:     maxRetries,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
		BreakerEnabled: breaker,
	}
}

func TestRetry_RecoversFromTransientServerErrors(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(5, false), zap.NewNop())
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int64(3), hits.Load())
}

func TestRetry_ExhaustionReturnsLastResponseReadable(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream exploded")
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(2, false), zap.NewNop())
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int64(3), hits.Load(), "initial attempt plus two retries")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "the final response body must still be readable")
	assert.Equal(t, "upstream exploded", string(body))
}

func TestRetry_SuccessIsNotRetried(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(5, false), zap.NewNop())
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int64(1), hits.Load())
}

func TestRetry_ClientErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(5, false), zap.NewNop())
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int64(1), hits.Load())
}

func TestBreaker_OpensAfterSustainedFailures(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// No retry layer so each Get maps to exactly one breaker execution.
	client := NewHTTPClient(testConfig(0, true), zap.NewNop())

	for i := 0; i < 5; i++ {
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.Equal(t, int64(5), hits.Load())

	// The breaker has tripped; this request must fail fast without reaching
	// the upstream.
	_, err := client.Get(server.URL)
	require.Error(t, err)
	assert.Equal(t, int64(5), hits.Load())
}

func TestBackoff_IsCappedAtMaxDelay(t *testing.T) {
	rt := &retryTransport{
		baseDelay: 100 * time.Millisecond,
		maxDelay:  time.Second,
		logger:    zap.NewNop(),
	}
	for attempt := 1; attempt <= 10; attempt++ {
		delay := rt.backoff(attempt)
		assert.LessOrEqual(t, delay, time.Second+100*time.Millisecond,
			"attempt %d exceeds cap plus jitter", attempt)
	}
}
