// Package transport builds the outbound HTTP client used for upstream
// calls: exponential-backoff retries with jitter, behind a circuit breaker
// on the upstream host. The curius client itself stays retry-free.
package transport

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"curius-feed/internal/config"
)

// NewHTTPClient assembles the upstream client: base transport, optional
// circuit breaker, then retries on the outside so an open breaker fails
// fast instead of being hammered.
func NewHTTPClient(cfg config.UpstreamConfig, logger *zap.Logger) *http.Client {
	var rt http.RoundTripper = http.DefaultTransport
	if cfg.BreakerEnabled {
		rt = newBreakerTransport(rt, logger)
	}
	rt = &retryTransport{
		next:       rt,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay,
		maxDelay:   cfg.RetryMaxDelay,
		logger:     logger.Named("transport"),
	}
	return &http.Client{
		Transport: rt,
		Timeout:   cfg.RequestTimeout,
	}
}

// retryTransport retries transport errors and retryable statuses with
// exponential backoff and jitter. All upstream calls are idempotent GETs.
type retryTransport struct {
	next       http.RoundTripper
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *zap.Logger
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(t.backoff(attempt)):
			}
		}

		resp, err = t.next.RoundTrip(req)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			// The breaker already decided the upstream is down; retrying
			// locally would only delay the caller.
			return nil, err
		}
		if attempt == t.maxRetries {
			// Out of retries; hand the last response back unread.
			break
		}
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		t.logger.Warn("upstream request failed, will retry",
			zap.String("url", req.URL.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// backoff computes the delay before the given attempt: base * 2^(n-1),
// capped, with up to 10% random jitter to avoid synchronized retries.
func (t *retryTransport) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(t.baseDelay) * math.Pow(2, float64(attempt-1)))
	if delay > t.maxDelay {
		delay = t.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/10 + 1))
	return delay + jitter
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// errUpstreamStatus marks a 5xx response as a breaker failure while still
// handing the response back to the retry layer.
var errUpstreamStatus = errors.New("upstream returned server error")

type breakerTransport struct {
	next    http.RoundTripper
	breaker *gobreaker.CircuitBreaker
}

func newBreakerTransport(next http.RoundTripper, logger *zap.Logger) *breakerTransport {
	log := logger.Named("breaker")
	return &breakerTransport{
		next: next,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "curius-upstream",
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 5 {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= 0.8
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
	}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errUpstreamStatus
		}
		return resp, nil
	})
	if err != nil {
		if resp, ok := out.(*http.Response); ok && errors.Is(err, errUpstreamStatus) {
			return resp, nil
		}
		return nil, err
	}
	return out.(*http.Response), nil
}
