// Package httpfetch is the shared outbound HTTP client used by plugin
// collection and endpoint previews. Each remote host gets its own circuit
// breaker, so a dead endpoint fails fast without blocking fetches to any
// other host.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"github.com/Thulrus/ParallaxIndex/internal/metrics"
)

// maxBodyBytes bounds response reads; numeric feeds are tiny, anything larger
// is a misconfigured source.
const maxBodyBytes = 4 << 20

// ErrUnavailable is returned without issuing a request while the host's
// circuit is open.
var ErrUnavailable = errors.New("fetch circuit open")

// Result is the outcome of one successful fetch.
type Result struct {
	Body        []byte
	StatusCode  int
	ContentType string
	Duration    time.Duration
}

// Client wraps http.Client with per-request timeouts and one circuit breaker
// per remote host.
type Client struct {
	http *http.Client

	mu       sync.Mutex
	breakers map[string]circuitbreaker.CircuitBreaker[any]
}

func NewClient() *Client {
	return &Client{
		http:     &http.Client{},
		breakers: make(map[string]circuitbreaker.CircuitBreaker[any]),
	}
}

// breakerFor returns the breaker guarding one host, building it on first use.
// Breaker settings:
// - 60% failure rate, min 5 requests, 10s rolling window
// - 30s before transitioning from open to half-open
// - 1 successful request in half-open to close
func (c *Client) breakerFor(host string) circuitbreaker.CircuitBreaker[any] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}

	cb := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"host", host,
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)

			metrics.CircuitBreakerStateChanges.WithLabelValues(host, e.NewState.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(host).Set(stateToFloat(e.NewState))
		}).
		Build()

	c.breakers[host] = cb
	return cb
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// Get fetches a URL with the given timeout. Any network failure, timeout, or
// non-2xx status is an error; callers decide how to classify it.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration) (*Result, error) {
	res, err := c.guarded(ctx, rawURL, timeout)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error fetching %s: status %d", rawURL, res.StatusCode)
	}
	return res, nil
}

// Probe fetches a URL like Get but treats any HTTP status as a valid answer.
// Used by endpoint previews, where a 500 body is still worth showing.
func (c *Client) Probe(ctx context.Context, rawURL string, timeout time.Duration) (*Result, error) {
	return c.guarded(ctx, rawURL, timeout)
}

func (c *Client) guarded(ctx context.Context, rawURL string, timeout time.Duration) (*Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid fetch URL %q", rawURL)
	}

	breaker := c.breakerFor(parsed.Host)
	if !breaker.TryAcquirePermit() {
		metrics.FetchRequestsTotal.WithLabelValues("circuit_open").Inc()
		return nil, fmt.Errorf("fetching %s: %w", rawURL, ErrUnavailable)
	}

	res, err := c.get(ctx, rawURL, timeout)
	if err != nil {
		breaker.RecordError(err)
		metrics.FetchRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	breaker.RecordSuccess()
	metrics.FetchRequestsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (c *Client) get(ctx context.Context, rawURL string, timeout time.Duration) (*Result, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch URL %q: %w", rawURL, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("request to %s timed out after %s", rawURL, timeout)
		}
		return nil, fmt.Errorf("HTTP error fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", rawURL, err)
	}

	return &Result{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Duration:    time.Since(start),
	}, nil
}
